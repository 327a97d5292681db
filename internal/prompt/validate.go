package prompt

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nanogen/studio/types"
)

// ErrInvalidSelector is returned by Validate for an unknown selector value.
var ErrInvalidSelector = errors.New("invalid selector")

// Validate rejects selector values outside the known sets. Empty values
// are accepted and mean "default".
func Validate(req Request) error {
	if req.Style != "" && !slices.Contains(types.ArtStyles, req.Style) {
		return fmt.Errorf("%w: style %q", ErrInvalidSelector, req.Style)
	}
	if req.Pose != "" && !slices.Contains(types.PoseStyles, req.Pose) {
		return fmt.Errorf("%w: pose %q", ErrInvalidSelector, req.Pose)
	}
	if req.Camera != "" && !slices.Contains(types.CameraStyles, req.Camera) {
		return fmt.Errorf("%w: camera %q", ErrInvalidSelector, req.Camera)
	}
	if req.Lens != "" && !slices.Contains(types.LensStyles, req.Lens) {
		return fmt.Errorf("%w: lens %q", ErrInvalidSelector, req.Lens)
	}
	if req.AspectRatio != "" && !slices.Contains(types.AspectRatios, req.AspectRatio) {
		return fmt.Errorf("%w: aspect ratio %q", ErrInvalidSelector, req.AspectRatio)
	}
	if req.Resolution != "" && !slices.Contains(types.Resolutions, req.Resolution) {
		return fmt.Errorf("%w: resolution %q", ErrInvalidSelector, req.Resolution)
	}
	return nil
}

// Options lists every selectable value, for clients building the studio
// panel.
type Options struct {
	Styles       []types.ArtStyle    `json:"styles"`
	Poses        []types.PoseStyle   `json:"poses"`
	Cameras      []types.CameraStyle `json:"cameras"`
	Lenses       []types.LensStyle   `json:"lenses"`
	AspectRatios []types.AspectRatio `json:"aspect_ratios"`
	Resolutions  []types.Resolution  `json:"resolutions"`
}

func AllOptions() Options {
	return Options{
		Styles:       types.ArtStyles,
		Poses:        types.PoseStyles,
		Cameras:      types.CameraStyles,
		Lenses:       types.LensStyles,
		AspectRatios: types.AspectRatios,
		Resolutions:  types.Resolutions,
	}
}
