// Package prompt turns a free-text prompt and the studio selectors into the
// final instruction and image config sent to the generation model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/nanogen/studio/types"
)

const (
	DefaultFlashModel = "gemini-2.5-flash-image"
	DefaultProModel   = "gemini-3-pro-image-preview"

	// maxImageSize is the largest output size the remote API accepts.
	maxImageSize = "4K"

	qualityBoost = ". Masterpiece, ultra-high resolution, 8k detail, sharp focus, incredible textures."
)

// Request carries everything the composer needs.
type Request struct {
	Prompt          string
	Style           types.ArtStyle
	Pose            types.PoseStyle
	Camera          types.CameraStyle
	Lens            types.LensStyle
	ReferenceImages []string
	AspectRatio     types.AspectRatio
	Resolution      types.Resolution
}

// ImageConfig is the output-shape block of a generation call. ImageSize is
// empty when the model default applies.
type ImageConfig struct {
	AspectRatio string
	ImageSize   string
}

// Composition is the result of Compose.
type Composition struct {
	Prompt string
	Config ImageConfig
	Model  string
}

// Composer assembles prompts. The zero value uses the default model ids.
type Composer struct {
	FlashModel string
	ProModel   string
}

func NewComposer(flashModel, proModel string) *Composer {
	return &Composer{FlashModel: flashModel, ProModel: proModel}
}

// Compose builds the final instruction, image config and model variant.
// It never fails; missing selectors fall back to their defaults.
func (c *Composer) Compose(req Request) Composition {
	req = withDefaults(req)

	text := templateFor(req).render(req)
	if req.Resolution == types.Resolution8K {
		text += qualityBoost
	}

	return Composition{
		Prompt: text,
		Config: imageConfig(req.AspectRatio, req.Resolution),
		Model:  c.ModelFor(req.Resolution),
	}
}

// ModelFor picks the cheaper variant at the baseline tier and the
// higher-capability one above it.
func (c *Composer) ModelFor(res types.Resolution) string {
	if res.AboveBaseline() {
		return valueOr(c.ProModel, DefaultProModel)
	}
	return valueOr(c.FlashModel, DefaultFlashModel)
}

func imageConfig(aspect types.AspectRatio, res types.Resolution) ImageConfig {
	cfg := ImageConfig{AspectRatio: string(aspect)}
	if res.AboveBaseline() {
		if res == types.Resolution8K {
			cfg.ImageSize = maxImageSize
		} else {
			cfg.ImageSize = string(res)
		}
	}
	return cfg
}

// template renders the instruction for one family of styles.
type template interface {
	render(req Request) string
}

// templateFor dispatches on the style. The romantic template needs two
// reference images and the swimwear template needs one; otherwise the
// request falls through to the generic path.
func templateFor(req Request) template {
	refs := len(req.ReferenceImages)
	switch {
	case req.Style == types.StyleFrenchKiss && refs >= 2:
		return romanticTemplate{}
	case req.Style == types.StyleSwimwear && refs >= 1:
		return swimwearTemplate{}
	default:
		return genericTemplate{}
	}
}

type genericTemplate struct{}

func (genericTemplate) render(req Request) string {
	var b strings.Builder
	if len(req.ReferenceImages) > 0 {
		b.WriteString("Edit and integrate the provided image(s) to create a new scene of ")
	} else {
		b.WriteString("Create a high quality image of ")
	}
	b.WriteString(req.Prompt)
	b.WriteString(compositionClause(req))
	return b.String()
}

// compositionClause joins one fragment per non-default selector, in the
// order style, pose, camera, lens.
func compositionClause(req Request) string {
	var details []string
	switch req.Style {
	case types.StyleNone:
	case types.StylePal:
		details = append(details, "in a gritty urban comic book illustration style with bold black outlines, vibrant neon colors (purple, pink, blue), and edgy stylized character art")
	default:
		details = append(details, fmt.Sprintf("in the style of %s", req.Style))
	}
	if req.Pose != types.PoseNone {
		details = append(details, fmt.Sprintf("showing the subject in a %s pose", req.Pose))
	}
	if req.Camera != types.CameraNone {
		details = append(details, fmt.Sprintf("captured from a %s", req.Camera))
	}
	if req.Lens != types.LensNone {
		details = append(details, fmt.Sprintf("shot through a %s", req.Lens))
	}
	if len(details) == 0 {
		return ""
	}
	return ". The scene should be " + strings.Join(details, ", ") + "."
}

type romanticTemplate struct{}

func (romanticTemplate) render(req Request) string {
	var b strings.Builder
	b.WriteString("Combine the subjects from these two reference images into a highly realistic depiction of them sharing a romantic french kiss. Maintain the physical likeness of both people. ")
	b.WriteString(req.Prompt)
	if req.Pose != types.PoseNone {
		fmt.Fprintf(&b, " The subjects should be in a %s position.", req.Pose)
	}
	if req.Camera != types.CameraNone {
		fmt.Fprintf(&b, " This scene is viewed from a %s.", req.Camera)
	}
	if req.Lens != types.LensNone {
		fmt.Fprintf(&b, " Use a %s effect.", req.Lens)
	}
	return b.String()
}

type swimwearTemplate struct{}

func (swimwearTemplate) render(req Request) string {
	var b strings.Builder
	b.WriteString("Modify the subject(s) in the provided image(s) to appear in swimwear or bikini attire while perfectly preserving their facial features and likeness. ")
	b.WriteString(req.Prompt)
	if req.Pose != types.PoseNone {
		fmt.Fprintf(&b, " Change the subject's pose to %s.", req.Pose)
	}
	if req.Camera != types.CameraNone {
		fmt.Fprintf(&b, " Adjust the view to a %s.", req.Camera)
	}
	if req.Lens != types.LensNone {
		fmt.Fprintf(&b, " Use a %s optic.", req.Lens)
	}
	return b.String()
}

// UpscalePrompt is the instruction for a 4K re-render of an existing image.
func UpscalePrompt(originalPrompt string) string {
	return "Generate a high-resolution, highly detailed 4K version of this image. Improve sharpness and texture details while maintaining exact composition. " + originalPrompt
}

// RemoveBackgroundPrompt is the instruction for subject isolation.
func RemoveBackgroundPrompt() string {
	return "Process this image to isolate the subject by removing the entire background. Place the subject on a solid, pure white background with clean, sharp edges."
}

// WithDefaults fills every unset selector with its default value.
func (r Request) WithDefaults() Request {
	return withDefaults(r)
}

func withDefaults(req Request) Request {
	if req.Style == "" {
		req.Style = types.StyleNone
	}
	if req.Pose == "" {
		req.Pose = types.PoseNone
	}
	if req.Camera == "" {
		req.Camera = types.CameraNone
	}
	if req.Lens == "" {
		req.Lens = types.LensNone
	}
	if req.AspectRatio == "" {
		req.AspectRatio = types.AspectWide
	}
	if req.Resolution == "" {
		req.Resolution = types.Resolution1K
	}
	return req
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
