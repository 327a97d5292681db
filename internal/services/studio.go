package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nanogen/studio/internal/generation"
	"github.com/nanogen/studio/internal/logging"
	"github.com/nanogen/studio/internal/prompt"
	"github.com/nanogen/studio/internal/store"
	"github.com/nanogen/studio/types"
)

const (
	upscaleSuffix = " (4K)"
	cleanSuffix   = " (Clean)"
)

// ErrBusy is returned when the same action is already running.
var ErrBusy = errors.New("Another operation is already in progress")

// HistoryRepository is the part of the record store the studio writes to.
type HistoryRepository interface {
	Get(ctx context.Context, username string) (types.User, error)
	FindImage(ctx context.Context, username, imageID string) (types.GeneratedImage, error)
	AppendHistory(ctx context.Context, username string, image types.GeneratedImage) error
}

// ImageGenerator produces images as data URLs.
type ImageGenerator interface {
	Generate(ctx context.Context, comp prompt.Composition, references []string) (string, error)
	Upscale(ctx context.Context, image, originalPrompt string) (string, error)
	RemoveBackground(ctx context.Context, image string) (string, error)
	HasCredential() bool
	ProModel() string
	FlashModel() string
}

// EventPublisher announces new history entries.
type EventPublisher interface {
	Publish(ctx context.Context, ev types.GenerationEvent) (string, error)
}

// StudioService runs generation and post-processing for a logged-in user.
type StudioService struct {
	repo     HistoryRepository
	composer *prompt.Composer
	gen      ImageGenerator
	events   EventPublisher
	log      logging.Logger
	busy     *busySet
	now      func() time.Time
	newID    func() string
}

// NewStudioService wires the studio. events may be nil.
func NewStudioService(repo HistoryRepository, composer *prompt.Composer, gen ImageGenerator, events EventPublisher, log logging.Logger) *StudioService {
	if composer == nil {
		composer = &prompt.Composer{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &StudioService{
		repo:     repo,
		composer: composer,
		gen:      gen,
		events:   events,
		log:      log,
		busy:     newBusySet(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Generate composes the request, calls the model and records the result at
// the front of the user's history.
func (s *StudioService) Generate(ctx context.Context, username string, req prompt.Request) (types.GeneratedImage, error) {
	if strings.TrimSpace(req.Prompt) == "" && len(req.ReferenceImages) == 0 {
		return types.GeneratedImage{}, ErrEmptyPrompt
	}
	if err := prompt.Validate(req); err != nil {
		return types.GeneratedImage{}, err
	}
	req = req.WithDefaults()
	if req.Resolution.AboveBaseline() && !s.gen.HasCredential() {
		return types.GeneratedImage{}, generation.ErrCredentialRequired
	}
	if err := s.checkActive(ctx, username); err != nil {
		return types.GeneratedImage{}, err
	}

	release, ok := s.busy.acquire("generate/" + username)
	if !ok {
		return types.GeneratedImage{}, ErrBusy
	}
	defer release()

	comp := s.composer.Compose(req)

	// The remote call outlives a dropped client connection.
	ctx = context.WithoutCancel(ctx)
	url, err := s.gen.Generate(ctx, comp, req.ReferenceImages)
	if err != nil {
		return types.GeneratedImage{}, err
	}

	img := types.GeneratedImage{
		ID:          s.newID(),
		URL:         url,
		Prompt:      comp.Prompt,
		Style:       req.Style,
		Pose:        req.Pose,
		Camera:      req.Camera,
		Lens:        req.Lens,
		AspectRatio: req.AspectRatio,
		Resolution:  req.Resolution,
		Timestamp:   s.now().UnixMilli(),
	}
	if err := s.record(ctx, username, img, types.EventGenerated, comp.Model); err != nil {
		return types.GeneratedImage{}, err
	}
	return img, nil
}

// Upscale re-renders a history image at 4K and records it as a new entry.
func (s *StudioService) Upscale(ctx context.Context, username, imageID string) (types.GeneratedImage, error) {
	if !s.gen.HasCredential() {
		return types.GeneratedImage{}, generation.ErrCredentialRequired
	}
	return s.postProcess(ctx, username, imageID, upscaleSuffix, types.EventUpscaled, s.gen.ProModel(),
		func(ctx context.Context, src types.GeneratedImage) (string, error) {
			return s.gen.Upscale(ctx, src.URL, src.Prompt)
		})
}

// RemoveBackground isolates the subject of a history image and records it
// as a new entry.
func (s *StudioService) RemoveBackground(ctx context.Context, username, imageID string) (types.GeneratedImage, error) {
	return s.postProcess(ctx, username, imageID, cleanSuffix, types.EventBackgroundRemoved, s.gen.FlashModel(),
		func(ctx context.Context, src types.GeneratedImage) (string, error) {
			return s.gen.RemoveBackground(ctx, src.URL)
		})
}

// History returns the user's images, newest first.
func (s *StudioService) History(ctx context.Context, username string) ([]types.GeneratedImage, error) {
	user, err := s.repo.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.History == nil {
		return []types.GeneratedImage{}, nil
	}
	return user.History, nil
}

// CredentialConfigured reports whether high tiers and upscaling are
// available.
func (s *StudioService) CredentialConfigured() bool {
	return s.gen.HasCredential()
}

func (s *StudioService) postProcess(
	ctx context.Context,
	username, imageID, suffix, kind, model string,
	run func(ctx context.Context, src types.GeneratedImage) (string, error),
) (types.GeneratedImage, error) {
	if err := s.checkActive(ctx, username); err != nil {
		return types.GeneratedImage{}, err
	}
	src, err := s.repo.FindImage(ctx, username, imageID)
	if err != nil {
		return types.GeneratedImage{}, err
	}

	// One action per image at a time.
	release, ok := s.busy.acquire("image/" + username + "/" + imageID)
	if !ok {
		return types.GeneratedImage{}, ErrBusy
	}
	defer release()

	ctx = context.WithoutCancel(ctx)
	url, err := run(ctx, src)
	if err != nil {
		return types.GeneratedImage{}, err
	}

	img := src
	img.ID = s.newID()
	img.URL = url
	img.Prompt = src.Prompt + suffix
	img.Timestamp = s.now().UnixMilli()
	if err := s.record(ctx, username, img, kind, model); err != nil {
		return types.GeneratedImage{}, err
	}
	return img, nil
}

func (s *StudioService) checkActive(ctx context.Context, username string) error {
	user, err := s.repo.Get(ctx, username)
	if err != nil {
		return err
	}
	if user.Status == types.StatusSuspended {
		return store.ErrAccountSuspended
	}
	return nil
}

// record persists img and announces it. A failed publish is only logged.
func (s *StudioService) record(ctx context.Context, username string, img types.GeneratedImage, kind, model string) error {
	if err := s.repo.AppendHistory(ctx, username, img); err != nil {
		s.log.Error(ctx, "failed to save history", "username", username, "image_id", img.ID, "error", err)
		return err
	}
	s.log.Info(ctx, "image recorded", "username", username, "image_id", img.ID, "kind", kind, "model", model)

	if s.events == nil {
		return nil
	}
	_, err := s.events.Publish(ctx, types.GenerationEvent{
		Kind:       kind,
		Username:   username,
		ImageID:    img.ID,
		Style:      img.Style,
		Resolution: img.Resolution,
		Model:      model,
		Timestamp:  img.Timestamp,
	})
	if err != nil {
		s.log.Warn(ctx, "failed to publish event", "kind", kind, "image_id", img.ID, "error", err)
	}
	return nil
}

// busySet tracks keys with an operation in flight.
type busySet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newBusySet() *busySet {
	return &busySet{keys: make(map[string]struct{})}
}

func (b *busySet) acquire(key string) (func(), bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.keys[key]; ok {
		return nil, false
	}
	b.keys[key] = struct{}{}
	return func() {
		b.mu.Lock()
		delete(b.keys, key)
		b.mu.Unlock()
	}, true
}
