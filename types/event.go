package types

// Generation event kinds.
const (
	EventGenerated         = "generation.completed"
	EventUpscaled          = "generation.upscaled"
	EventBackgroundRemoved = "generation.background_removed"
)

// GenerationEvent is published after an image lands in a user's history.
// The image payload itself is not carried.
type GenerationEvent struct {
	Kind       string     `json:"kind"`
	Username   string     `json:"username"`
	ImageID    string     `json:"image_id"`
	Style      ArtStyle   `json:"style"`
	Resolution Resolution `json:"resolution,omitempty"`
	Model      string     `json:"model"`
	Timestamp  int64      `json:"timestamp"`
}
