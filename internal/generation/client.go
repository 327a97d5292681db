// Package generation calls the remote generative image API and extracts the
// produced image from its response envelope.
package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"

	"github.com/nanogen/studio/config"
	"github.com/nanogen/studio/internal/logging"
	"github.com/nanogen/studio/internal/prompt"
	"google.golang.org/genai"
)

const defaultMIMEType = "image/png"

var dataURLPattern = regexp.MustCompile(`^data:(.+);base64,(.+)$`)

var (
	// ErrNoImageInResponse matches every failure to find image data in a
	// successful API response.
	ErrNoImageInResponse = errors.New("no image in response")

	// ErrCredentialRequired means the caller must (re)supply an API key.
	ErrCredentialRequired = errors.New("API key required: select a valid Gemini API key")
)

// NoImageError carries the user-visible reason a response had no image.
type NoImageError struct {
	Detail string
}

func (e *NoImageError) Error() string { return e.Detail }

func (e *NoImageError) Is(target error) bool { return target == ErrNoImageInResponse }

// ContentGenerator is the slice of the genai Models service used here.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client sends composed prompts and reference images to the model.
type Client struct {
	models     ContentGenerator
	flashModel string
	proModel   string
	log        logging.Logger
}

// New builds a Client for the Gemini API. Without an API key the client is
// still usable but every call fails with ErrCredentialRequired.
func New(ctx context.Context, cfg config.GeminiConfig, log logging.Logger) (*Client, error) {
	c := &Client{
		flashModel: valueOr(cfg.FlashModel, prompt.DefaultFlashModel),
		proModel:   valueOr(cfg.ProModel, prompt.DefaultProModel),
		log:        log,
	}
	if c.log == nil {
		c.log = logging.Discard()
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		c.log.Warn(ctx, "gemini api key not configured")
		return c, nil
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c.models = gc.Models
	return c, nil
}

// NewWithGenerator wraps an existing generator.
func NewWithGenerator(models ContentGenerator, flashModel, proModel string, log logging.Logger) *Client {
	if log == nil {
		log = logging.Discard()
	}
	return &Client{
		models:     models,
		flashModel: valueOr(flashModel, prompt.DefaultFlashModel),
		proModel:   valueOr(proModel, prompt.DefaultProModel),
		log:        log,
	}
}

// HasCredential reports whether an API key is configured.
func (c *Client) HasCredential() bool {
	return c.models != nil
}

// Generate runs a composed prompt with its reference images and returns
// the image as a data URL.
func (c *Client) Generate(ctx context.Context, comp prompt.Composition, references []string) (string, error) {
	parts := imageParts(references)
	parts = append(parts, genai.NewPartFromText(comp.Prompt))

	cfg := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: comp.Config.AspectRatio,
			ImageSize:   comp.Config.ImageSize,
		},
	}
	return c.call(ctx, "generate", comp.Model, parts, cfg)
}

// Upscale re-renders image at the largest supported size.
func (c *Client) Upscale(ctx context.Context, image, originalPrompt string) (string, error) {
	parts := imageParts([]string{image})
	parts = append(parts, genai.NewPartFromText(prompt.UpscalePrompt(originalPrompt)))

	cfg := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{ImageSize: "4K"},
	}
	return c.call(ctx, "upscale", c.proModel, parts, cfg)
}

// RemoveBackground isolates the subject of image on a white background.
func (c *Client) RemoveBackground(ctx context.Context, image string) (string, error) {
	parts := imageParts([]string{image})
	parts = append(parts, genai.NewPartFromText(prompt.RemoveBackgroundPrompt()))
	return c.call(ctx, "remove_background", c.flashModel, parts, nil)
}

// ProModel and FlashModel expose the resolved model ids.
func (c *Client) ProModel() string   { return c.proModel }
func (c *Client) FlashModel() string { return c.flashModel }

func (c *Client) call(ctx context.Context, op, model string, parts []*genai.Part, cfg *genai.GenerateContentConfig) (string, error) {
	if c.models == nil {
		return "", ErrCredentialRequired
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		c.log.Error(ctx, "image request failed", "op", op, "model", model, "error", err)
		return "", err
	}

	image, err := ExtractImage(resp)
	if err != nil {
		c.log.Warn(ctx, "image response without image", "op", op, "model", model, "error", err)
		return "", err
	}
	return image, nil
}

// ExtractImage returns the first inline image of the first candidate as a
// data URL. A text-only response surfaces its text as the failure detail.
func ExtractImage(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &NoImageError{Detail: "No candidates returned from API"}
	}

	content := resp.Candidates[0].Content
	if content == nil || content.Parts == nil {
		return "", &NoImageError{Detail: "No content parts returned from API"}
	}

	for _, part := range content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = defaultMIMEType
		}
		return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
	}

	if text := responseText(content.Parts); text != "" {
		return "", &NoImageError{Detail: "Model Response: " + text}
	}
	return "", &NoImageError{Detail: "No image data found in response"}
}

// IsCredentialError reports whether err indicates a missing, invalid or
// unauthorized API key. Remote errors are matched by message substrings.
func IsCredentialError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCredentialRequired) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "entity was not found") ||
		strings.Contains(msg, "403") ||
		strings.Contains(msg, "key")
}

// ParseDataURL splits a data URL into its media type and decoded payload.
func ParseDataURL(dataURL string) (string, []byte, bool) {
	match := dataURLPattern.FindStringSubmatch(dataURL)
	if match == nil {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(match[2])
	if err != nil {
		return "", nil, false
	}
	return match[1], data, true
}

// imageParts converts data URLs to inline parts, skipping empty or
// malformed entries.
func imageParts(references []string) []*genai.Part {
	parts := make([]*genai.Part, 0, len(references)+1)
	for _, ref := range references {
		if ref == "" {
			continue
		}
		mimeType, data, ok := ParseDataURL(ref)
		if !ok {
			continue
		}
		parts = append(parts, genai.NewPartFromBytes(data, mimeType))
	}
	return parts
}

func responseText(parts []*genai.Part) string {
	var texts []string
	for _, part := range parts {
		if part != nil && part.Text != "" && !part.Thought {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "")
}

func valueOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
