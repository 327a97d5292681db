package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nanogen/studio/internal/prompt"
	"github.com/nanogen/studio/internal/services"
	"github.com/nanogen/studio/types"
)

// StudioHandler serves generation, history and prompt helpers.
type StudioHandler struct {
	studio *services.StudioService
	users  *services.UserService
}

func NewStudioHandler(studio *services.StudioService, users *services.UserService) *StudioHandler {
	return &StudioHandler{studio: studio, users: users}
}

// StudioRouter registers studio routes. Every route needs a user session.
func StudioRouter(r chi.Router, studio *services.StudioService, users *services.UserService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewStudioHandler(studio, users)

	r.Use(authMiddleware, RequireRole(types.RoleUser))
	r.Post("/generate", handler.Generate)
	r.Get("/options", handler.Options)
	r.Get("/suggestions", handler.Suggestions)
	r.Route("/history", func(r chi.Router) {
		r.Get("/", handler.History)
		r.Delete("/", handler.ClearHistory)
		r.Post("/{imageID}/upscale", handler.Upscale)
		r.Post("/{imageID}/remove-background", handler.RemoveBackground)
	})
}

type GenerateRequest struct {
	Prompt          string            `json:"prompt"`
	Style           types.ArtStyle    `json:"style"`
	Pose            types.PoseStyle   `json:"pose"`
	Camera          types.CameraStyle `json:"camera"`
	Lens            types.LensStyle   `json:"lens"`
	ReferenceImages []string          `json:"reference_images"`
	AspectRatio     types.AspectRatio `json:"aspect_ratio"`
	Resolution      types.Resolution  `json:"resolution"`
}

type OptionsResponse struct {
	prompt.Options
	CredentialConfigured bool `json:"credential_configured"`
}

// SuggestionsResponse lists completions for the prompt. Applied is the
// prompt with the chosen completion substituted, when one was given.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
	Applied     string   `json:"applied,omitempty"`
}

func (h *StudioHandler) Generate(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	img, err := h.studio.Generate(r.Context(), session.Username, prompt.Request{
		Prompt:          req.Prompt,
		Style:           req.Style,
		Pose:            req.Pose,
		Camera:          req.Camera,
		Lens:            req.Lens,
		ReferenceImages: req.ReferenceImages,
		AspectRatio:     req.AspectRatio,
		Resolution:      req.Resolution,
	})
	if err != nil {
		writeGenerationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, img)
}

func (h *StudioHandler) Upscale(w http.ResponseWriter, r *http.Request) {
	h.postProcess(w, r, h.studio.Upscale)
}

func (h *StudioHandler) RemoveBackground(w http.ResponseWriter, r *http.Request) {
	h.postProcess(w, r, h.studio.RemoveBackground)
}

func (h *StudioHandler) History(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	history, err := h.studio.History(r.Context(), session.Username)
	if err != nil {
		writeServiceError(w, err, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *StudioHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.users.ClearHistory(r.Context(), session.Username); err != nil {
		writeServiceError(w, err, "failed to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Options lists every selector value the composer accepts.
func (h *StudioHandler) Options(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, OptionsResponse{
		Options:              prompt.AllOptions(),
		CredentialConfigured: h.studio.CredentialConfigured(),
	})
}

func (h *StudioHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("prompt")
	var resp SuggestionsResponse
	if apply := strings.TrimSpace(r.URL.Query().Get("apply")); apply != "" {
		text = prompt.ApplySuggestion(text, apply)
		resp.Applied = text
	}
	resp.Suggestions = prompt.Suggest(text)
	if resp.Suggestions == nil {
		resp.Suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *StudioHandler) postProcess(
	w http.ResponseWriter,
	r *http.Request,
	run func(ctx context.Context, username, imageID string) (types.GeneratedImage, error),
) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	imageID := strings.TrimSpace(chi.URLParam(r, "imageID"))
	if imageID == "" {
		writeError(w, http.StatusBadRequest, "invalid image id")
		return
	}

	img, err := run(r.Context(), session.Username, imageID)
	if err != nil {
		writeGenerationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}
