package handlers

import (
	"errors"
	"net/http"

	"github.com/nanogen/studio/internal/generation"
	"github.com/nanogen/studio/internal/prompt"
	"github.com/nanogen/studio/internal/services"
	"github.com/nanogen/studio/internal/store"
)

// writeServiceError maps domain errors to status codes. Unknown errors get
// fallback as the message.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, prompt.ErrInvalidSelector):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrDuplicateUsername), errors.Is(err, store.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, store.ErrAccountSuspended):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrUserNotFound), errors.Is(err, store.ErrImageNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, store.ErrUnavailable.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// writeGenerationError handles failures of remote image calls. Their
// message is shown to the user as-is.
func writeGenerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, prompt.ErrInvalidSelector),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrImageNotFound),
		errors.Is(err, store.ErrAccountSuspended),
		errors.Is(err, services.ErrBusy),
		errors.Is(err, store.ErrUnavailable):
		writeServiceError(w, err, "")
	case generation.IsCredentialError(err):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: err.Error(), CredentialRequired: true})
	case errors.Is(err, generation.ErrNoImageInResponse):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		msg := err.Error()
		if msg == "" {
			msg = "Generation failed."
		}
		writeError(w, http.StatusBadGateway, msg)
	}
}
