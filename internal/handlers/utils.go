package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nanogen/studio/types"
)

// maxBodyBytes bounds request bodies. Reference images arrive inline as
// data URLs, so this is generous.
const maxBodyBytes = 32 << 20

type contextKey string

const contextSessionKey contextKey = "session"

// Session is the identity established by a valid token. Username is the
// account's current name, resolved from UserID on every request.
type Session struct {
	UserID   string
	Username string
	Role     types.Role
}

func withSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextSessionKey, s)
}

func sessionFromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(contextSessionKey).(Session)
	if !ok || s.Username == "" {
		return Session{}, errors.New("missing session")
	}
	return s, nil
}

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error              string `json:"error"`
	CredentialRequired bool   `json:"credential_required,omitempty"`
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
