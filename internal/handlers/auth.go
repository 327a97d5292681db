package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nanogen/studio/internal/services"
	"github.com/nanogen/studio/internal/store"
	"github.com/nanogen/studio/types"
)

const defaultTokenTTL = 24 * time.Hour

// AuthHandler provides JWT authentication endpoints.
type AuthHandler struct {
	userService *services.UserService
	secret      []byte
	tokenTTL    time.Duration
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		secret:      []byte(jwtSecret),
		tokenTTL:    defaultTokenTTL,
	}
}

// SessionResolver maps a token subject to the account it was issued for.
type SessionResolver interface {
	GetByID(ctx context.Context, id string) (types.User, error)
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, jwtSecret string) {
	handler := NewAuthHandler(userService, jwtSecret)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(handler.RequireAuth, RequireRole(types.RoleUser))
		r.Get("/me", handler.Me)
		r.Patch("/me", handler.UpdateMe)
	})
}

// RequireAuth enforces JWT authentication and injects the session into context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return requireAuth(h.secret, h.userService)(next)
}

// RequireAuth constructs auth middleware for other routers. User tokens are
// checked against users, so a deleted account's token stops working.
func RequireAuth(jwtSecret string, users SessionResolver) func(http.Handler) http.Handler {
	return requireAuth([]byte(jwtSecret), users)
}

func requireAuth(secret []byte, users SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			session, err := parseToken(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if session.Role == types.RoleUser {
				user, err := users.GetByID(r.Context(), session.UserID)
				if err != nil {
					if errors.Is(err, store.ErrUserNotFound) {
						writeError(w, http.StatusUnauthorized, "unauthorized")
						return
					}
					writeServiceError(w, err, "failed to load session")
					return
				}
				session.Username = user.Username
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
		})
	}
}

// RequireRole rejects sessions of any other role. It must run after
// RequireAuth.
func RequireRole(role types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := sessionFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if session.Role != role {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Register creates a new account. The client logs in afterwards.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.userService.Register(r.Context(), services.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeServiceError(w, err, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, user.View())
}

// Login verifies credentials and returns a JWT carrying the role.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.userService.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeServiceError(w, err, "failed to authenticate")
		return
	}

	subject := store.AdminUsername
	var view *types.UserView
	if result.User != nil {
		subject = result.User.ID
		v := result.User.View()
		view = &v
	}

	token, err := issueToken(subject, result.Role, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, Role: result.Role, User: view})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.Get(r.Context(), session.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user.View())
}

// UpdateMe edits the profile and returns a fresh token.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), session.Username, services.ProfileInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, err, "failed to update profile")
		return
	}

	token, err := issueToken(user.ID, types.RoleUser, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	view := user.View()
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, Role: types.RoleUser, User: &view})
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest accepts a username or an email as identifier.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type ProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the session token. User is omitted for the admin.
type AuthResponse struct {
	Token string          `json:"token"`
	Role  types.Role      `json:"role"`
	User  *types.UserView `json:"user,omitempty"`
}

type sessionClaims struct {
	Role types.Role `json:"role"`
	jwt.RegisteredClaims
}

// issueToken signs a session for subject, which is the user id or
// store.AdminUsername for the admin.
func issueToken(subject string, role types.Role, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseToken(tokenString string, secret []byte) (Session, error) {
	claims := sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return Session{}, err
	}
	if !token.Valid {
		return Session{}, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Session{}, errors.New("missing subject")
	}
	if claims.Role != types.RoleAdmin && claims.Role != types.RoleUser {
		return Session{}, errors.New("invalid role")
	}
	if claims.Role == types.RoleAdmin {
		if claims.Subject != store.AdminUsername {
			return Session{}, errors.New("invalid subject")
		}
		return Session{UserID: claims.Subject, Username: store.AdminUsername, Role: claims.Role}, nil
	}
	return Session{UserID: claims.Subject, Role: claims.Role}, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
