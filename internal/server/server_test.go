package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nanogen/studio/internal/events"
	"github.com/nanogen/studio/internal/generation"
	"github.com/nanogen/studio/internal/prompt"
	"github.com/nanogen/studio/internal/services"
	"github.com/nanogen/studio/internal/slot"
	"github.com/nanogen/studio/internal/store"
	"github.com/nanogen/studio/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const testSecret = "test-secret"

type stubModels struct {
	err   error
	model string
}

func (s *stubModels) GenerateContent(_ context.Context, model string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.model = model
	if s.err != nil {
		return nil, s.err
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("png")}}}},
	}}}, nil
}

type apiFixture struct {
	server *httptest.Server
	models *stubModels
	users  *store.UserStore
}

func newAPI(t *testing.T, withKey bool) apiFixture {
	t.Helper()
	users := store.NewUserStore(slot.NewMemory(), "", store.PlainHasher{}, nil)

	models := &stubModels{}
	var gen *generation.Client
	if withKey {
		gen = generation.NewWithGenerator(models, "", "", nil)
	} else {
		gen = generation.NewWithGenerator(nil, "", "", nil)
	}

	bus := events.New(events.NewLocal(nil), "")
	t.Cleanup(func() { _ = bus.Close() })

	svc := Services{
		Users:         services.NewUserService(users),
		Studio:        services.NewStudioService(users, prompt.NewComposer("", ""), gen, bus, nil),
		Subscriptions: services.NewSubscriptionService(users, nil),
	}
	srv := httptest.NewServer(NewRouter(svc, testSecret, ""))
	t.Cleanup(srv.Close)
	return apiFixture{server: srv, models: models, users: users}
}

func (f apiFixture) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type authResponse struct {
	Token string          `json:"token"`
	Role  types.Role      `json:"role"`
	User  *types.UserView `json:"user"`
}

type errorResponse struct {
	Error              string `json:"error"`
	CredentialRequired bool   `json:"credential_required"`
}

func (f apiFixture) signup(t *testing.T, username string) string {
	t.Helper()
	status := f.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username, "email": username + "@x.com", "password": "secret1", "confirm_password": "secret1",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var auth authResponse
	status = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"identifier": username, "password": "secret1"}, &auth)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, auth.Token)
	return auth.Token
}

func (f apiFixture) adminToken(t *testing.T) string {
	t.Helper()
	var auth authResponse
	status := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"identifier": store.AdminEmail, "password": store.AdminPassword,
	}, &auth)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, types.RoleAdmin, auth.Role)
	require.Nil(t, auth.User)
	return auth.Token
}

func TestHealthz(t *testing.T) {
	f := newAPI(t, true)
	var body map[string]string
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAuthFlow(t *testing.T) {
	f := newAPI(t, true)

	var e errorResponse
	status := f.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "secret1", "confirm_password": "secret2",
	}, &e)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Passwords do not match", e.Error)

	token := f.signup(t, "alice")

	status = f.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "email": "other@x.com", "password": "secret1", "confirm_password": "secret1",
	}, &e)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Username already taken", e.Error)

	status = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"identifier": "alice", "password": "nope"}, &e)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", e.Error)

	var me map[string]any
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/auth/me", token, nil, &me))
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, "free", me["subscription"])
	assert.NotContains(t, me, "password")

	var renamed authResponse
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPatch, "/auth/me", token, map[string]string{"username": "alicia"}, &renamed))
	assert.Equal(t, "alicia", renamed.User.Username)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/auth/me", token, nil, &me))
	assert.Equal(t, "alicia", me["username"])
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/auth/me", renamed.Token, nil, &me))
	assert.Equal(t, "alicia", me["username"])
	assert.Equal(t, renamed.User.ID, me["id"])
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/auth/me", "garbage", nil, &e))
}

func TestReusedUsernameDoesNotInheritSession(t *testing.T) {
	f := newAPI(t, true)
	token := f.signup(t, "alice")

	var renamed authResponse
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPatch, "/auth/me", token, map[string]string{"username": "alice2"}, &renamed))

	status := f.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "email": "other@x.com", "password": "stranger1", "confirm_password": "stranger1",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var me map[string]any
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/auth/me", token, nil, &me))
	assert.Equal(t, "alice2", me["username"])
	assert.Equal(t, "alice@x.com", me["email"])

	require.Equal(t, http.StatusOK, f.do(t, http.MethodPatch, "/auth/me", token, map[string]string{"password": "hijack1"}, nil))
	var auth authResponse
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"identifier": "alice", "password": "stranger1"}, &auth))
	assert.Equal(t, "other@x.com", auth.User.Email)

	// Once the original account is gone its token resolves to nobody.
	admin := f.adminToken(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/admin/users/alice2", admin, nil, nil))
	var e errorResponse
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/auth/me", token, nil, &e))
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/studio/history", token, nil, &e))

	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/auth/me", auth.Token, nil, &me))
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, "other@x.com", me["email"])
}

func TestSuspendedLogin(t *testing.T) {
	f := newAPI(t, true)
	f.signup(t, "bob")
	admin := f.adminToken(t)

	var users []types.UserView
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/admin/users/bob/toggle-status", admin, nil, &users))
	require.Len(t, users, 1)
	assert.Equal(t, types.StatusSuspended, users[0].Status)

	var e errorResponse
	status := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"identifier": "bob@x.com", "password": "secret1"}, &e)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Account Suspended. Contact Admin.", e.Error)
}

func TestStudioGenerateAndHistory(t *testing.T) {
	f := newAPI(t, true)
	token := f.signup(t, "carol")

	var img types.GeneratedImage
	status := f.do(t, http.MethodPost, "/studio/generate", token, map[string]any{
		"prompt": "a lighthouse", "style": "Watercolor", "aspect_ratio": "1:1", "resolution": "8K",
	}, &img)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "data:image/png;base64,cG5n", img.URL)
	assert.Equal(t, types.Resolution8K, img.Resolution)
	assert.Contains(t, img.Prompt, "in the style of Watercolor")
	assert.Equal(t, prompt.DefaultProModel, f.models.model)

	var up types.GeneratedImage
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/studio/history/"+img.ID+"/upscale", token, nil, &up))
	assert.Equal(t, img.Prompt+" (4K)", up.Prompt)

	var clean types.GeneratedImage
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/studio/history/"+img.ID+"/remove-background", token, nil, &clean))
	assert.Equal(t, img.Prompt+" (Clean)", clean.Prompt)

	var history []types.GeneratedImage
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/studio/history", token, nil, &history))
	assert.Len(t, history, 3)

	var e errorResponse
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/studio/history/nope/upscale", token, nil, &e))
	assert.Equal(t, "Image not found", e.Error)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/studio/history", token, nil, nil))
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/studio/history", token, nil, &history))
	assert.Empty(t, history)
}

func TestStudioErrors(t *testing.T) {
	f := newAPI(t, false)
	token := f.signup(t, "dave")

	var e errorResponse
	status := f.do(t, http.MethodPost, "/studio/generate", token, map[string]any{"prompt": "x", "resolution": "2K"}, &e)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.True(t, e.CredentialRequired)

	status = f.do(t, http.MethodPost, "/studio/generate", token, map[string]any{"prompt": "x", "style": "Baroque"}, &e)
	assert.Equal(t, http.StatusBadRequest, status)

	status = f.do(t, http.MethodPost, "/studio/generate", token, map[string]any{"prompt": ""}, &e)
	assert.Equal(t, http.StatusBadRequest, status)

	admin := f.adminToken(t)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/studio/generate", admin, map[string]any{"prompt": "x"}, &e))
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/studio/history", "", nil, &e))
}

func TestStudioRemoteFailureSurfacesMessage(t *testing.T) {
	f := newAPI(t, true)
	token := f.signup(t, "erin")
	f.models.err = assert.AnError

	var e errorResponse
	status := f.do(t, http.MethodPost, "/studio/generate", token, map[string]any{"prompt": "x"}, &e)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, assert.AnError.Error(), e.Error)
}

func TestStudioHelpers(t *testing.T) {
	f := newAPI(t, false)
	token := f.signup(t, "frank")

	var opts map[string]any
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/studio/options", token, nil, &opts))
	assert.Equal(t, false, opts["credential_configured"])
	assert.Len(t, opts["resolutions"], 4)

	var sugg struct {
		Suggestions []string `json:"suggestions"`
		Applied     string   `json:"applied"`
	}
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/studio/suggestions?prompt=a+cat+with+soft+bokeh+bo", token, nil, &sugg))
	assert.Equal(t, []string{"bokeh background"}, sugg.Suggestions)
	assert.Empty(t, sugg.Applied)

	var applied struct {
		Suggestions []string `json:"suggestions"`
		Applied     string   `json:"applied"`
	}
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/studio/suggestions?prompt=a+fox+in+ethe&apply=ethereal+glow", token, nil, &applied))
	assert.Equal(t, "a fox in ethereal glow, ", applied.Applied)
	assert.Empty(t, applied.Suggestions)
}

func TestAdminEndpoints(t *testing.T) {
	f := newAPI(t, true)
	userToken := f.signup(t, "gina")
	f.signup(t, "hank")
	admin := f.adminToken(t)

	var e errorResponse
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/admin/users", userToken, nil, &e))

	var users []types.UserView
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/admin/users?q=GIN", admin, nil, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "gina", users[0].Username)

	var stats store.Stats
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/admin/stats", admin, nil, &stats))
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 2, stats.ActiveUsers)

	require.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/admin/users/gina", admin, nil, &users))
	require.Len(t, users, 1)
	assert.Equal(t, "hank", users[0].Username)
}

func TestSubscriptionEndpoints(t *testing.T) {
	f := newAPI(t, true)
	token := f.signup(t, "ivy")

	var plans []services.Plan
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/subscription/plans", "", nil, &plans))
	require.Len(t, plans, 3)

	var user types.UserView
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/subscription/checkout", token, map[string]string{"plan": "creator", "method": "card"}, &user))
	assert.Equal(t, types.SubscriptionCreator, user.Subscription)

	var e errorResponse
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/subscription/checkout", token, map[string]string{"plan": "gold", "method": "card"}, &e))
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/subscription/checkout", "", map[string]string{"plan": "creator", "method": "card"}, &e))
}

func TestCORSPreflight(t *testing.T) {
	f := newAPI(t, true)
	req, err := http.NewRequest(http.MethodOptions, f.server.URL+"/auth/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
