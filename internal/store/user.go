package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nanogen/studio/internal/logging"
	"github.com/nanogen/studio/internal/slot"
	"github.com/nanogen/studio/types"
)

const (
	// HistoryLimit caps each user's history.
	HistoryLimit = 20

	// DegradedHistoryLimit is what every history is cut to when a write
	// overflows the slot quota.
	DegradedHistoryLimit = 5

	DefaultKey = "nanogen_users"
)

// The reserved administrative identity. It is never persisted.
const (
	AdminUsername = "admin"
	AdminEmail    = "info@admin.com"
	AdminPassword = "infoadminpaneldash"
)

// LoginResult is the outcome of a successful login. User is nil for the
// administrative identity.
type LoginResult struct {
	Role types.Role
	User *types.User
}

// UserPatch carries the fields to overwrite on Update. Nil and empty
// values are left untouched.
type UserPatch struct {
	Username     *string
	Email        *string
	Password     *string
	Status       *types.Status
	Subscription *types.Subscription
}

// Stats summarizes the collection for the admin dashboard.
type Stats struct {
	TotalUsers     int    `json:"total_users"`
	ActiveUsers    int    `json:"active_users"`
	SuspendedUsers int    `json:"suspended_users"`
	StorageBytes   int    `json:"storage_bytes"`
	StorageHuman   string `json:"storage_human"`
}

// UserStore owns the persisted list of accounts. Every operation loads the
// whole collection from the slot, applies one change, and writes the whole
// collection back while holding mu.
type UserStore struct {
	mu     sync.Mutex
	slot   slot.Slot
	key    string
	hasher PasswordHasher
	log    logging.Logger
	now    func() time.Time
	newID  func() string
}

// NewUserStore constructs a store over s. A nil hasher defaults to bcrypt
// and a nil logger discards output.
func NewUserStore(s slot.Slot, key string, hasher PasswordHasher, log logging.Logger) *UserStore {
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &UserStore{
		slot:   s,
		key:    key,
		hasher: hasher,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// List returns all records in persisted order. An unreadable slot lists
// as empty.
func (s *UserStore) List(ctx context.Context) []types.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load(ctx)
	if err != nil {
		s.log.Warn(ctx, "user slot unreadable, listing as empty", "key", s.key, "error", err)
		return []types.User{}
	}
	return users
}

// Get returns the record with the given username.
func (s *UserStore) Get(ctx context.Context, username string) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load(ctx)
	if err != nil {
		return types.User{}, err
	}
	idx := indexOf(users, username)
	if idx == -1 {
		return types.User{}, ErrUserNotFound
	}
	return users[idx], nil
}

// GetByID returns the record with the given immutable id.
func (s *UserStore) GetByID(ctx context.Context, id string) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load(ctx)
	if err != nil {
		return types.User{}, err
	}
	if id == "" {
		return types.User{}, ErrUserNotFound
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return types.User{}, ErrUserNotFound
}

// Search filters records whose username or email contains term,
// ignoring case. An empty term matches everything.
func (s *UserStore) Search(ctx context.Context, term string) []types.User {
	users := s.List(ctx)
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return users
	}
	out := make([]types.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Username), term) || strings.Contains(strings.ToLower(u.Email), term) {
			out = append(out, u)
		}
	}
	return out
}

func (s *UserStore) Register(ctx context.Context, username, email, password string) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return types.User{}, err
	}
	for _, u := range users {
		if u.Username == username {
			return types.User{}, ErrDuplicateUsername
		}
	}
	for _, u := range users {
		if u.Email == email {
			return types.User{}, ErrDuplicateEmail
		}
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := types.User{
		ID:           s.newID(),
		Username:     username,
		Email:        email,
		Password:     hashed,
		JoinedAt:     s.now().UTC(),
		Status:       types.StatusActive,
		History:      []types.GeneratedImage{},
		Subscription: types.SubscriptionFree,
	}
	users = append(users, user)
	if err := s.save(ctx, users); err != nil {
		return types.User{}, err
	}
	s.log.Info(ctx, "user registered", "username", username)
	return user, nil
}

// Login checks the administrative identity first, then scans the
// collection for a record matching identifier (username or email) and
// password. The first match wins. Records written before ids existed get
// one on their first login.
func (s *UserStore) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	if (identifier == AdminUsername || identifier == AdminEmail) && password == AdminPassword {
		return LoginResult{Role: types.RoleAdmin}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return LoginResult{}, err
	}
	for i := range users {
		if users[i].Username != identifier && users[i].Email != identifier {
			continue
		}
		if !s.hasher.Compare(users[i].Password, password) {
			continue
		}
		if users[i].Status == types.StatusSuspended {
			return LoginResult{}, ErrAccountSuspended
		}
		if users[i].ID == "" {
			users[i].ID = s.newID()
			if err := s.save(ctx, users); err != nil {
				return LoginResult{}, err
			}
		}
		u := users[i]
		return LoginResult{Role: types.RoleUser, User: &u}, nil
	}
	return LoginResult{}, ErrInvalidCredentials
}

// Update merges patch into the record named username and returns the
// updated record.
func (s *UserStore) Update(ctx context.Context, username string, patch UserPatch) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return types.User{}, err
	}
	idx := indexOf(users, username)
	if idx == -1 {
		return types.User{}, ErrUserNotFound
	}

	if v := nonEmpty(patch.Username); v != "" && v != username {
		if indexOf(users, v) != -1 {
			return types.User{}, ErrDuplicateUsername
		}
	}
	if v := nonEmpty(patch.Email); v != "" && v != users[idx].Email {
		for i, u := range users {
			if i != idx && u.Email == v {
				return types.User{}, ErrDuplicateEmail
			}
		}
	}

	user := users[idx]
	if v := nonEmpty(patch.Username); v != "" {
		user.Username = v
	}
	if v := nonEmpty(patch.Email); v != "" {
		user.Email = v
	}
	if v := nonEmpty(patch.Password); v != "" {
		hashed, err := s.hasher.Hash(v)
		if err != nil {
			return types.User{}, fmt.Errorf("hash password: %w", err)
		}
		user.Password = hashed
	}
	if patch.Status != nil {
		user.Status = *patch.Status
	}
	if patch.Subscription != nil {
		user.Subscription = *patch.Subscription
	}
	users[idx] = user

	if err := s.save(ctx, users); err != nil {
		return types.User{}, err
	}
	return users[idx], nil
}

// AppendHistory prepends image to the user's history, keeping the newest
// HistoryLimit entries. Unknown users are ignored.
func (s *UserStore) AppendHistory(ctx context.Context, username string, image types.GeneratedImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(users, username)
	if idx == -1 {
		return nil
	}

	history := make([]types.GeneratedImage, 0, len(users[idx].History)+1)
	history = append(history, image)
	history = append(history, users[idx].History...)
	if len(history) > HistoryLimit {
		history = history[:HistoryLimit]
	}
	users[idx].History = history
	return s.save(ctx, users)
}

// ClearHistory empties the user's history. Unknown users are ignored.
func (s *UserStore) ClearHistory(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(users, username)
	if idx == -1 {
		return nil
	}
	users[idx].History = []types.GeneratedImage{}
	return s.save(ctx, users)
}

// FindImage returns one entry from the user's history.
func (s *UserStore) FindImage(ctx context.Context, username, imageID string) (types.GeneratedImage, error) {
	user, err := s.Get(ctx, username)
	if err != nil {
		return types.GeneratedImage{}, err
	}
	for _, img := range user.History {
		if img.ID == imageID {
			return img, nil
		}
	}
	return types.GeneratedImage{}, ErrImageNotFound
}

// ToggleStatus flips the user between active and suspended and returns
// the resulting collection. Unknown users leave the collection untouched.
func (s *UserStore) ToggleStatus(ctx context.Context, username string) ([]types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(users, username)
	if idx == -1 {
		return users, nil
	}
	if users[idx].Status == types.StatusActive {
		users[idx].Status = types.StatusSuspended
	} else {
		users[idx].Status = types.StatusActive
	}
	if err := s.save(ctx, users); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user status toggled", "username", username, "status", users[idx].Status)
	return users, nil
}

// Delete removes the record with that username and returns the resulting
// collection.
func (s *UserStore) Delete(ctx context.Context, username string) ([]types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	kept := make([]types.User, 0, len(users))
	for _, u := range users {
		if u.Username != username {
			kept = append(kept, u)
		}
	}
	if err := s.save(ctx, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

func (s *UserStore) Stats(ctx context.Context) Stats {
	users := s.List(ctx)
	stats := Stats{TotalUsers: len(users)}
	for _, u := range users {
		if u.Status == types.StatusSuspended {
			stats.SuspendedUsers++
		} else {
			stats.ActiveUsers++
		}
	}
	data, err := json.Marshal(users)
	if err == nil {
		stats.StorageBytes = len(data)
	}
	stats.StorageHuman = HumanBytes(stats.StorageBytes)
	return stats
}

// HumanBytes formats n as B, KB or MB with two decimals.
func HumanBytes(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.2f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
	}
}

// load reads the collection. A missing or unparseable slot is an empty
// one. Any other read failure is returned so that a mutation never writes
// over records it could not see.
func (s *UserStore) load(ctx context.Context) ([]types.User, error) {
	data, err := s.slot.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, slot.ErrNotFound) {
			return []types.User{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	var users []types.User
	if err := json.Unmarshal(data, &users); err != nil {
		s.log.Warn(ctx, "user slot unparseable, treating as empty", "key", s.key, "error", err)
		return []types.User{}, nil
	}
	if users == nil {
		users = []types.User{}
	}
	return users, nil
}

// save writes the whole collection. On quota overflow every history is
// cut to DegradedHistoryLimit and the write is retried once; the retry's
// result is returned as-is.
func (s *UserStore) save(ctx context.Context, users []types.User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	err = s.slot.Save(ctx, s.key, data)
	if err == nil || !errors.Is(err, slot.ErrQuotaExceeded) {
		return err
	}

	args := []any{"key", s.key, "limit", DegradedHistoryLimit}
	if l, ok := s.slot.(interface{ MaxBytes() int }); ok {
		args = append(args, "max_bytes", l.MaxBytes())
	}
	s.log.Warn(ctx, "user slot full, truncating histories", args...)
	for i := range users {
		if len(users[i].History) > DegradedHistoryLimit {
			users[i].History = users[i].History[:DegradedHistoryLimit]
		}
	}
	data, err = json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return s.slot.Save(ctx, s.key, data)
}

func indexOf(users []types.User, username string) int {
	for i, u := range users {
		if u.Username == username {
			return i
		}
	}
	return -1
}

func nonEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
