package services

import (
	"context"
	"errors"
	"strings"

	"github.com/nanogen/studio/internal/store"
	"github.com/nanogen/studio/types"
)

const (
	minPasswordLength = 6
	// bcrypt refuses longer inputs.
	maxPasswordLength = 72
)

// ErrValidation matches every input validation failure from this package.
var ErrValidation = errors.New("validation failed")

type validationError string

func (e validationError) Error() string { return string(e) }

func (e validationError) Is(target error) bool { return target == ErrValidation }

var (
	ErrMissingFields     error = validationError("All fields are required")
	ErrPasswordMismatch  error = validationError("Passwords do not match")
	ErrPasswordTooShort  error = validationError("Password must be at least 6 characters")
	ErrPasswordTooLong   error = validationError("Password must be at most 72 bytes")
	ErrEmptyPrompt       error = validationError("Enter a prompt or attach a reference image")
	ErrInvalidPlan       error = validationError("Unknown subscription plan")
	ErrInvalidPayMethod  error = validationError("Payment method must be card or qr")
	ErrInvalidIdentifier error = validationError("Identifier and password are required")
)

// UserRepository is the record store the user use-cases run against.
type UserRepository interface {
	List(ctx context.Context) []types.User
	Get(ctx context.Context, username string) (types.User, error)
	GetByID(ctx context.Context, id string) (types.User, error)
	Search(ctx context.Context, term string) []types.User
	Register(ctx context.Context, username, email, password string) (types.User, error)
	Login(ctx context.Context, identifier, password string) (store.LoginResult, error)
	Update(ctx context.Context, username string, patch store.UserPatch) (types.User, error)
	ClearHistory(ctx context.Context, username string) error
	ToggleStatus(ctx context.Context, username string) ([]types.User, error)
	Delete(ctx context.Context, username string) ([]types.User, error)
	Stats(ctx context.Context) store.Stats
}

// RegisterInput is the signup form.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// ProfileInput carries optional profile changes. Empty values are kept.
type ProfileInput struct {
	Username string
	Email    string
	Password string
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register validates the signup form and creates an active free account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return types.User{}, ErrMissingFields
	}
	if in.Password != in.ConfirmPassword {
		return types.User{}, ErrPasswordMismatch
	}
	if err := checkPasswordLength(in.Password); err != nil {
		return types.User{}, err
	}
	return s.repo.Register(ctx, in.Username, in.Email, in.Password)
}

func (s *UserService) Login(ctx context.Context, identifier, password string) (store.LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return store.LoginResult{}, ErrInvalidIdentifier
	}
	return s.repo.Login(ctx, identifier, password)
}

func (s *UserService) Get(ctx context.Context, username string) (types.User, error) {
	return s.repo.Get(ctx, username)
}

// GetByID resolves a session subject to the current record.
func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile applies self-service changes. Status and plan are not
// editable here.
func (s *UserService) UpdateProfile(ctx context.Context, username string, in ProfileInput) (types.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Password != "" {
		if err := checkPasswordLength(in.Password); err != nil {
			return types.User{}, err
		}
	}
	return s.repo.Update(ctx, username, store.UserPatch{
		Username: &in.Username,
		Email:    &in.Email,
		Password: &in.Password,
	})
}

func (s *UserService) ClearHistory(ctx context.Context, username string) error {
	return s.repo.ClearHistory(ctx, username)
}

// Search lists accounts for the admin dashboard.
func (s *UserService) Search(ctx context.Context, term string) []types.User {
	return s.repo.Search(ctx, term)
}

func (s *UserService) Stats(ctx context.Context) store.Stats {
	return s.repo.Stats(ctx)
}

func (s *UserService) ToggleStatus(ctx context.Context, username string) ([]types.User, error) {
	return s.repo.ToggleStatus(ctx, username)
}

func (s *UserService) Delete(ctx context.Context, username string) ([]types.User, error) {
	return s.repo.Delete(ctx, username)
}

func checkPasswordLength(password string) error {
	switch {
	case len(password) < minPasswordLength:
		return ErrPasswordTooShort
	case len(password) > maxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}

// List returns every account in persisted order.
func (s *UserService) List(ctx context.Context) []types.User {
	return s.repo.List(ctx)
}
