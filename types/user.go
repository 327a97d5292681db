package types

import "time"

// Status is the account state of a user.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Subscription is the informational plan tier of a user.
type Subscription string

const (
	SubscriptionFree      Subscription = "free"
	SubscriptionCreator   Subscription = "creator"
	SubscriptionVisionary Subscription = "visionary"
)

// Valid reports whether s is a known tier.
func (s Subscription) Valid() bool {
	switch s {
	case SubscriptionFree, SubscriptionCreator, SubscriptionVisionary:
		return true
	}
	return false
}

// Role is the identity kind established at login.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User represents one registered account as persisted in the slot.
type User struct {
	// ID is assigned at registration and never changes, even on rename.
	// Session tokens carry it instead of the username.
	ID string `json:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username"`

	// Email is unique across all accounts and doubles as a login identifier.
	Email string `json:"email"`

	// Password holds the stored credential as produced by the configured
	// password hasher. It is never exposed in API responses.
	Password string `json:"password"`

	// JoinedAt is set once at registration.
	JoinedAt time.Time `json:"joinedAt"`

	// Status is active unless an administrator suspended the account.
	Status Status `json:"status"`

	// History holds the most recent generated images, newest first.
	History []GeneratedImage `json:"history"`

	// Subscription is the plan tier, free by default.
	Subscription Subscription `json:"subscription,omitempty"`
}

// UserView is the public projection of a User.
type UserView struct {
	ID           string           `json:"id"`
	Username     string           `json:"username"`
	Email        string           `json:"email"`
	JoinedAt     time.Time        `json:"joinedAt"`
	Status       Status           `json:"status"`
	History      []GeneratedImage `json:"history"`
	Subscription Subscription     `json:"subscription"`
}

// View strips the credential from u.
func (u User) View() UserView {
	sub := u.Subscription
	if sub == "" {
		sub = SubscriptionFree
	}
	history := u.History
	if history == nil {
		history = []GeneratedImage{}
	}
	return UserView{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		JoinedAt:     u.JoinedAt,
		Status:       u.Status,
		History:      history,
		Subscription: sub,
	}
}

// Views projects a slice of users.
func Views(users []User) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, u.View())
	}
	return out
}
