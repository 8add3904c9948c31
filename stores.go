package secretshare

import (
	"errors"
	"time"
)

// Provider identifies how a user authenticates. Local users carry a
// bcrypt password hash, OAuth users carry the provider's stable id.
type Provider string

const (
	ProviderLocal    Provider = "local"
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
)

// DefaultPicture is served when a user has no avatar of their own.
const DefaultPicture = "/static/images/defaultPic.jpg"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is one record per distinct identity. A user is reachable by a
// local credential login, a Google id or a Facebook id; nothing in this
// app unifies records across providers, so the same human signing in
// through two providers ends up with two records.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username,omitempty"`
	PasswordHash string    `json:"password_hash,omitempty"`
	GoogleID     string    `json:"google_id,omitempty"`
	FacebookID   string    `json:"facebook_id,omitempty"`
	DisplayName  string    `json:"display_name,omitempty"`
	Picture      string    `json:"picture,omitempty"`
	Secrets      []string  `json:"secrets,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayLabel returns the name shown next to a user's secrets,
// falling back to the username for local accounts.
func (u *User) DisplayLabel() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Avatar returns the user's picture URL or the default asset.
func (u *User) Avatar() string {
	if u.Picture != "" {
		return u.Picture
	}
	return DefaultPicture
}

// ProviderID returns the external id stored for the given provider.
func (u *User) ProviderID(provider Provider) string {
	switch provider {
	case ProviderGoogle:
		return u.GoogleID
	case ProviderFacebook:
		return u.FacebookID
	}
	return ""
}

// SetProviderID records the external id for the given provider.
func (u *User) SetProviderID(provider Provider, providerID string) {
	switch provider {
	case ProviderGoogle:
		u.GoogleID = providerID
	case ProviderFacebook:
		u.FacebookID = providerID
	}
}

// UserStore manages the single persisted collection of this app.
//
// Lookup methods return ErrUserNotFound when no record matches so
// callers can tell an absent user from a backend failure. SaveUser is
// an upsert at document granularity: the whole record, secrets
// included, is rewritten on every save (last write wins - see the
// concurrency notes on AppendSecret/DeleteSecretAt).
type UserStore interface {
	// CreateUser persists a new user. Fails with ErrUsernameTaken if the
	// username is already reserved by another record.
	CreateUser(user *User) error

	// GetUserById retrieves a user by their id.
	GetUserById(userId string) (*User, error)

	// GetUserByUsername retrieves a local-credential user by username.
	GetUserByUsername(username string) (*User, error)

	// GetUserByProviderId retrieves a user by an external provider id.
	GetUserByProviderId(provider Provider, providerID string) (*User, error)

	// SaveUser creates or updates a user (upsert).
	SaveUser(user *User) error

	// ListUsersWithSecrets returns every user whose secrets list is
	// non-empty, for the public listing.
	ListUsersWithSecrets() ([]*User, error)
}
