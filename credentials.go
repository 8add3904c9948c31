package secretshare

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Credentials represents a submitted username/password pair.
type Credentials struct {
	Username string
	Password string
}

// CredentialsValidator validates credentials during login and returns the user
type CredentialsValidator func(username, password string) (*User, error)

// CreateUserFunc creates a new local user with the given credentials
type CreateUserFunc func(creds *Credentials) (*User, error)

// NewCredentialsValidator creates a CredentialsValidator from a store.
//
// An unknown username and a wrong password both come back as
// ErrInvalidCredentials so callers cannot enumerate usernames. The
// mismatch itself is logged.
func NewCredentialsValidator(userStore UserStore) CredentialsValidator {
	return func(username, password string) (*User, error) {
		user, err := userStore.GetUserByUsername(username)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return nil, ErrInvalidCredentials
			}
			return nil, err
		}

		if user.PasswordHash == "" {
			return nil, ErrInvalidCredentials
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			log.Printf("password mismatch for user %s", user.ID)
			return nil, ErrInvalidCredentials
		}

		return user, nil
	}
}

// NewCreateUserFunc creates a CreateUserFunc from a store. Fails with
// ErrUsernameTaken when the username already exists; otherwise the new
// user gets a freshly hashed credential and a server-generated id.
func NewCreateUserFunc(userStore UserStore) CreateUserFunc {
	return func(creds *Credentials) (*User, error) {
		if _, err := userStore.GetUserByUsername(creds.Username); err == nil {
			return nil, ErrUsernameTaken
		} else if !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}

		user := &User{
			ID:           uuid.NewString(),
			Username:     creds.Username,
			PasswordHash: string(passwordHash),
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if err := userStore.CreateUser(user); err != nil {
			return nil, err
		}

		log.Printf("Created local user %s (%s)", user.ID, creds.Username)
		return user, nil
	}
}
