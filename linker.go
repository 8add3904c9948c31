package secretshare

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// OAuthProfile is what a provider callback hands us about an identity.
type OAuthProfile struct {
	ProviderID  string
	DisplayName string
	Picture     string
}

// EnsureOAuthUser exchanges a provider-issued identity for a local user
// record, creating one on first sight. Lookup is by provider id only:
// repeated callbacks with the same id never create duplicates, but the
// same person arriving via a different provider gets a fresh record.
func EnsureOAuthUser(userStore UserStore, provider Provider, profile *OAuthProfile) (*User, error) {
	if provider != ProviderGoogle && provider != ProviderFacebook {
		return nil, fmt.Errorf("unknown oauth provider: %s", provider)
	}
	if profile == nil || profile.ProviderID == "" {
		return nil, fmt.Errorf("oauth profile has no provider id")
	}

	user, err := userStore.GetUserByProviderId(provider, profile.ProviderID)
	if err == nil {
		// Re-login is a no-op on the record.
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	user = &User{
		ID:          uuid.NewString(),
		DisplayName: profile.DisplayName,
		Picture:     profile.Picture,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	user.SetProviderID(provider, profile.ProviderID)

	if err := userStore.CreateUser(user); err != nil {
		return nil, err
	}
	log.Printf("Created %s user %s", provider, user.ID)
	return user, nil
}
