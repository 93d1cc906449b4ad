package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	CookieEnv    = "WBVIDEO_COOKIE"
	UserAgentEnv = "WBVIDEO_USER_AGENT"
)

// EnvironmentStore exposes WBVIDEO_COOKIE as a read-only account
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// EnvAccountName names the account backed by the environment
const EnvAccountName = "env"

// Retrieve returns the environment session for name "" or "env"
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	if name != "" && name != EnvAccountName {
		return nil, ErrCredentialsNotFound
	}
	cookie := NormalizeCookie(os.Getenv(CookieEnv))
	if cookie == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Name:         EnvAccountName,
		Cookie:       cookie,
		UserAgent:    os.Getenv(UserAgentEnv),
		LastModified: time.Now(),
	}, nil
}

// List returns nothing; the environment session is not a saved account
func (e *EnvironmentStore) List() ([]*Account, error) {
	return []*Account{}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists reports whether WBVIDEO_COOKIE is set
func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
