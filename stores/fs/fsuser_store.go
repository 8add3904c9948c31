// Package fs provides a filesystem-backed UserStore storing each user
// as a JSON file. It is suitable for development setups and tests; the
// gorm backend is the production store.
//
// # File Structure
//
//	{StoragePath}/
//	└── users/
//	    ├── <user-id>.json
//	    └── ...
//
// Lookups by username or provider id scan the users directory, which
// is fine at the collection sizes this backend is meant for. Writes
// are atomic (temp file + rename) but the store offers no locking
// around read-modify-write cycles: concurrent saves of the same user
// are last-write-wins, like the production backend.
package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ss "github.com/jamalk/secretshare"
)

// FSUserStore stores users as JSON files
type FSUserStore struct {
	StoragePath string
}

func NewFSUserStore(storagePath string) *FSUserStore {
	return &FSUserStore{StoragePath: storagePath}
}

func (s *FSUserStore) getUserPath(userId string) string {
	return filepath.Join(s.StoragePath, "users", userId+".json")
}

func (s *FSUserStore) CreateUser(user *ss.User) error {
	if user.Username != "" {
		if _, err := s.GetUserByUsername(user.Username); err == nil {
			return ss.ErrUsernameTaken
		}
	}
	return s.SaveUser(user)
}

func (s *FSUserStore) GetUserById(userId string) (*ss.User, error) {
	path := s.getUserPath(userId)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ss.ErrUserNotFound
		}
		return nil, err
	}

	var user ss.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *FSUserStore) GetUserByUsername(username string) (*ss.User, error) {
	return s.findUser(func(u *ss.User) bool {
		return u.Username != "" && u.Username == username
	})
}

func (s *FSUserStore) GetUserByProviderId(provider ss.Provider, providerID string) (*ss.User, error) {
	if providerID == "" {
		return nil, ss.ErrUserNotFound
	}
	return s.findUser(func(u *ss.User) bool {
		return u.ProviderID(provider) == providerID
	})
}

func (s *FSUserStore) SaveUser(user *ss.User) error {
	user.UpdatedAt = time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = user.UpdatedAt
	}

	path := s.getUserPath(user.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(path, data)
}

func (s *FSUserStore) ListUsersWithSecrets() ([]*ss.User, error) {
	users, err := s.listUsers()
	if err != nil {
		return nil, err
	}

	var out []*ss.User
	for _, u := range users {
		if len(u.Secrets) > 0 {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *FSUserStore) findUser(match func(*ss.User) bool) (*ss.User, error) {
	users, err := s.listUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if match(u) {
			return u, nil
		}
	}
	return nil, ss.ErrUserNotFound
}

// listUsers reads every user file, in stable filename order.
func (s *FSUserStore) listUsers() ([]*ss.User, error) {
	dir := filepath.Join(s.StoragePath, "users")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	users := make([]*ss.User, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var user ss.User
		if err := json.Unmarshal(data, &user); err != nil {
			return nil, fmt.Errorf("corrupt user file %s: %w", name, err)
		}
		users = append(users, &user)
	}
	return users, nil
}
