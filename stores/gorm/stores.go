// Package gorm provides the GORM-based implementation of the
// secretshare UserStore. It supports any database GORM supports and is
// the backend for production deployments; the fs package covers
// development and tests.
package gorm

import (
	"errors"

	"gorm.io/gorm"

	ss "github.com/jamalk/secretshare"
)

// AutoMigrate runs database migrations for the users table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{})
}

// UserStore implements ss.UserStore using GORM
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(user *ss.User) error {
	if user.Username != "" {
		var count int64
		if err := s.db.Model(&UserModel{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ss.ErrUsernameTaken
		}
	}
	return s.db.Create(UserToModel(user)).Error
}

func (s *UserStore) GetUserById(userId string) (*ss.User, error) {
	return s.first("id = ?", userId)
}

func (s *UserStore) GetUserByUsername(username string) (*ss.User, error) {
	return s.first("username = ?", username)
}

func (s *UserStore) GetUserByProviderId(provider ss.Provider, providerID string) (*ss.User, error) {
	if providerID == "" {
		return nil, ss.ErrUserNotFound
	}
	switch provider {
	case ss.ProviderGoogle:
		return s.first("google_id = ?", providerID)
	case ss.ProviderFacebook:
		return s.first("facebook_id = ?", providerID)
	}
	return nil, ss.ErrUserNotFound
}

// SaveUser rewrites the whole row, secrets column included. There is
// no version check: concurrent saves of the same user are last write
// wins.
func (s *UserStore) SaveUser(user *ss.User) error {
	return s.db.Save(UserToModel(user)).Error
}

func (s *UserStore) ListUsersWithSecrets() ([]*ss.User, error) {
	var models []UserModel
	err := s.db.
		Where("secrets IS NOT NULL AND secrets::text <> '[]'").
		Order("created_at").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	users := make([]*ss.User, 0, len(models))
	for i := range models {
		if len(models[i].Secrets) > 0 {
			users = append(users, models[i].ToUser())
		}
	}
	return users, nil
}

func (s *UserStore) first(query string, arg any) (*ss.User, error) {
	var model UserModel
	if err := s.db.First(&model, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ss.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}
