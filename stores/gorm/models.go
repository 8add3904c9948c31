package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	ss "github.com/jamalk/secretshare"
)

// StringSlice is a helper type for storing string slices in GORM
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return fmt.Errorf("unsupported type %T for secrets column", value)
}

// UserModel is the GORM model for users. The identifying columns are
// nullable so the unique indexes only bind among present values: a
// Google-only user has no username row to collide on.
type UserModel struct {
	ID           string      `gorm:"primaryKey;size:64"`
	Username     *string     `gorm:"size:255;uniqueIndex"`
	PasswordHash *string     `gorm:"size:255"`
	GoogleID     *string     `gorm:"size:255;uniqueIndex"`
	FacebookID   *string     `gorm:"size:255;uniqueIndex"`
	DisplayName  *string     `gorm:"size:255"`
	Picture      *string     `gorm:"size:1024"`
	Secrets      StringSlice `gorm:"type:jsonb"`
	CreatedAt    time.Time   `gorm:"autoCreateTime"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *ss.User {
	return &ss.User{
		ID:           m.ID,
		Username:     deref(m.Username),
		PasswordHash: deref(m.PasswordHash),
		GoogleID:     deref(m.GoogleID),
		FacebookID:   deref(m.FacebookID),
		DisplayName:  deref(m.DisplayName),
		Picture:      deref(m.Picture),
		Secrets:      []string(m.Secrets),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func UserToModel(u *ss.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Username:     optional(u.Username),
		PasswordHash: optional(u.PasswordHash),
		GoogleID:     optional(u.GoogleID),
		FacebookID:   optional(u.FacebookID),
		DisplayName:  optional(u.DisplayName),
		Picture:      optional(u.Picture),
		Secrets:      StringSlice(u.Secrets),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
