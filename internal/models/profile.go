package models

import (
	"time"

	"github.com/google/uuid"
)

// UserPreferences holds the leisure categories a user cares about. A nil
// flag means "not set", which is different from an explicit false.
type UserPreferences struct {
	Museums     *bool `json:"museums"`
	Restaurants *bool `json:"restaurants"`
	Parks       *bool `json:"parks"`
	Bars        *bool `json:"bars"`
}

// IsEmpty reports whether no flag is set.
func (p UserPreferences) IsEmpty() bool {
	return p.Museums == nil && p.Restaurants == nil && p.Parks == nil && p.Bars == nil
}

type UserProfile struct {
	UserID       uuid.UUID       `json:"user_id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	ProfileImage string          `json:"profile_image"`
	Preferences  UserPreferences `json:"preferences"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type UpdateProfileRequest struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	ProfileImage *string `json:"profile_image"`
}

// Bool returns a pointer to b, for building preference updates.
func Bool(b bool) *bool {
	return &b
}
