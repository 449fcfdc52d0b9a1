package models

import (
	"errors"
	"strings"
	"time"
)

type User struct {
	ID              string    `json:"id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	SmipayTag       *string   `json:"smipay_tag,omitempty"`
	ProfileImage    *string   `json:"profile_image,omitempty"`
	IsEmailVerified bool      `json:"is_email_verified"`
	IsPhoneVerified bool      `json:"is_phone_verified"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UserSummary is the non-sensitive projection returned by tag lookups.
type UserSummary struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	SmipayTag    string  `json:"smipay_tag"`
	ProfileImage *string `json:"profile_image"`
	IsVerified   bool    `json:"is_verified"`
}

func (u *User) Validate() error {
	if len(strings.TrimSpace(u.FirstName)) < 2 {
		return errors.New("first name too short")
	}
	if !strings.Contains(u.Email, "@") {
		return errors.New("invalid email")
	}
	return nil
}

func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) Summary() UserSummary {
	tag := ""
	if u.SmipayTag != nil {
		tag = *u.SmipayTag
	}
	return UserSummary{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.DisplayName(),
		SmipayTag:    tag,
		ProfileImage: u.ProfileImage,
		IsVerified:   u.IsEmailVerified && u.IsPhoneVerified,
	}
}

// NormalizeTag folds a smipay tag into its canonical form: tags are matched
// case-insensitively and stored lowercase.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
