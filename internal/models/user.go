package models

import (
	"strings"
	"time"
)

const DefaultProfilePicture = "https://cdn-icons-png.flaticon.com/512/149/149071.png"

// User represents an application user record.
type User struct {
	ID               string    `json:"id"`
	FullName         string    `json:"fullName"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Bio              string    `json:"bio"`
	ProfilePicture   string    `json:"profilePicture"`
	NativeLanguage   string    `json:"nativeLanguage"`
	LearningLanguage string    `json:"learningLanguage"`
	Location         string    `json:"location"`
	IsOnboarded      bool      `json:"isOnboarded"`
	Friends          []string  `json:"friends"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Sanitize returns a copy of the user without sensitive fields populated.
func (u User) Sanitize() User {
	u.PasswordHash = ""
	if u.Friends == nil {
		u.Friends = []string{}
	} else {
		u.Friends = append([]string(nil), u.Friends...)
	}
	return u
}

// ProfileUpdate lists the only fields onboarding may write. Empty values are
// left untouched.
type ProfileUpdate struct {
	FullName         string
	Bio              string
	Location         string
	NativeLanguage   string
	LearningLanguage string
	ProfilePicture   string
}

// Apply merges the non-empty fields of p into u and marks the user onboarded.
func (p ProfileUpdate) Apply(u *User, now time.Time) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}

	set(&u.FullName, p.FullName)
	set(&u.Bio, p.Bio)
	set(&u.Location, p.Location)
	set(&u.NativeLanguage, p.NativeLanguage)
	set(&u.LearningLanguage, p.LearningLanguage)
	set(&u.ProfilePicture, p.ProfilePicture)

	u.IsOnboarded = true
	u.UpdatedAt = now
}

// Values returns the non-empty fields keyed by their JSON names.
func (p ProfileUpdate) Values() map[string]string {
	values := make(map[string]string, 6)
	for key, v := range map[string]string{
		"fullName":         p.FullName,
		"bio":              p.Bio,
		"location":         p.Location,
		"nativeLanguage":   p.NativeLanguage,
		"learningLanguage": p.LearningLanguage,
		"profilePicture":   p.ProfilePicture,
	} {
		if v = strings.TrimSpace(v); v != "" {
			values[key] = v
		}
	}
	return values
}

// NormalizeEmail is the canonical form used for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
