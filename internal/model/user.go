// Package model defines database models
package model

import "time"

type Role string

const (
	RoleAnonymous     Role = "ANONYMOUS"
	RoleAuthenticated Role = "AUTHENTICATED"
	RoleManager       Role = "MANAGER"
	RoleAdmin         Role = "ADMIN"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAnonymous, RoleAuthenticated, RoleManager, RoleAdmin:
		return true
	}

	return false
}

type User struct {
	ID                 string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email              string  `gorm:"uniqueIndex;not null" json:"email"`
	Nickname           string  `gorm:"uniqueIndex;not null" json:"nickname"`
	FirstName          *string `json:"first_name,omitempty"`
	LastName           *string `json:"last_name,omitempty"`
	Bio                *string `json:"bio,omitempty"`
	ProfilePictureURL  *string `json:"profile_picture_url,omitempty"`
	LinkedinProfileURL *string `json:"linkedin_profile_url,omitempty"`
	GithubProfileURL   *string `json:"github_profile_url,omitempty"`
	PasswordHash       string  `gorm:"not null" json:"-"`
	Role               Role    `gorm:"type:varchar(16);not null;default:ANONYMOUS" json:"role"`

	EmailVerified       bool    `gorm:"not null;default:false" json:"email_verified"`
	IsLocked            bool    `gorm:"not null;default:false" json:"is_locked"`
	FailedLoginAttempts int     `gorm:"not null;default:0" json:"-"`
	VerificationToken   *string `gorm:"index" json:"-"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	// Pagination relies on this being set once and never touched again
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// DisplayName is what emails greet the user with
func (u *User) DisplayName() string {
	if u.FirstName != nil && *u.FirstName != "" {
		return *u.FirstName
	}

	return u.Nickname
}
