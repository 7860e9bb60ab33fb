// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered account. Email is the login identifier.
// Accounts start inactive and are switched on by the activation link.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	FullName  string    `json:"full_name"`
	Bio       string    `gorm:"type:text" json:"bio"`
	Avatar    string    `json:"avatar"`
	IsActive  bool      `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Posts []Post `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"posts,omitempty"`
	Likes []Like `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// HasCompleteProfile reports whether the user filled in enough profile data
// to skip the post-activation profile editing step.
func (u *User) HasCompleteProfile() bool {
	return u.FullName != "" || u.Avatar != ""
}
