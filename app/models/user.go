package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a shopper account. Password is empty for accounts created through
// an external provider.
type User struct {
	ID         uint           `gorm:"primaryKey" json:"_id"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Name       string         `gorm:"size:255;not null" json:"name"`
	Email      string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password   string         `gorm:"size:255" json:"-"`
	GoogleID   string         `gorm:"size:255;index" json:"-"`
	IsVerified bool           `gorm:"not null;default:false" json:"isVerified"`

	// Only the SHA-256 digest of the emailed token is kept.
	VerificationTokenHash    string     `gorm:"size:64;index" json:"-"`
	VerificationTokenExpires *time.Time `json:"-"`

	CartData Cart `gorm:"type:text;serializer:json" json:"cartData"`
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool { return u.Password != "" }

// UserSummary is the non-sensitive view returned after registration.
type UserSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{Name: u.Name, Email: u.Email}
}

// EnsureCart returns the cart, allocating it for new or legacy rows.
func (u *User) EnsureCart() Cart {
	if u.CartData == nil {
		u.CartData = Cart{}
	}
	return u.CartData
}
