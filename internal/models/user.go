package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a community member. Identity and email verification come
// from the external auth provider; only the flags the core needs are kept
// here.
type User struct {
	ID            uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Handle        string    `json:"handle" db:"handle" gorm:"uniqueIndex;not null"`
	DisplayName   string    `json:"display_name" db:"display_name"`
	Email         string    `json:"email" db:"email" gorm:"uniqueIndex"`
	EmailVerified bool      `json:"email_verified" db:"email_verified" gorm:"default:false"`
	IsModerator   bool      `json:"is_moderator" db:"is_moderator" gorm:"default:false"`
	IsActive      bool      `json:"is_active" db:"is_active" gorm:"default:true"`
	CreatedAt     time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Claims []Claim `json:"claims,omitempty" gorm:"foreignKey:UserID"`
}

// TableName sets the table name for the User model
func (User) TableName() string {
	return "users"
}
