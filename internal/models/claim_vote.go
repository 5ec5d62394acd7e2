package models

import (
	"time"

	"github.com/google/uuid"
)

// ClaimVote records one user's helpful/not-helpful verdict on a claim.
// The composite primary key guarantees at most one vote per user per claim;
// changing a vote updates this row and the counters on the claim.
type ClaimVote struct {
	ClaimID   uuid.UUID `json:"claim_id" db:"claim_id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"user_id" db:"user_id" gorm:"primaryKey;type:uuid"`
	IsHelpful bool      `json:"is_helpful" db:"is_helpful" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Claim Claim `json:"claim,omitempty" gorm:"foreignKey:ClaimID;references:ID"`
	User  User  `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
}

// TableName sets the table name for the ClaimVote model
func (ClaimVote) TableName() string {
	return "claim_votes"
}
