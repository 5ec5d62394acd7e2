package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bounds enforced on claim submission and edits.
const (
	ClaimContentMinLength = 10
	ClaimContentMaxLength = 5000
	ClaimRatingMin        = 1
	ClaimRatingMax        = 5
)

// Claim is a user-submitted assertion of AI-generated content on a source,
// rated by impact (severity) and confidence (certainty), both 1-5. Vote
// counters are denormalized onto the row; claim_votes holds the per-user
// record. Soft-deleted claims stay in the table but are excluded from
// aggregation.
type Claim struct {
	ID       uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	SourceID uuid.UUID `json:"source_id" db:"source_id" gorm:"type:uuid;not null;index"`
	UserID   uuid.UUID `json:"user_id" db:"user_id" gorm:"type:uuid;not null;index"`

	Content    string `json:"content" db:"content" gorm:"type:text;not null"`
	Impact     int    `json:"impact" db:"impact" gorm:"not null"`
	Confidence int    `json:"confidence" db:"confidence" gorm:"not null"`

	HelpfulVotes    int `json:"helpful_votes" db:"helpful_votes" gorm:"not null;default:0"`
	NotHelpfulVotes int `json:"not_helpful_votes" db:"not_helpful_votes" gorm:"not null;default:0"`

	ContentUpdatedAt *time.Time     `json:"content_updated_at" db:"content_updated_at"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt        gorm.DeletedAt `json:"-" db:"deleted_at" gorm:"index"`

	// Relationships
	Source Source      `json:"source,omitempty" gorm:"foreignKey:SourceID;references:ID"`
	User   User        `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
	Votes  []ClaimVote `json:"votes,omitempty" gorm:"foreignKey:ClaimID"`
}

// TableName sets the table name for the Claim model
func (Claim) TableName() string {
	return "claims"
}
