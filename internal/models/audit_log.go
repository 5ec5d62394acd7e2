package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions written by moderation paths.
const (
	AuditClaimDeleted   = "claim_deleted"
	AuditSourceDeleted  = "source_deleted"
	AuditSourceApproved = "source_approved"
	AuditSourceRejected = "source_rejected"
)

// AuditLog is an append-only record of moderation actions. The core only
// writes entries; reading them back is left to the moderation UI.
type AuditLog struct {
	ID         uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	ActorID    uuid.UUID `json:"actor_id" db:"actor_id" gorm:"type:uuid;not null;index"`
	Action     string    `json:"action" db:"action" gorm:"not null"`
	TargetType string    `json:"target_type" db:"target_type" gorm:"not null"`
	TargetID   uuid.UUID `json:"target_id" db:"target_id" gorm:"type:uuid;not null;index"`
	Reason     string    `json:"reason" db:"reason" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
}

// TableName sets the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
