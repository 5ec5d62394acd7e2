package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Approval states for a source.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// MaxSourceDepth is the deepest level a source may live at (root = 0).
const MaxSourceDepth = 5

// Source represents a node in the content hierarchy (platform, subreddit,
// channel, user, ...). Path is the materialized path: the dotted chain of
// ids from the root down to and including this source, so Depth is always
// len(path segments) - 1.
type Source struct {
	ID          uuid.UUID  `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	Slug        string     `json:"slug" db:"slug" gorm:"not null;uniqueIndex:idx_sources_parent_slug"`
	Name        string     `json:"name" db:"name" gorm:"not null"`
	Type        string     `json:"type" db:"type" gorm:"index"`
	Description string     `json:"description" db:"description" gorm:"type:text"`
	URL         string     `json:"url" db:"url"`
	ParentID    *uuid.UUID `json:"parent_id" db:"parent_id" gorm:"type:uuid;uniqueIndex:idx_sources_parent_slug;index"`
	Path        string     `json:"path" db:"path" gorm:"not null;index"`
	Depth       int        `json:"depth" db:"depth" gorm:"not null;default:0"`

	ApprovalStatus string         `json:"approval_status" db:"approval_status" gorm:"default:approved;index"`
	CreatedBy      uuid.UUID      `json:"created_by" db:"created_by" gorm:"type:uuid"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `json:"-" db:"deleted_at" gorm:"index"`

	// Relationships
	Parent     *Source           `json:"parent,omitempty" gorm:"foreignKey:ParentID;references:ID"`
	Claims     []Claim           `json:"claims,omitempty" gorm:"foreignKey:SourceID"`
	ScoreCache *SourceScoreCache `json:"score_cache,omitempty" gorm:"foreignKey:SourceID"`
}

// TableName sets the table name for the Source model
func (Source) TableName() string {
	return "sources"
}

// PathIDs splits the materialized path into its ids, root first.
// Malformed segments are skipped rather than failing the whole chain.
func (s *Source) PathIDs() []uuid.UUID {
	segments := strings.Split(s.Path, ".")
	ids := make([]uuid.UUID, 0, len(segments))
	for _, segment := range segments {
		id, err := uuid.Parse(segment)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
