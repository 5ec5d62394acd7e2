package models

import (
	"time"

	"github.com/google/uuid"
)

// Path types recorded in source_ancestor_paths.
const (
	PathTypeSelf     = "self"
	PathTypeAncestor = "ancestor"
)

// SourceAncestorPath is a secondary index over the materialized path: one
// row per (source, ancestor) pair, self-row included, so ancestor and
// descendant lookups never need recursive traversal.
type SourceAncestorPath struct {
	ID         uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid"`
	SourceID   uuid.UUID `json:"source_id" db:"source_id" gorm:"type:uuid;not null;uniqueIndex:idx_ancestor_paths_pair"`
	AncestorID uuid.UUID `json:"ancestor_id" db:"ancestor_id" gorm:"type:uuid;not null;uniqueIndex:idx_ancestor_paths_pair;index"`
	Path       string    `json:"path" db:"path" gorm:"not null"`
	PathType   string    `json:"path_type" db:"path_type" gorm:"not null"`
	Depth      int       `json:"depth" db:"depth" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`

	// Relationships
	Source   Source `json:"source,omitempty" gorm:"foreignKey:SourceID;references:ID"`
	Ancestor Source `json:"ancestor,omitempty" gorm:"foreignKey:AncestorID;references:ID"`
}

// TableName sets the table name for the SourceAncestorPath model
func (SourceAncestorPath) TableName() string {
	return "source_ancestor_paths"
}
