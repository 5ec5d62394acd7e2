package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceScoreCache holds the last computed consensus score for a source,
// at most one row per source. A row is stale when RecalculationRequestedAt
// is set and either nothing has been calculated yet or the request is newer
// than the last calculation. A source with no row is unrated.
type SourceScoreCache struct {
	SourceID        uuid.UUID `json:"source_id" db:"source_id" gorm:"primaryKey;type:uuid"`
	Tier            *int      `json:"tier" db:"tier"`
	RawScore        float64   `json:"raw_score" db:"raw_score" gorm:"not null;default:0"`
	NormalizedScore float64   `json:"normalized_score" db:"normalized_score" gorm:"not null;default:0"`
	ClaimCount      int       `json:"claim_count" db:"claim_count" gorm:"not null;default:0"`

	LastCalculatedAt         *time.Time `json:"last_calculated_at" db:"last_calculated_at"`
	RecalculationRequestedAt *time.Time `json:"recalculation_requested_at" db:"recalculation_requested_at" gorm:"index"`

	// Relationships
	Source Source `json:"source,omitempty" gorm:"foreignKey:SourceID;references:ID"`
}

// TableName sets the table name for the SourceScoreCache model
func (SourceScoreCache) TableName() string {
	return "source_score_caches"
}

// IsStale reports whether the cached result no longer reflects the latest
// claim/vote writes for the source.
func (c *SourceScoreCache) IsStale() bool {
	if c.RecalculationRequestedAt == nil {
		return false
	}
	if c.LastCalculatedAt == nil {
		return true
	}
	return c.RecalculationRequestedAt.After(*c.LastCalculatedAt)
}
