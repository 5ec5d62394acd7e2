package services

import (
	"log"

	"github.com/carlesonielfa/isthatslop-sub000/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Batch sizing for stale-queue reconciliation. The cap is the backpressure
// valve: a single run can never monopolize the database.
const (
	DefaultBatchSize = 100
	MaxBatchSize     = 500
)

// RecalculationService drains the stale score queue implied by the
// recalculation_requested_at markers. It is stateless and idempotent: every
// pass recomputes from the authoritative claim set, so concurrent or repeated
// invocations converge on the same cache contents.
type RecalculationService struct {
	db     *gorm.DB
	scores *ScoreService
}

// NewRecalculationService creates a new RecalculationService
func NewRecalculationService(db *gorm.DB, scores *ScoreService) *RecalculationService {
	return &RecalculationService{db: db, scores: scores}
}

// BatchResult summarizes one ProcessBatch invocation, covering every
// attempted item whether it succeeded or not.
type BatchResult struct {
	Processed       int         `json:"processed"`
	Remaining       int64       `json:"remaining"`
	FailedSourceIDs []uuid.UUID `json:"failed_source_ids,omitempty"`
}

// staleScope selects cache rows whose last calculation no longer covers the
// newest recalculation request.
func (s *RecalculationService) staleScope() *gorm.DB {
	return s.db.Model(&models.SourceScoreCache{}).
		Where("recalculation_requested_at IS NOT NULL").
		Where("last_calculated_at IS NULL OR recalculation_requested_at > last_calculated_at")
}

// ProcessBatch recomputes up to maxItems stale sources, oldest request
// first with never-calculated sources ahead of everything, so long-neglected
// sources cannot starve. One source failing does not abort the batch; the
// summary reports it and the row stays stale for the next run.
func (s *RecalculationService) ProcessBatch(maxItems int) (BatchResult, error) {
	if maxItems <= 0 {
		maxItems = DefaultBatchSize
	}
	if maxItems > MaxBatchSize {
		maxItems = MaxBatchSize
	}

	var stale []models.SourceScoreCache
	err := s.staleScope().
		Order("CASE WHEN last_calculated_at IS NULL THEN 0 ELSE 1 END, recalculation_requested_at ASC").
		Limit(maxItems).
		Find(&stale).Error
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{}
	for _, entry := range stale {
		if _, err := s.scores.RecalculateSource(entry.SourceID); err != nil {
			log.Printf("❌ Failed to recalculate source %s: %v", entry.SourceID, err)
			result.FailedSourceIDs = append(result.FailedSourceIDs, entry.SourceID)
			continue
		}
		result.Processed++
	}

	if err := s.staleScope().Count(&result.Remaining).Error; err != nil {
		log.Printf("⚠️  Failed to count remaining stale sources: %v", err)
	}

	return result, nil
}

// StaleCount returns how many sources are currently waiting for
// recalculation.
func (s *RecalculationService) StaleCount() (int64, error) {
	var count int64
	err := s.staleScope().Count(&count).Error
	return count, err
}
