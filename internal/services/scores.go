package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/carlesonielfa/isthatslop-sub000/internal/models"
	"github.com/carlesonielfa/isthatslop-sub000/internal/scoring"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScoreService owns the score cache: marking rows stale when the claim
// surface changes and recomputing them from the authoritative claim set.
type ScoreService struct {
	db *gorm.DB
}

// NewScoreService creates a new ScoreService
func NewScoreService(db *gorm.DB) *ScoreService {
	return &ScoreService{db: db}
}

// RequestRecalculation marks a source's cache row stale. It must run in the
// same transaction as the claim or vote write that invalidated the score,
// creating the row if the source has never been scored. The store itself acts
// as the durable work queue the batch job drains.
func RequestRecalculation(tx *gorm.DB, sourceID uuid.UUID) error {
	now := time.Now()
	entry := models.SourceScoreCache{
		SourceID:                 sourceID,
		RecalculationRequestedAt: &now,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"recalculation_requested_at": now}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to request recalculation: %w", err)
	}
	return nil
}

// RecalculateSource recomputes one source's consensus score from its
// non-deleted claims and overwrites the cache row. A source whose last claim
// is gone loses its cache row entirely: no row means unrated. The function is
// a pure overwrite of current state, so concurrent invocations converge.
func (s *ScoreService) RecalculateSource(sourceID uuid.UUID) (scoring.Result, error) {
	var claims []models.Claim
	if err := s.db.Where("source_id = ?", sourceID).Find(&claims).Error; err != nil {
		return scoring.Result{}, fmt.Errorf("failed to load claims: %w", err)
	}

	inputs := make([]scoring.ClaimInput, len(claims))
	for i, claim := range claims {
		inputs[i] = scoring.ClaimInput{
			Impact:       claim.Impact,
			Confidence:   claim.Confidence,
			HelpfulVotes: claim.HelpfulVotes,
		}
	}
	result := scoring.Score(inputs)

	if result.ClaimCount == 0 {
		err := s.db.Where("source_id = ?", sourceID).Delete(&models.SourceScoreCache{}).Error
		if err != nil {
			return result, fmt.Errorf("failed to drop empty score cache: %w", err)
		}
		return result, nil
	}

	now := time.Now()
	entry := models.SourceScoreCache{
		SourceID:         sourceID,
		Tier:             result.Tier,
		RawScore:         result.RawScore,
		NormalizedScore:  result.NormalizedScore,
		ClaimCount:       result.ClaimCount,
		LastCalculatedAt: &now,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"tier":               result.Tier,
			"raw_score":          result.RawScore,
			"normalized_score":   result.NormalizedScore,
			"claim_count":        result.ClaimCount,
			"last_calculated_at": now,
		}),
	}).Create(&entry).Error
	if err != nil {
		return result, fmt.Errorf("failed to write score cache: %w", err)
	}
	return result, nil
}

// GetScore returns the cached score for a source, or nil when the source is
// unrated.
func (s *ScoreService) GetScore(sourceID uuid.UUID) (*models.SourceScoreCache, error) {
	var entry models.SourceScoreCache
	err := s.db.First(&entry, "source_id = ?", sourceID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
