package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/carlesonielfa/isthatslop-sub000/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClaimService handles the claim lifecycle: submission, edits, moderation
// deletes, and votes. Every mutation that changes a source's claim-weight
// surface marks the score cache stale in the same transaction, then runs the
// synchronous fast path so interactive submissions see a fresh tier
// immediately. The staleness marker stays authoritative either way; the
// batch job reconciles whatever the fast path missed.
type ClaimService struct {
	db     *gorm.DB
	scores *ScoreService
}

// NewClaimService creates a new ClaimService
func NewClaimService(db *gorm.DB, scores *ScoreService) *ClaimService {
	return &ClaimService{db: db, scores: scores}
}

// SubmitClaim records a new claim against a source.
func (s *ClaimService) SubmitClaim(userID, sourceID uuid.UUID, content string, impact, confidence int) (*models.Claim, error) {
	if err := validateClaimInput(content, impact, confidence); err != nil {
		return nil, err
	}

	var source models.Source
	if err := s.db.First(&source, "id = ?", sourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	claim := models.Claim{
		ID:         uuid.New(),
		SourceID:   sourceID,
		UserID:     userID,
		Content:    strings.TrimSpace(content),
		Impact:     impact,
		Confidence: confidence,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&claim).Error; err != nil {
			return fmt.Errorf("failed to create claim: %w", err)
		}
		return RequestRecalculation(tx, sourceID)
	})
	if err != nil {
		return nil, err
	}

	s.recalculateNow(sourceID)
	return &claim, nil
}

// EditClaim updates a claim's content, impact, or confidence. Only the
// author may edit; a content change stamps ContentUpdatedAt so readers can
// show an edit marker.
func (s *ClaimService) EditClaim(userID, claimID uuid.UUID, content string, impact, confidence int) (*models.Claim, error) {
	if err := validateClaimInput(content, impact, confidence); err != nil {
		return nil, err
	}

	var claim models.Claim
	if err := s.db.First(&claim, "id = ?", claimID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if claim.UserID != userID {
		return nil, ErrNotClaimAuthor
	}

	content = strings.TrimSpace(content)
	if content != claim.Content {
		now := time.Now()
		claim.ContentUpdatedAt = &now
	}
	claim.Content = content
	claim.Impact = impact
	claim.Confidence = confidence

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&claim).Error; err != nil {
			return fmt.Errorf("failed to update claim: %w", err)
		}
		return RequestRecalculation(tx, claim.SourceID)
	})
	if err != nil {
		return nil, err
	}

	s.recalculateNow(claim.SourceID)
	return &claim, nil
}

// DeleteClaim soft-deletes a claim on behalf of a moderator and writes the
// audit trail. The row stays in the table but drops out of aggregation for
// good.
func (s *ClaimService) DeleteClaim(actorID, claimID uuid.UUID, reason string) error {
	var claim models.Claim
	if err := s.db.First(&claim, "id = ?", claimID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&claim).Error; err != nil {
			return fmt.Errorf("failed to delete claim: %w", err)
		}

		audit := models.AuditLog{
			ID:         uuid.New(),
			ActorID:    actorID,
			Action:     models.AuditClaimDeleted,
			TargetType: "claim",
			TargetID:   claim.ID,
			Reason:     reason,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		return RequestRecalculation(tx, claim.SourceID)
	})
	if err != nil {
		return err
	}

	s.recalculateNow(claim.SourceID)
	return nil
}

// Vote records or changes a user's helpful/not-helpful vote on a claim. One
// vote per user per claim; flipping a vote moves the counters instead of
// adding a row, and repeating the same vote is a no-op.
func (s *ClaimService) Vote(userID, claimID uuid.UUID, isHelpful bool) (*models.Claim, error) {
	var sourceID uuid.UUID
	changed := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var claim models.Claim
		if err := tx.First(&claim, "id = ?", claimID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		sourceID = claim.SourceID

		var vote models.ClaimVote
		err := tx.First(&vote, "claim_id = ? AND user_id = ?", claimID, userID).Error

		var helpfulDelta, notHelpfulDelta int
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote = models.ClaimVote{ClaimID: claimID, UserID: userID, IsHelpful: isHelpful}
			if err := tx.Create(&vote).Error; err != nil {
				return fmt.Errorf("failed to create vote: %w", err)
			}
			if isHelpful {
				helpfulDelta = 1
			} else {
				notHelpfulDelta = 1
			}
		case err != nil:
			return fmt.Errorf("failed to load vote: %w", err)
		case vote.IsHelpful == isHelpful:
			// Same verdict twice: nothing to do.
			return nil
		default:
			vote.IsHelpful = isHelpful
			if err := tx.Save(&vote).Error; err != nil {
				return fmt.Errorf("failed to update vote: %w", err)
			}
			if isHelpful {
				helpfulDelta, notHelpfulDelta = 1, -1
			} else {
				helpfulDelta, notHelpfulDelta = -1, 1
			}
		}

		changed = true
		// Counters move by SQL expression, never by writing back a value read
		// earlier: concurrent voters on the same claim must each land their
		// increment.
		if err := tx.Model(&models.Claim{}).Where("id = ?", claimID).Updates(map[string]interface{}{
			"helpful_votes":     gorm.Expr("helpful_votes + ?", helpfulDelta),
			"not_helpful_votes": gorm.Expr("not_helpful_votes + ?", notHelpfulDelta),
		}).Error; err != nil {
			return fmt.Errorf("failed to update vote counters: %w", err)
		}
		return RequestRecalculation(tx, claim.SourceID)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.recalculateNow(sourceID)
	}

	var claim models.Claim
	if err := s.db.First(&claim, "id = ?", claimID).Error; err != nil {
		return nil, err
	}
	return &claim, nil
}

// recalculateNow is the synchronous fast path for interactive feedback.
// Failure here is non-fatal: the staleness marker already committed, so the
// batch job will catch the source on its next run.
func (s *ClaimService) recalculateNow(sourceID uuid.UUID) {
	if _, err := s.scores.RecalculateSource(sourceID); err != nil {
		log.Printf("⚠️  Synchronous recalculation for source %s failed (batch will retry): %v", sourceID, err)
	}
}

func validateClaimInput(content string, impact, confidence int) error {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < models.ClaimContentMinLength {
		return &ValidationError{Field: "content", Reason: fmt.Sprintf("must be at least %d characters", models.ClaimContentMinLength)}
	}
	if len(trimmed) > models.ClaimContentMaxLength {
		return &ValidationError{Field: "content", Reason: fmt.Sprintf("must be at most %d characters", models.ClaimContentMaxLength)}
	}
	if impact < models.ClaimRatingMin || impact > models.ClaimRatingMax {
		return &ValidationError{Field: "impact", Reason: "must be between 1 and 5"}
	}
	if confidence < models.ClaimRatingMin || confidence > models.ClaimRatingMax {
		return &ValidationError{Field: "confidence", Reason: "must be between 1 and 5"}
	}
	return nil
}
