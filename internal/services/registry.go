package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/carlesonielfa/isthatslop-sub000/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxSourceNameLength = 200
	maxSlugLength       = 100

	// How many times a create retries with a suffixed slug before giving up.
	slugRetryLimit = 3
)

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// SourceRegistry creates and resolves hierarchical source nodes. It owns the
// materialized-path and slug-uniqueness invariants; the database unique index
// on (parent_id, slug) is the serialization point for concurrent creates.
type SourceRegistry struct {
	db *gorm.DB
}

// NewSourceRegistry creates a new SourceRegistry
func NewSourceRegistry(db *gorm.DB) *SourceRegistry {
	return &SourceRegistry{db: db}
}

// CreateSourceInput holds the caller-supplied fields for a new source.
type CreateSourceInput struct {
	Name        string
	Type        string
	Description string
	URL         string
	ParentID    *uuid.UUID
	CreatedBy   uuid.UUID
}

// Create inserts a new source under the given parent. The slug is derived
// from the name; when another source already holds it in the same parent
// scope the create retries with -2, -3 suffixes before surfacing
// ErrDuplicateSlug. Each attempt runs in its own transaction, so a concurrent
// creator racing on the same slug loses exactly one attempt, not the whole
// call.
func (r *SourceRegistry) Create(input CreateSourceInput) (*models.Source, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len(name) > maxSourceNameLength {
		return nil, &ValidationError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", maxSourceNameLength)}
	}

	baseSlug := Slugify(name)
	if baseSlug == "" {
		return nil, &ValidationError{Field: "name", Reason: "must contain at least one alphanumeric character"}
	}

	var lastErr error
	for attempt := 1; attempt <= slugRetryLimit; attempt++ {
		slug := baseSlug
		if attempt > 1 {
			slug = fmt.Sprintf("%s-%d", baseSlug, attempt)
		}

		source, err := r.tryCreate(input, name, slug)
		if err == nil {
			return source, nil
		}
		if !errors.Is(err, ErrDuplicateSlug) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// tryCreate is a single transactional creation attempt with a fixed slug.
func (r *SourceRegistry) tryCreate(input CreateSourceInput, name, slug string) (*models.Source, error) {
	var created *models.Source

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var parent *models.Source
		if input.ParentID != nil {
			parent = &models.Source{}
			if err := tx.First(parent, "id = ?", *input.ParentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrParentNotFound
				}
				return fmt.Errorf("failed to load parent: %w", err)
			}
			if parent.Depth+1 > models.MaxSourceDepth {
				return ErrMaxDepthExceeded
			}
		}

		// Pre-check slug uniqueness inside the transaction. The unique index
		// still backstops this for concurrent writers; postgres treats NULL
		// parents as distinct, so the root scope depends on this check.
		var count int64
		scope := tx.Model(&models.Source{}).Where("slug = ?", slug)
		if input.ParentID == nil {
			scope = scope.Where("parent_id IS NULL")
		} else {
			scope = scope.Where("parent_id = ?", *input.ParentID)
		}
		if err := scope.Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check slug uniqueness: %w", err)
		}
		if count > 0 {
			return ErrDuplicateSlug
		}

		// The id is generated client-side, so the materialized path can be
		// written in the same insert and a reader never sees a source whose
		// path disagrees with its id.
		id := uuid.New()
		source := models.Source{
			ID:             id,
			Slug:           slug,
			Name:           name,
			Type:           input.Type,
			Description:    input.Description,
			URL:            input.URL,
			ParentID:       input.ParentID,
			Path:           id.String(),
			Depth:          0,
			ApprovalStatus: models.ApprovalApproved,
			CreatedBy:      input.CreatedBy,
		}
		if parent != nil {
			source.Path = parent.Path + "." + id.String()
			source.Depth = parent.Depth + 1
		}

		if err := tx.Create(&source).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateSlug
			}
			return fmt.Errorf("failed to create source: %w", err)
		}

		if err := r.writeAncestorRecords(tx, &source); err != nil {
			return err
		}

		created = &source
		return nil
	})

	if err != nil {
		return nil, err
	}
	return created, nil
}

// writeAncestorRecords inserts one source_ancestor_paths row per (source,
// ancestor) pair, self-row included, in the same transaction as the source
// itself.
func (r *SourceRegistry) writeAncestorRecords(tx *gorm.DB, source *models.Source) error {
	for depth, ancestorID := range source.PathIDs() {
		pathType := models.PathTypeAncestor
		if ancestorID == source.ID {
			pathType = models.PathTypeSelf
		}

		record := models.SourceAncestorPath{
			ID:         uuid.New(),
			SourceID:   source.ID,
			AncestorID: ancestorID,
			Path:       source.Path,
			PathType:   pathType,
			Depth:      depth,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to write ancestor record: %w", err)
		}
	}
	return nil
}

// GetByID loads a single source.
func (r *SourceRegistry) GetByID(id uuid.UUID) (*models.Source, error) {
	var source models.Source
	if err := r.db.First(&source, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &source, nil
}

// ResolveBySlugPath walks slug segments from the root, like a directory
// descent: each segment is looked up as (parentID, slug) and the walk fails
// at the first missing segment.
func (r *SourceRegistry) ResolveBySlugPath(segments []string) (*models.Source, error) {
	if len(segments) == 0 {
		return nil, &ValidationError{Field: "path", Reason: "must have at least one segment"}
	}

	var current *models.Source
	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			return nil, &ValidationError{Field: "path", Reason: "segments must not be empty"}
		}

		query := r.db.Where("slug = ?", segment)
		if current == nil {
			query = query.Where("parent_id IS NULL")
		} else {
			query = query.Where("parent_id = ?", current.ID)
		}

		var source models.Source
		if err := query.First(&source).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		current = &source
	}

	return current, nil
}

// SetApprovalStatus moves a source between approval states on behalf of a
// moderator and records the decision in the audit log.
func (r *SourceRegistry) SetApprovalStatus(actorID, sourceID uuid.UUID, status, reason string) (*models.Source, error) {
	if status != models.ApprovalApproved && status != models.ApprovalRejected {
		return nil, &ValidationError{Field: "status", Reason: "must be approved or rejected"}
	}

	var source models.Source
	if err := r.db.First(&source, "id = ?", sourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	action := models.AuditSourceApproved
	if status == models.ApprovalRejected {
		action = models.AuditSourceRejected
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&source).Update("approval_status", status).Error; err != nil {
			return fmt.Errorf("failed to update approval status: %w", err)
		}
		audit := models.AuditLog{
			ID:         uuid.New(),
			ActorID:    actorID,
			Action:     action,
			TargetType: "source",
			TargetID:   source.ID,
			Reason:     reason,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	source.ApprovalStatus = status
	return &source, nil
}

// Delete soft-deletes a leaf source with an audit entry. Sources with live
// children are refused so the materialized paths of descendants never point
// at a deleted ancestor.
func (r *SourceRegistry) Delete(actorID, sourceID uuid.UUID, reason string) error {
	var source models.Source
	if err := r.db.First(&source, "id = ?", sourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	var children int64
	if err := r.db.Model(&models.Source{}).Where("parent_id = ?", sourceID).Count(&children).Error; err != nil {
		return fmt.Errorf("failed to count children: %w", err)
	}
	if children > 0 {
		return ErrHasChildren
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&source).Error; err != nil {
			return fmt.Errorf("failed to delete source: %w", err)
		}
		audit := models.AuditLog{
			ID:         uuid.New(),
			ActorID:    actorID,
			Action:     models.AuditSourceDeleted,
			TargetType: "source",
			TargetID:   source.ID,
			Reason:     reason,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
}

// Slugify lowercases a name and collapses every run of non-alphanumerics
// into a single hyphen, truncated to the slug length limit.
func Slugify(name string) string {
	slug := slugInvalidChars.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	return slug
}
