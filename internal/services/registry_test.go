package services

import (
	"strings"
	"sync"
	"testing"

	"github.com/carlesonielfa/isthatslop-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Tech Channel", "tech-channel"},
		{"punctuation collapses", "AI & ML -- Weekly!", "ai-ml-weekly"},
		{"leading and trailing junk", "  ***Hello***  ", "hello"},
		{"already clean", "youtube", "youtube"},
		{"only junk", "!!!", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Slugify(tc.input))
		})
	}

	t.Run("truncates long names", func(t *testing.T) {
		slug := Slugify(strings.Repeat("a", 150))
		assert.Len(t, slug, 100)
	})
}

func TestCreateSource(t *testing.T) {
	db := setupTestDB(t)
	registry := NewSourceRegistry(db)
	user := createTestUser(t, db, "creator")

	t.Run("root source gets its own id as path", func(t *testing.T) {
		source := mustCreateSource(t, registry, "YouTube", nil, user.ID)

		assert.Equal(t, "youtube", source.Slug)
		assert.Equal(t, source.ID.String(), source.Path)
		assert.Equal(t, 0, source.Depth)
		assert.Nil(t, source.ParentID)
		assert.Equal(t, models.ApprovalApproved, source.ApprovalStatus)
	})

	t.Run("child extends the parent path", func(t *testing.T) {
		parent := mustCreateSource(t, registry, "Reddit", nil, user.ID)
		child := mustCreateSource(t, registry, "AI Art", &parent.ID, user.ID)

		assert.Equal(t, parent.Path+"."+child.ID.String(), child.Path)
		assert.Equal(t, 1, child.Depth)
		require.NotNil(t, child.ParentID)
		assert.Equal(t, parent.ID, *child.ParentID)
	})

	t.Run("missing parent", func(t *testing.T) {
		ghost := mustCreateSource(t, registry, "Ghost Parent", nil, user.ID)
		require.NoError(t, db.Unscoped().Delete(ghost).Error)

		_, err := registry.Create(CreateSourceInput{
			Name:      "Orphan",
			ParentID:  &ghost.ID,
			CreatedBy: user.ID,
		})
		assert.ErrorIs(t, err, ErrParentNotFound)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := registry.Create(CreateSourceInput{Name: "   ", CreatedBy: user.ID})
		assert.True(t, IsValidationError(err))
	})

	t.Run("rejects name with no slug material", func(t *testing.T) {
		_, err := registry.Create(CreateSourceInput{Name: "!!!", CreatedBy: user.ID})
		assert.True(t, IsValidationError(err))
	})
}

func TestCreateSourceDuplicateSlugs(t *testing.T) {
	db := setupTestDB(t)
	registry := NewSourceRegistry(db)
	user := createTestUser(t, db, "creator")

	first := mustCreateSource(t, registry, "Tech News", nil, user.ID)
	assert.Equal(t, "tech-news", first.Slug)

	second := mustCreateSource(t, registry, "Tech News", nil, user.ID)
	assert.Equal(t, "tech-news-2", second.Slug)

	third := mustCreateSource(t, registry, "Tech News", nil, user.ID)
	assert.Equal(t, "tech-news-3", third.Slug)

	_, err := registry.Create(CreateSourceInput{Name: "Tech News", CreatedBy: user.ID})
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	t.Run("same slug allowed under a different parent", func(t *testing.T) {
		parent := mustCreateSource(t, registry, "Another Platform", nil, user.ID)
		nested := mustCreateSource(t, registry, "Tech News", &parent.ID, user.ID)
		assert.Equal(t, "tech-news", nested.Slug)
	})
}

func TestCreateSourceUniqueIndexBackstop(t *testing.T) {
	db := setupTestDB(t)
	registry := NewSourceRegistry(db)
	user := createTestUser(t, db, "creator")
	moderator := createTestUser(t, db, "moderator")

	parent := mustCreateSource(t, registry, "Platform", nil, user.ID)
	child := mustCreateSource(t, registry, "Tech News", &parent.ID, user.ID)
	require.NoError(t, registry.Delete(moderator.ID, child.ID, "cleanup"))

	// The soft-deleted row is invisible to the pre-check but still occupies
	// the (parent_id, slug) unique index, so this create passes the count at
	// zero and only the constraint violation on INSERT forces the retry.
	replacement := mustCreateSource(t, registry, "Tech News", &parent.ID, user.ID)
	assert.Equal(t, "tech-news-2", replacement.Slug)

	var withSlug int64
	require.NoError(t, db.Model(&models.Source{}).
		Where("parent_id = ? AND slug = ?", parent.ID, "tech-news").
		Count(&withSlug).Error)
	assert.Equal(t, int64(0), withSlug, "only the soft-deleted row may hold the base slug")
}

func TestCreateSourceConcurrent(t *testing.T) {
	db := setupTestDB(t)
	registry := NewSourceRegistry(db)
	user := createTestUser(t, db, "creator")
	parent := mustCreateSource(t, registry, "Platform", nil, user.ID)

	// Two racing creates with the same name under the same parent: one keeps
	// the base slug, the other lands on -2, and the table never holds a
	// duplicate (parent, slug) pair.
	results := make(chan string, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			source, err := registry.Create(CreateSourceInput{
				Name:      "Racing Channel",
				Type:      "channel",
				ParentID:  &parent.ID,
				CreatedBy: user.ID,
			})
			if assert.NoError(t, err) {
				results <- source.Slug
			}
		}()
	}
	wg.Wait()
	close(results)

	var slugs []string
	for slug := range results {
		slugs = append(slugs, slug)
	}
	assert.ElementsMatch(t, []string{"racing-channel", "racing-channel-2"}, slugs)

	var total int64
	require.NoError(t, db.Model(&models.Source{}).
		Where("parent_id = ? AND slug LIKE ?", parent.ID, "racing-channel%").
		Count(&total).Error)
	assert.Equal(t, int64(2), total)
}

func TestCreateSourceDepthLimit(t *testing.T) {
	db := setupTestDB(t)
	registry := NewSourceRegistry(db)
	user := createTestUser(t, db, "creator")

	// Build a chain down to the maximum depth.
	parent := mustCreateSource(t, registry, "Level 0", nil, user.ID)
	for depth := 1; depth <= models.MaxSourceDepth; depth++ {
		parent = mustCreateSource(t, registry, "Level", &parent.ID, user.ID)
		assert.Equal(t, depth, parent.Depth)
	}

	_, err := registry.Create(CreateSourceInput{
		Name:      "Too Deep",
		ParentID:  &parent.ID,
		CreatedBy: user.ID,
	})
	assert.ErrorIs(t, err, ErrMaxDepthExceeded)
}

func TestAncestorRecords(t *testing.T) {
	db := setupTestDB(t)
	registry := NewSourceRegistry(db)
	user := createTestUser(t, db, "creator")

	root := mustCreateSource(t, registry, "Platform", nil, user.ID)
	mid := mustCreateSource(t, registry, "Category", &root.ID, user.ID)
	leaf := mustCreateSource(t, registry, "Channel", &mid.ID, user.ID)

	var records []models.SourceAncestorPath
	require.NoError(t, db.Where("source_id = ?", leaf.ID).Order("depth ASC").Find(&records).Error)
	require.Len(t, records, 3)

	assert.Equal(t, root.ID, records[0].AncestorID)
	assert.Equal(t, models.PathTypeAncestor, records[0].PathType)
	assert.Equal(t, mid.ID, records[1].AncestorID)
	assert.Equal(t, models.PathTypeAncestor, records[1].PathType)
	assert.Equal(t, leaf.ID, records[2].AncestorID)
	assert.Equal(t, models.PathTypeSelf, records[2].PathType)
}

func TestResolveBySlugPath(t *testing.T) {
	db := setupTestDB(t)
	registry := NewSourceRegistry(db)
	user := createTestUser(t, db, "creator")

	root := mustCreateSource(t, registry, "YouTube", nil, user.ID)
	channel := mustCreateSource(t, registry, "Tech Explained", &root.ID, user.ID)

	t.Run("resolves root", func(t *testing.T) {
		found, err := registry.ResolveBySlugPath([]string{"youtube"})
		require.NoError(t, err)
		assert.Equal(t, root.ID, found.ID)
	})

	t.Run("resolves nested path", func(t *testing.T) {
		found, err := registry.ResolveBySlugPath([]string{"youtube", "tech-explained"})
		require.NoError(t, err)
		assert.Equal(t, channel.ID, found.ID)
	})

	t.Run("fails at first missing segment", func(t *testing.T) {
		_, err := registry.ResolveBySlugPath([]string{"youtube", "nope", "tech-explained"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("slug must match the right scope", func(t *testing.T) {
		// tech-explained exists, but not at the root.
		_, err := registry.ResolveBySlugPath([]string{"tech-explained"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := registry.ResolveBySlugPath(nil)
		assert.True(t, IsValidationError(err))

		_, err = registry.ResolveBySlugPath([]string{"youtube", ""})
		assert.True(t, IsValidationError(err))
	})

	t.Run("GetByID round trip", func(t *testing.T) {
		found, err := registry.GetByID(channel.ID)
		require.NoError(t, err)
		assert.Equal(t, "tech-explained", found.Slug)

		_, err = registry.GetByID(uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSetApprovalStatus(t *testing.T) {
	db := setupTestDB(t)
	registry := NewSourceRegistry(db)
	user := createTestUser(t, db, "creator")
	moderator := createTestUser(t, db, "moderator")

	source := mustCreateSource(t, registry, "Reviewed Channel", nil, user.ID)

	t.Run("rejecting writes an audit entry", func(t *testing.T) {
		updated, err := registry.SetApprovalStatus(moderator.ID, source.ID, models.ApprovalRejected, "obvious spam farm")
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalRejected, updated.ApprovalStatus)

		var entry models.AuditLog
		require.NoError(t, db.First(&entry, "target_id = ? AND action = ?", source.ID, models.AuditSourceRejected).Error)
		assert.Equal(t, moderator.ID, entry.ActorID)
		assert.Equal(t, "obvious spam farm", entry.Reason)
	})

	t.Run("re-approving works too", func(t *testing.T) {
		updated, err := registry.SetApprovalStatus(moderator.ID, source.ID, models.ApprovalApproved, "")
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalApproved, updated.ApprovalStatus)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := registry.SetApprovalStatus(moderator.ID, source.ID, "maybe", "")
		assert.True(t, IsValidationError(err))
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := registry.SetApprovalStatus(moderator.ID, uuid.New(), models.ApprovalApproved, "")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteSource(t *testing.T) {
	db := setupTestDB(t)
	registry := NewSourceRegistry(db)
	user := createTestUser(t, db, "creator")
	moderator := createTestUser(t, db, "moderator")

	parent := mustCreateSource(t, registry, "Platform", nil, user.ID)
	child := mustCreateSource(t, registry, "Channel", &parent.ID, user.ID)

	t.Run("refuses a source with children", func(t *testing.T) {
		err := registry.Delete(moderator.ID, parent.ID, "cleanup")
		assert.ErrorIs(t, err, ErrHasChildren)
	})

	t.Run("deletes a leaf and writes the audit trail", func(t *testing.T) {
		require.NoError(t, registry.Delete(moderator.ID, child.ID, "duplicate entry"))

		_, err := registry.GetByID(child.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		var entry models.AuditLog
		require.NoError(t, db.First(&entry, "target_id = ? AND action = ?", child.ID, models.AuditSourceDeleted).Error)
		assert.Equal(t, "duplicate entry", entry.Reason)

		// Parent is a leaf again and can go as well.
		require.NoError(t, registry.Delete(moderator.ID, parent.ID, "cleanup"))
	})

	t.Run("unknown source", func(t *testing.T) {
		err := registry.Delete(moderator.ID, uuid.New(), "")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
