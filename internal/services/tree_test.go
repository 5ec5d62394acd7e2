package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreadcrumbs(t *testing.T) {
	db := setupTestDB(t)
	registry := NewSourceRegistry(db)
	tree := NewTreeQueryService(db)
	user := createTestUser(t, db, "creator")

	root := mustCreateSource(t, registry, "YouTube", nil, user.ID)
	mid := mustCreateSource(t, registry, "Science", &root.ID, user.ID)
	leaf := mustCreateSource(t, registry, "Space Weekly", &mid.ID, user.ID)

	t.Run("root first, self last", func(t *testing.T) {
		crumbs, err := tree.Breadcrumbs(leaf.ID)
		require.NoError(t, err)
		require.Len(t, crumbs, 3)

		assert.Equal(t, root.ID, crumbs[0].ID)
		assert.Equal(t, 0, crumbs[0].Depth)
		assert.Equal(t, mid.ID, crumbs[1].ID)
		assert.Equal(t, leaf.ID, crumbs[2].ID)
		assert.Equal(t, "space-weekly", crumbs[2].Slug)
	})

	t.Run("root source is its own trail", func(t *testing.T) {
		crumbs, err := tree.Breadcrumbs(root.ID)
		require.NoError(t, err)
		require.Len(t, crumbs, 1)
		assert.Equal(t, root.ID, crumbs[0].ID)
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := tree.Breadcrumbs(uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestChildrenPage(t *testing.T) {
	db := setupTestDB(t)
	registry := NewSourceRegistry(db)
	scores := NewScoreService(db)
	claims := NewClaimService(db, scores)
	tree := NewTreeQueryService(db)
	user := createTestUser(t, db, "creator")

	parent := mustCreateSource(t, registry, "Platform", nil, user.ID)

	// quiet has no claims, busy has two, busy also has a grandchild.
	quiet := mustCreateSource(t, registry, "Quiet Channel", &parent.ID, user.ID)
	busy := mustCreateSource(t, registry, "Busy Channel", &parent.ID, user.ID)
	mustCreateSource(t, registry, "Busy Subtopic", &busy.ID, user.ID)

	for i := 0; i < 2; i++ {
		_, err := claims.SubmitClaim(user.ID, busy.ID, fmt.Sprintf("Claim number %d with plenty of content.", i), 3, 3)
		require.NoError(t, err)
	}

	t.Run("orders by claim volume then name", func(t *testing.T) {
		page, err := tree.ChildrenPage(parent.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, page.Children, 2)
		assert.False(t, page.HasMore)

		assert.Equal(t, busy.ID, page.Children[0].ID)
		assert.Equal(t, 2, page.Children[0].ClaimCount)
		assert.NotNil(t, page.Children[0].Tier)
		assert.Equal(t, 1, page.Children[0].ChildCount)

		assert.Equal(t, quiet.ID, page.Children[1].ID)
		assert.Equal(t, 0, page.Children[1].ClaimCount)
		assert.Nil(t, page.Children[1].Tier)
		assert.Equal(t, 0, page.Children[1].ChildCount)
	})

	t.Run("pagination detects more pages", func(t *testing.T) {
		page, err := tree.ChildrenPage(parent.ID, 1, 0)
		require.NoError(t, err)
		require.Len(t, page.Children, 1)
		assert.True(t, page.HasMore)
		assert.Equal(t, busy.ID, page.Children[0].ID)

		page, err = tree.ChildrenPage(parent.ID, 1, 1)
		require.NoError(t, err)
		require.Len(t, page.Children, 1)
		assert.False(t, page.HasMore)
		assert.Equal(t, quiet.ID, page.Children[0].ID)
	})

	t.Run("leaf has no children", func(t *testing.T) {
		page, err := tree.ChildrenPage(quiet.ID, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, page.Children)
		assert.False(t, page.HasMore)
	})
}

func TestBrowse(t *testing.T) {
	db := setupTestDB(t)
	registry := NewSourceRegistry(db)
	scores := NewScoreService(db)
	claims := NewClaimService(db, scores)
	tree := NewTreeQueryService(db)
	user := createTestUser(t, db, "creator")

	youtube := mustCreateSource(t, registry, "YouTube", nil, user.ID)
	reddit := mustCreateSource(t, registry, "Reddit", nil, user.ID)
	science := mustCreateSource(t, registry, "Science", &youtube.ID, user.ID)
	deepDive, err := registry.Create(CreateSourceInput{
		Name:      "Deep Dive Robotics",
		Type:      "channel",
		ParentID:  &science.ID,
		CreatedBy: user.ID,
	})
	require.NoError(t, err)

	_, err = claims.SubmitClaim(user.ID, deepDive.ID, "Scripted entirely by a language model, cadence gives it away.", 5, 5)
	require.NoError(t, err)

	t.Run("no filters lists the top of the tree", func(t *testing.T) {
		nodes, err := tree.Browse(BrowseFilters{})
		require.NoError(t, err)
		// Roots plus depth-1 children; the depth-2 channel stays hidden.
		require.Len(t, nodes, 3)
		for _, node := range nodes {
			assert.True(t, node.IsMatch)
			assert.LessOrEqual(t, node.Depth, 1)
		}
		// Sorted by depth, then name.
		assert.Equal(t, reddit.ID, nodes[0].ID)
		assert.Equal(t, youtube.ID, nodes[1].ID)
		assert.Equal(t, science.ID, nodes[2].ID)
	})

	t.Run("name filter pulls in ancestors for context", func(t *testing.T) {
		nodes, err := tree.Browse(BrowseFilters{Query: "robotics"})
		require.NoError(t, err)
		require.Len(t, nodes, 3)

		assert.Equal(t, youtube.ID, nodes[0].ID)
		assert.False(t, nodes[0].IsMatch)
		assert.Equal(t, science.ID, nodes[1].ID)
		assert.False(t, nodes[1].IsMatch)
		assert.Equal(t, deepDive.ID, nodes[2].ID)
		assert.True(t, nodes[2].IsMatch)
	})

	t.Run("type filter", func(t *testing.T) {
		nodes, err := tree.Browse(BrowseFilters{Type: "channel"})
		require.NoError(t, err)

		var matches int
		for _, node := range nodes {
			if node.IsMatch {
				matches++
				assert.Equal(t, "channel", node.Type)
			}
		}
		assert.Greater(t, matches, 0)
	})

	t.Run("tier range filter", func(t *testing.T) {
		// (1+ln 1)*25 = 25 -> tier 2; a [2,2] window matches only deepDive.
		lo, hi := 2, 2
		nodes, err := tree.Browse(BrowseFilters{TierMin: &lo, TierMax: &hi})
		require.NoError(t, err)

		var matchIDs []uuid.UUID
		for _, node := range nodes {
			if node.IsMatch {
				matchIDs = append(matchIDs, node.ID)
			}
		}
		require.Len(t, matchIDs, 1)
		assert.Equal(t, deepDive.ID, matchIDs[0])

		// An impossible window matches nothing at all.
		lo2 := 4
		nodes, err = tree.Browse(BrowseFilters{TierMin: &lo2})
		require.NoError(t, err)
		assert.Empty(t, nodes)
	})
}

func TestMostDisputed(t *testing.T) {
	db := setupTestDB(t)
	registry := NewSourceRegistry(db)
	scores := NewScoreService(db)
	claims := NewClaimService(db, scores)
	tree := NewTreeQueryService(db)
	author := createTestUser(t, db, "author")

	source := mustCreateSource(t, registry, "Contested Channel", nil, author.ID)

	contested, err := claims.SubmitClaim(author.ID, source.ID, "Half the audience thinks this voice is synthetic.", 3, 3)
	require.NoError(t, err)
	lopsided, err := claims.SubmitClaim(author.ID, source.ID, "Everyone agrees this thumbnail is generated art.", 3, 3)
	require.NoError(t, err)
	unvoted, err := claims.SubmitClaim(author.ID, source.ID, "Nobody has weighed in on this claim yet at all.", 3, 3)
	require.NoError(t, err)

	// contested: 2 helpful vs 2 not -> dispute 2*2+4 = 8
	// lopsided:  3 helpful vs 0     -> dispute 0+3 = 3
	for i := 0; i < 3; i++ {
		voter := createTestUser(t, db, fmt.Sprintf("voter-%d", i))
		if i < 2 {
			_, err := claims.Vote(voter.ID, contested.ID, true)
			require.NoError(t, err)
			other := createTestUser(t, db, fmt.Sprintf("contra-%d", i))
			_, err = claims.Vote(other.ID, contested.ID, false)
			require.NoError(t, err)
		}
		_, err := claims.Vote(voter.ID, lopsided.ID, true)
		require.NoError(t, err)
	}

	ranked, err := tree.MostDisputed(10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, contested.ID, ranked[0].ClaimID)
	assert.Equal(t, 8, ranked[0].DisputeScore)
	assert.Equal(t, source.Name, ranked[0].SourceName)

	assert.Equal(t, lopsided.ID, ranked[1].ClaimID)
	assert.Equal(t, 3, ranked[1].DisputeScore)

	for _, row := range ranked {
		assert.NotEqual(t, unvoted.ID, row.ClaimID)
	}
}
