package services

import (
	"errors"
	"log"
	"sort"
	"strings"

	"github.com/carlesonielfa/isthatslop-sub000/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultChildrenLimit = 20
	browseMatchCap       = 200
	disputedDefaultLimit = 25
)

// TreeQueryService answers read-side questions about the hierarchy:
// breadcrumbs, paginated children, filtered browse views, and the disputed
// ranking. Read paths degrade to empty results on transient store errors
// instead of failing the page; only NotFound-style conditions surface.
type TreeQueryService struct {
	db *gorm.DB
}

// NewTreeQueryService creates a new TreeQueryService
func NewTreeQueryService(db *gorm.DB) *TreeQueryService {
	return &TreeQueryService{db: db}
}

// Breadcrumb is one entry in a source's ancestor chain.
type Breadcrumb struct {
	ID    uuid.UUID `json:"id"`
	Slug  string    `json:"slug"`
	Name  string    `json:"name"`
	Depth int       `json:"depth"`
}

// Breadcrumbs resolves the full ancestor chain of a source in a single set
// lookup over its materialized path, ordered root first; the final entry is
// the source itself.
func (s *TreeQueryService) Breadcrumbs(sourceID uuid.UUID) ([]Breadcrumb, error) {
	var source models.Source
	if err := s.db.First(&source, "id = ?", sourceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		log.Printf("⚠️  Breadcrumb lookup failed, returning empty trail: %v", err)
		return []Breadcrumb{}, nil
	}

	ids := source.PathIDs()
	var rows []models.Source
	if err := s.db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		log.Printf("⚠️  Breadcrumb ancestor fetch failed, returning empty trail: %v", err)
		return []Breadcrumb{}, nil
	}

	crumbs := make([]Breadcrumb, 0, len(rows))
	for _, row := range rows {
		crumbs = append(crumbs, Breadcrumb{ID: row.ID, Slug: row.Slug, Name: row.Name, Depth: row.Depth})
	}
	sort.Slice(crumbs, func(i, j int) bool { return crumbs[i].Depth < crumbs[j].Depth })
	return crumbs, nil
}

// SourceNode is a source annotated with its cached score and child count for
// tree rendering.
type SourceNode struct {
	ID         uuid.UUID `json:"id"`
	Slug       string    `json:"slug"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Depth      int       `json:"depth"`
	Tier       *int      `json:"tier"`
	ClaimCount int       `json:"claim_count"`
	ChildCount int       `json:"child_count"`
}

// ChildrenPage is one page of a source's direct children.
type ChildrenPage struct {
	Children []SourceNode `json:"children"`
	HasMore  bool         `json:"has_more"`
}

// ChildrenPage returns direct children of a parent ordered by claim volume
// then name. It fetches one row beyond the limit to detect another page, and
// annotates each child with its own direct-child count via a single grouped
// query.
func (s *TreeQueryService) ChildrenPage(parentID uuid.UUID, limit, offset int) (ChildrenPage, error) {
	if limit <= 0 {
		limit = defaultChildrenLimit
	}
	if offset < 0 {
		offset = 0
	}

	var rows []SourceNode
	err := s.db.Model(&models.Source{}).
		Select("sources.id, sources.slug, sources.name, sources.type, sources.depth, source_score_caches.tier, COALESCE(source_score_caches.claim_count, 0) AS claim_count").
		Joins("LEFT JOIN source_score_caches ON source_score_caches.source_id = sources.id").
		Where("sources.parent_id = ?", parentID).
		Order("COALESCE(source_score_caches.claim_count, 0) DESC, sources.name ASC").
		Limit(limit + 1).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		log.Printf("⚠️  Children query failed, returning empty page: %v", err)
		return ChildrenPage{Children: []SourceNode{}}, nil
	}

	page := ChildrenPage{HasMore: len(rows) > limit}
	if page.HasMore {
		rows = rows[:limit]
	}

	if len(rows) > 0 {
		ids := make([]uuid.UUID, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
		}

		type childCount struct {
			ParentID uuid.UUID
			Total    int
		}
		var counts []childCount
		err = s.db.Model(&models.Source{}).
			Select("parent_id, COUNT(*) AS total").
			Where("parent_id IN ?", ids).
			Group("parent_id").
			Scan(&counts).Error
		if err != nil {
			log.Printf("⚠️  Child-count query failed, leaving counts at zero: %v", err)
		}

		byParent := make(map[uuid.UUID]int, len(counts))
		for _, c := range counts {
			byParent[c.ParentID] = c.Total
		}
		for i := range rows {
			rows[i].ChildCount = byParent[rows[i].ID]
		}
	}

	page.Children = rows
	return page, nil
}

// BrowseFilters narrows the browse view. Zero-value filters produce the
// cheap default tree (depth <= 1).
type BrowseFilters struct {
	Query   string
	Type    string
	TierMin *int
	TierMax *int
}

// IsEmpty reports whether no filter is active.
func (f BrowseFilters) IsEmpty() bool {
	return f.Query == "" && f.Type == "" && f.TierMin == nil && f.TierMax == nil
}

// BrowseNode is a browse result row. Ancestors pulled in only to give a
// match its place in the tree carry IsMatch=false.
type BrowseNode struct {
	SourceNode
	IsMatch bool `json:"is_match"`
}

// Browse returns a flat, (depth, name)-sorted slice of sources. Without
// filters it lists the top of the tree. With filters it finds matching
// sources, then walks each match's materialized path to pull in any missing
// ancestors so a client can render a pruned tree with context above every
// hit.
func (s *TreeQueryService) Browse(filters BrowseFilters) ([]BrowseNode, error) {
	if filters.IsEmpty() {
		var rows []SourceNode
		err := s.scoredSelect().
			Where("sources.depth <= ?", 1).
			Scan(&rows).Error
		if err != nil {
			log.Printf("⚠️  Browse query failed, returning empty tree: %v", err)
			return []BrowseNode{}, nil
		}
		return sortedBrowseNodes(rows, nil), nil
	}

	query := s.scoredSelect().Limit(browseMatchCap)
	if filters.Query != "" {
		pattern := "%" + strings.ToLower(filters.Query) + "%"
		query = query.Where("LOWER(sources.name) LIKE ? OR LOWER(sources.description) LIKE ?", pattern, pattern)
	}
	if filters.Type != "" {
		query = query.Where("sources.type = ?", filters.Type)
	}
	if filters.TierMin != nil {
		query = query.Where("source_score_caches.tier >= ?", *filters.TierMin)
	}
	if filters.TierMax != nil {
		query = query.Where("source_score_caches.tier <= ?", *filters.TierMax)
	}

	var matches []SourceNode
	if err := query.Scan(&matches).Error; err != nil {
		log.Printf("⚠️  Browse match query failed, returning empty tree: %v", err)
		return []BrowseNode{}, nil
	}

	matchIDs := make(map[uuid.UUID]bool, len(matches))
	for _, m := range matches {
		matchIDs[m.ID] = true
	}

	// Decompose paths to find ancestors the match set doesn't already cover.
	missing := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool, len(matches))
	for id := range matchIDs {
		seen[id] = true
	}
	var matchedSources []models.Source
	ids := make([]uuid.UUID, 0, len(matchIDs))
	for id := range matchIDs {
		ids = append(ids, id)
	}
	if len(ids) > 0 {
		if err := s.db.Where("id IN ?", ids).Find(&matchedSources).Error; err != nil {
			log.Printf("⚠️  Browse path fetch failed, returning matches only: %v", err)
			return sortedBrowseNodes(matches, matchIDs), nil
		}
	}
	for _, source := range matchedSources {
		for _, ancestorID := range source.PathIDs() {
			if !seen[ancestorID] {
				seen[ancestorID] = true
				missing = append(missing, ancestorID)
			}
		}
	}

	rows := matches
	if len(missing) > 0 {
		var ancestors []SourceNode
		err := s.scoredSelect().Where("sources.id IN ?", missing).Scan(&ancestors).Error
		if err != nil {
			log.Printf("⚠️  Browse ancestor fetch failed, returning matches only: %v", err)
		} else {
			rows = append(rows, ancestors...)
		}
	}

	return sortedBrowseNodes(rows, matchIDs), nil
}

// DisputedClaim is a claim ranked by how contested its votes are.
type DisputedClaim struct {
	ClaimID         uuid.UUID `json:"claim_id"`
	SourceID        uuid.UUID `json:"source_id"`
	SourceName      string    `json:"source_name"`
	Content         string    `json:"content"`
	HelpfulVotes    int       `json:"helpful_votes"`
	NotHelpfulVotes int       `json:"not_helpful_votes"`
	DisputeScore    int       `json:"dispute_score"`
}

// MostDisputed ranks claims by vote balance times volume: min(helpful,
// notHelpful)*2 + total votes, the same formula the scoring package exposes
// for in-memory use.
func (s *TreeQueryService) MostDisputed(limit int) ([]DisputedClaim, error) {
	if limit <= 0 {
		limit = disputedDefaultLimit
	}

	const disputeExpr = "(CASE WHEN claims.helpful_votes < claims.not_helpful_votes THEN claims.helpful_votes ELSE claims.not_helpful_votes END) * 2 + claims.helpful_votes + claims.not_helpful_votes"

	var rows []DisputedClaim
	err := s.db.Model(&models.Claim{}).
		Select("claims.id AS claim_id, claims.source_id, sources.name AS source_name, claims.content, claims.helpful_votes, claims.not_helpful_votes, "+disputeExpr+" AS dispute_score").
		Joins("JOIN sources ON sources.id = claims.source_id AND sources.deleted_at IS NULL").
		Where(disputeExpr + " > 0").
		Order("dispute_score DESC, claims.created_at ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		log.Printf("⚠️  Disputed ranking query failed, returning empty list: %v", err)
		return []DisputedClaim{}, nil
	}
	return rows, nil
}

// scoredSelect is the shared sources + score-cache projection.
func (s *TreeQueryService) scoredSelect() *gorm.DB {
	return s.db.Model(&models.Source{}).
		Select("sources.id, sources.slug, sources.name, sources.type, sources.depth, source_score_caches.tier, COALESCE(source_score_caches.claim_count, 0) AS claim_count").
		Joins("LEFT JOIN source_score_caches ON source_score_caches.source_id = sources.id")
}

// sortedBrowseNodes dedupes, flags matches, and sorts by (depth, name).
func sortedBrowseNodes(rows []SourceNode, matchIDs map[uuid.UUID]bool) []BrowseNode {
	seen := make(map[uuid.UUID]bool, len(rows))
	nodes := make([]BrowseNode, 0, len(rows))
	for _, row := range rows {
		if seen[row.ID] {
			continue
		}
		seen[row.ID] = true
		isMatch := matchIDs == nil || matchIDs[row.ID]
		nodes = append(nodes, BrowseNode{SourceNode: row, IsMatch: isMatch})
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Depth != nodes[j].Depth {
			return nodes[i].Depth < nodes[j].Depth
		}
		return nodes[i].Name < nodes[j].Name
	})
	return nodes
}
