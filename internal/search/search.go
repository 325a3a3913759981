package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/tilawa/internal/domain"
)

// Catalog is the read side search runs against. Reads may populate the cache.
type Catalog interface {
	Chapters(ctx context.Context) ([]domain.Chapter, error)
	Resources(ctx context.Context, kind domain.ResourceKind) ([]domain.Resource, error)
}

// ChapterMatch is a chapter search result with match metadata for highlighting.
type ChapterMatch struct {
	Chapter        domain.Chapter
	Name           string // Normalized name the indexes point into
	MatchedIndexes []int
	Score          int // Higher is better
}

// ResourceMatch is a resource search result.
type ResourceMatch struct {
	Resource domain.Resource
	Distance int // Lower is better
}

// Service searches the cached catalog.
type Service struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewService creates a new search service
func NewService(catalog Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{catalog: catalog, logger: logger}
}

// Chapters ranks chapters against query. A bare number selects that chapter.
// limit <= 0 returns every match.
func (s *Service) Chapters(ctx context.Context, query string, limit int) ([]ChapterMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	chapters, err := s.catalog.Chapters(ctx)
	if err != nil {
		return nil, err
	}
	idx := NewChapterIndex(chapters)

	results := MatchChapters(idx, query)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	s.logger.Debug("chapter search", "query", query, "results", len(results))
	return results, nil
}

// MatchChapters runs query against a prepared index.
func MatchChapters(idx *ChapterIndex, query string) []ChapterMatch {
	if id, ok := chapterNumber(query); ok {
		if i, found := idx.byID(id); found {
			return []ChapterMatch{{Chapter: idx.chapters[i], Name: idx.names[i]}}
		}
		return nil
	}

	q := Normalize(query)
	if q == "" {
		return nil
	}

	// FindFrom already sorts by score, best first.
	matches := fuzzy.FindFrom(q, idx)
	results := make([]ChapterMatch, len(matches))
	for i, m := range matches {
		results[i] = ChapterMatch{
			Chapter:        idx.chapters[m.Index],
			Name:           m.Str,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return results
}

// Resources filters translation or tafsir resources by name, author or language.
func (s *Service) Resources(ctx context.Context, kind domain.ResourceKind, query string) ([]ResourceMatch, error) {
	resources, err := s.catalog.Resources(ctx, kind)
	if err != nil {
		return nil, err
	}

	results := MatchResources(resources, query)
	s.logger.Debug("resource search", "kind", kind, "query", query, "results", len(results))
	return results, nil
}

// MatchResources ranks resources with a diacritic-insensitive subsequence match.
// An empty query returns every resource in catalog order.
func MatchResources(resources []domain.Resource, query string) []ResourceMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		results := make([]ResourceMatch, len(resources))
		for i, r := range resources {
			results[i] = ResourceMatch{Resource: r}
		}
		return results
	}

	targets := make([]string, len(resources))
	for i, r := range resources {
		targets[i] = r.Name + " " + r.AuthorName + " " + r.LanguageName
	}

	ranks := lfuzzy.RankFindNormalizedFold(query, targets)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	results := make([]ResourceMatch, len(ranks))
	for i, rank := range ranks {
		results[i] = ResourceMatch{
			Resource: resources[rank.OriginalIndex],
			Distance: rank.Distance,
		}
	}
	return results
}
