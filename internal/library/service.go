package library

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/mmcdole/tilawa/internal/domain"
)

const defaultPageSize = 50

// Service implements the populate-once entity caches: check the ledger or
// existence, fetch from the content source, persist and mark.
type Service struct {
	source   domain.ContentSource
	store    domain.ContentStore
	pageSize int
	logger   *slog.Logger

	// Collapses concurrent populates of the same scope into one fetch
	inflight singleflight.Group
}

// NewService creates a new library service.
func NewService(source domain.ContentSource, store domain.ContentStore, pageSize int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Service{source: source, store: store, pageSize: pageSize, logger: logger}
}

// EnsureChapters populates the chapter catalog once.
func (s *Service) EnsureChapters(ctx context.Context) (domain.SyncResult, error) {
	return s.once(ctx, string(domain.KindChapters), func() (domain.SyncResult, error) {
		result := domain.SyncResult{Kind: domain.KindChapters}

		populated, err := s.store.IsPopulated(ctx, domain.KindChapters)
		if err != nil {
			return result, err
		}
		if populated {
			result.FromCache = true
			return result, nil
		}

		chapters, err := s.source.GetChapters(ctx)
		if err != nil {
			s.logger.Error("failed to fetch chapters", "error", err)
			return result, err
		}
		if err := s.store.SaveChapters(ctx, chapters); err != nil {
			return result, fmt.Errorf("failed to save chapters: %w", err)
		}

		s.logger.Debug("populated chapters", "count", len(chapters))
		result.Count = len(chapters)
		return result, nil
	})
}

// EnsureChapterInfo populates one chapter's introduction once.
func (s *Service) EnsureChapterInfo(ctx context.Context, chapterID int) (domain.SyncResult, error) {
	result := domain.SyncResult{Kind: domain.KindChapters}
	if err := validChapter(chapterID); err != nil {
		return result, err
	}
	if _, err := s.EnsureChapters(ctx); err != nil {
		return result, err
	}

	return s.once(ctx, fmt.Sprintf("info:%d", chapterID), func() (domain.SyncResult, error) {
		has, err := s.store.HasChapterInfo(ctx, chapterID)
		if err != nil {
			return result, err
		}
		if has {
			result.FromCache = true
			return result, nil
		}

		info, err := s.source.GetChapterInfo(ctx, chapterID)
		if err != nil {
			s.logger.Error("failed to fetch chapter info", "chapter", chapterID, "error", err)
			return result, err
		}
		info.ChapterID = chapterID
		if err := s.store.SaveChapterInfo(ctx, *info); err != nil {
			return result, fmt.Errorf("failed to save chapter info: %w", err)
		}
		result.Count = 1
		return result, nil
	})
}

// EnsureVerses populates every verse of a chapter. The check is per chapter
// (at least one cached row), not the catalog-wide ledger.
func (s *Service) EnsureVerses(ctx context.Context, chapterID int, onProgress domain.ProgressFunc) (domain.SyncResult, error) {
	result := domain.SyncResult{Kind: domain.KindVerses}
	if err := validChapter(chapterID); err != nil {
		return result, err
	}
	if _, err := s.EnsureChapters(ctx); err != nil {
		return result, err
	}

	return s.once(ctx, fmt.Sprintf("verses:%d", chapterID), func() (domain.SyncResult, error) {
		has, err := s.store.HasVerses(ctx, chapterID)
		if err != nil {
			return result, err
		}
		if has {
			result.FromCache = true
			return result, nil
		}

		verses, err := fetchAll(ctx,
			func(ctx context.Context, page, perPage int) ([]domain.Verse, int, error) {
				return s.source.GetVerses(ctx, chapterID, page, perPage)
			},
			s.pageSize,
			onProgress,
		)
		if err != nil {
			s.logger.Error("failed to fetch verses", "chapter", chapterID, "error", err)
			return result, err
		}
		if len(verses) == 0 {
			return result, fmt.Errorf("%w: chapter %d returned no verses", domain.ErrContentFetch, chapterID)
		}
		if err := s.store.SaveVerses(ctx, chapterID, verses); err != nil {
			return result, fmt.Errorf("failed to save verses: %w", err)
		}

		s.logger.Debug("populated verses", "chapter", chapterID, "count", len(verses))
		result.Count = len(verses)
		return result, nil
	})
}

// EnsureTafsirs populates one tafsir resource for a chapter. Verses of the
// chapter are populated first; verses without a payload are skipped, and a
// chapter without any payload is recorded as populated with no entries.
func (s *Service) EnsureTafsirs(ctx context.Context, chapterID, resourceID int, onProgress domain.ProgressFunc) (domain.SyncResult, error) {
	result := domain.SyncResult{Kind: domain.TafsirKind(resourceID)}
	if err := validChapter(chapterID); err != nil {
		return result, err
	}
	if _, err := s.EnsureVerses(ctx, chapterID, nil); err != nil {
		return result, err
	}

	return s.once(ctx, fmt.Sprintf("tafsir:%d:%d", resourceID, chapterID), func() (domain.SyncResult, error) {
		has, err := s.store.HasTafsirs(ctx, chapterID, resourceID)
		if err != nil {
			return result, err
		}
		if has {
			result.FromCache = true
			return result, nil
		}

		entries, err := fetchAll(ctx,
			func(ctx context.Context, page, perPage int) ([]domain.TafsirEntry, int, error) {
				return s.source.GetTafsirs(ctx, chapterID, resourceID, page, perPage)
			},
			s.pageSize,
			onProgress,
		)
		if err != nil {
			s.logger.Error("failed to fetch tafsir", "chapter", chapterID, "resource", resourceID, "error", err)
			return result, err
		}

		withText := entries[:0]
		for _, e := range entries {
			if e.Text == "" {
				continue
			}
			withText = append(withText, e)
		}
		if skipped := len(entries) - len(withText); skipped > 0 {
			s.logger.Debug("skipped verses without tafsir", "chapter", chapterID, "resource", resourceID, "count", skipped)
		}
		// An empty chapter is still recorded so it is not fetched again.
		if err := s.store.SaveTafsirs(ctx, chapterID, resourceID, withText); err != nil {
			return result, fmt.Errorf("failed to save tafsir: %w", err)
		}
		result.Count = len(withText)
		return result, nil
	})
}

// EnsureResources populates the translation or tafsir resource list once.
func (s *Service) EnsureResources(ctx context.Context, kind domain.ResourceKind) (domain.SyncResult, error) {
	var ledgerKind domain.PopulationKind
	switch kind {
	case domain.ResourceTranslation:
		ledgerKind = domain.KindTranslations
	case domain.ResourceTafsir:
		ledgerKind = domain.KindTafsirResources
	default:
		return domain.SyncResult{}, fmt.Errorf("unknown resource kind: %s", kind)
	}
	return s.ensureList(ctx, ledgerKind, func() (int, error) {
		resources, err := s.source.GetResources(ctx, kind)
		if err != nil {
			return 0, err
		}
		return len(resources), s.store.SaveResources(ctx, kind, resources)
	})
}

// EnsureLanguages populates the language list once.
func (s *Service) EnsureLanguages(ctx context.Context) (domain.SyncResult, error) {
	return s.ensureList(ctx, domain.KindLanguages, func() (int, error) {
		languages, err := s.source.GetLanguages(ctx)
		if err != nil {
			return 0, err
		}
		return len(languages), s.store.SaveLanguages(ctx, languages)
	})
}

// EnsureRecitations populates the recitation list once.
func (s *Service) EnsureRecitations(ctx context.Context) (domain.SyncResult, error) {
	return s.ensureList(ctx, domain.KindRecitations, func() (int, error) {
		recitations, err := s.source.GetRecitations(ctx)
		if err != nil {
			return 0, err
		}
		return len(recitations), s.store.SaveRecitations(ctx, recitations)
	})
}

// --- Private helpers ---

// ensureList runs the ledger-gated pattern for catalog-wide lists.
// fetchAndSave must mark the ledger as part of its save.
func (s *Service) ensureList(ctx context.Context, kind domain.PopulationKind, fetchAndSave func() (int, error)) (domain.SyncResult, error) {
	return s.once(ctx, string(kind), func() (domain.SyncResult, error) {
		result := domain.SyncResult{Kind: kind}

		populated, err := s.store.IsPopulated(ctx, kind)
		if err != nil {
			return result, err
		}
		if populated {
			result.FromCache = true
			return result, nil
		}

		count, err := fetchAndSave()
		if err != nil {
			s.logger.Error("failed to populate", "kind", kind, "error", err)
			return result, err
		}
		s.logger.Debug("populated", "kind", kind, "count", count)
		result.Count = count
		return result, nil
	})
}

// once runs fn for key unless an identical populate is already running,
// in which case the caller shares its result.
func (s *Service) once(ctx context.Context, key string, fn func() (domain.SyncResult, error)) (domain.SyncResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.SyncResult{}, err
	}
	v, err, _ := s.inflight.Do(key, func() (any, error) {
		return fn()
	})
	return v.(domain.SyncResult), err
}

func validChapter(id int) error {
	if !domain.ValidChapter(id) {
		return fmt.Errorf("%w: chapter %d", domain.ErrInvalidKey, id)
	}
	return nil
}

// fetchAll is a generic pagination helper over 1-based pages.
func fetchAll[T any](
	ctx context.Context,
	fetch func(ctx context.Context, page, perPage int) ([]T, int, error),
	perPage int,
	onProgress domain.ProgressFunc,
) ([]T, error) {
	if perPage <= 0 {
		perPage = defaultPageSize
	}

	var all []T
	page := 1

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		items, total, err := fetch(ctx, page, perPage)
		if err != nil {
			return nil, err
		}

		all = append(all, items...)

		if onProgress != nil {
			onProgress(len(all), total)
		}

		if len(all) >= total || len(items) == 0 {
			break
		}
		page++
	}

	return all, nil
}
