package library

import (
	"context"
	"fmt"

	"github.com/mmcdole/tilawa/internal/domain"
)

// Queries provides reads that populate implicitly: every call first ensures
// its scope is cached, then reads from the store.
type Queries struct {
	svc   *Service
	store domain.ContentStore
}

// NewQueries creates a new Queries instance.
func NewQueries(svc *Service, store domain.ContentStore) *Queries {
	return &Queries{svc: svc, store: store}
}

func (q *Queries) Chapters(ctx context.Context) ([]domain.Chapter, error) {
	if _, err := q.svc.EnsureChapters(ctx); err != nil {
		return nil, err
	}
	return q.store.Chapters(ctx)
}

func (q *Queries) Chapter(ctx context.Context, id int) (domain.Chapter, error) {
	if err := validChapter(id); err != nil {
		return domain.Chapter{}, err
	}
	if _, err := q.svc.EnsureChapters(ctx); err != nil {
		return domain.Chapter{}, err
	}
	return q.store.Chapter(ctx, id)
}

func (q *Queries) ChapterInfo(ctx context.Context, id int) (domain.ChapterInfo, error) {
	if _, err := q.svc.EnsureChapterInfo(ctx, id); err != nil {
		return domain.ChapterInfo{}, err
	}
	return q.store.ChapterInfo(ctx, id)
}

func (q *Queries) Verse(ctx context.Context, key domain.VerseKey) (domain.Verse, error) {
	chapter, _, err := key.Parts()
	if err != nil {
		return domain.Verse{}, err
	}
	if _, err := q.svc.EnsureVerses(ctx, chapter, nil); err != nil {
		return domain.Verse{}, err
	}
	return q.store.Verse(ctx, key)
}

func (q *Queries) VersesByChapter(ctx context.Context, chapterID int) ([]domain.Verse, error) {
	return q.VersesByRange(ctx, chapterID, 0, 0)
}

// VersesByRange returns verses from..to of a chapter. Zero bounds are open.
func (q *Queries) VersesByRange(ctx context.Context, chapterID, from, to int) ([]domain.Verse, error) {
	if from > 0 && to > 0 && from > to {
		return nil, fmt.Errorf("%w: range %d-%d", domain.ErrInvalidKey, from, to)
	}
	if _, err := q.svc.EnsureVerses(ctx, chapterID, nil); err != nil {
		return nil, err
	}
	return q.store.Verses(ctx, domain.VerseFilter{ChapterID: chapterID, From: from, To: to})
}

// VersesByPage populates the chapters spanning page, then reads the page.
func (q *Queries) VersesByPage(ctx context.Context, page int) ([]domain.Verse, error) {
	if page < 1 || page > PageCount {
		return nil, fmt.Errorf("%w: page %d", domain.ErrInvalidKey, page)
	}
	chapters, err := q.Chapters(ctx)
	if err != nil {
		return nil, err
	}
	if err := q.ensureVerses(ctx, chaptersOnPage(chapters, page)); err != nil {
		return nil, err
	}
	return q.store.Verses(ctx, domain.VerseFilter{Page: page})
}

func (q *Queries) VersesByJuz(ctx context.Context, juz int) ([]domain.Verse, error) {
	ids, err := ChaptersInJuz(juz)
	if err != nil {
		return nil, err
	}
	if err := q.ensureVerses(ctx, ids); err != nil {
		return nil, err
	}
	return q.store.Verses(ctx, domain.VerseFilter{Juz: juz})
}

func (q *Queries) VersesByHizb(ctx context.Context, hizb int) ([]domain.Verse, error) {
	juz, err := JuzOfHizb(hizb)
	if err != nil {
		return nil, err
	}
	ids, err := ChaptersInJuz(juz)
	if err != nil {
		return nil, err
	}
	if err := q.ensureVerses(ctx, ids); err != nil {
		return nil, err
	}
	return q.store.Verses(ctx, domain.VerseFilter{Hizb: hizb})
}

func (q *Queries) Tafsir(ctx context.Context, key domain.VerseKey, resourceID int) (domain.TafsirEntry, error) {
	chapter, _, err := key.Parts()
	if err != nil {
		return domain.TafsirEntry{}, err
	}
	if _, err := q.svc.EnsureTafsirs(ctx, chapter, resourceID, nil); err != nil {
		return domain.TafsirEntry{}, err
	}
	return q.store.Tafsir(ctx, key, resourceID)
}

func (q *Queries) TafsirsByChapter(ctx context.Context, chapterID, resourceID int) ([]domain.TafsirEntry, error) {
	if _, err := q.svc.EnsureTafsirs(ctx, chapterID, resourceID, nil); err != nil {
		return nil, err
	}
	return q.store.TafsirsByChapter(ctx, chapterID, resourceID)
}

func (q *Queries) Resources(ctx context.Context, kind domain.ResourceKind) ([]domain.Resource, error) {
	if _, err := q.svc.EnsureResources(ctx, kind); err != nil {
		return nil, err
	}
	return q.store.Resources(ctx, kind)
}

func (q *Queries) Languages(ctx context.Context) ([]domain.Language, error) {
	if _, err := q.svc.EnsureLanguages(ctx); err != nil {
		return nil, err
	}
	return q.store.Languages(ctx)
}

func (q *Queries) Recitations(ctx context.Context) ([]domain.Recitation, error) {
	if _, err := q.svc.EnsureRecitations(ctx); err != nil {
		return nil, err
	}
	return q.store.Recitations(ctx)
}

// Status returns the population ledger. It never triggers population.
func (q *Queries) Status(ctx context.Context) ([]domain.PopulationStatus, error) {
	return q.store.PopulationStatuses(ctx)
}

func (q *Queries) ensureVerses(ctx context.Context, ids []int) error {
	for _, id := range ids {
		if _, err := q.svc.EnsureVerses(ctx, id, nil); err != nil {
			return err
		}
	}
	return nil
}
