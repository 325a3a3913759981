// Package librarytest provides an in-memory content source for tests.
package librarytest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mmcdole/tilawa/internal/domain"
)

// Source is a deterministic domain.ContentSource over the full chapter
// catalog. It counts remote calls and can fail selected chapters.
type Source struct {
	mu sync.Mutex

	// VerseCounts overrides the default of 3 verses per chapter
	VerseCounts map[int]int
	// FailChapters makes GetVerses and GetTafsirs fail for these chapters
	FailChapters map[int]error
	// MissingTafsir lists verse keys that carry no tafsir payload
	MissingTafsir map[domain.VerseKey]bool
	// Delay is added to every GetVerses call
	Delay time.Duration

	calls       map[string]int
	inflight    int
	maxInflight int
}

var _ domain.ContentSource = (*Source)(nil)

// NewSource creates a source with realistic sizes for the chapters used in tests.
func NewSource() *Source {
	return &Source{
		VerseCounts:   map[int]int{1: 7, 112: 4, 113: 5, 114: 6},
		FailChapters:  map[int]error{},
		MissingTafsir: map[domain.VerseKey]bool{},
		calls:         map[string]int{},
	}
}

// Calls returns how many times method was called, optionally per chapter ("GetVerses:112").
func (s *Source) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

// SetFailure makes chapter fail with err, or succeed again when err is nil.
func (s *Source) SetFailure(chapter int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.FailChapters, chapter)
		return
	}
	s.FailChapters[chapter] = err
}

func (s *Source) record(name string, chapter int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[name]++
	if chapter > 0 {
		s.calls[fmt.Sprintf("%s:%d", name, chapter)]++
		if err, ok := s.FailChapters[chapter]; ok {
			return err
		}
	}
	return nil
}

// MaxInFlight returns the peak number of concurrent GetVerses calls.
func (s *Source) MaxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInflight
}

// InFlight returns the number of GetVerses calls running now.
func (s *Source) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight
}

func (s *Source) enter() {
	s.mu.Lock()
	s.inflight++
	s.maxInflight = max(s.maxInflight, s.inflight)
	delay := s.Delay
	s.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
}

func (s *Source) leave() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

func (s *Source) verseCount(chapter int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.VerseCounts[chapter]; ok {
		return n
	}
	return 3
}

// Page returns the mushaf page assigned to a chapter's verses.
func Page(chapter int) int {
	switch {
	case chapter == 1:
		return 1
	case chapter >= 112:
		return 604
	default:
		return chapter + 1
	}
}

// Juz returns the juz assigned to a chapter's verses.
func Juz(chapter int) int {
	if chapter >= 78 {
		return 30
	}
	return 1
}

func (s *Source) GetChapters(ctx context.Context) ([]domain.Chapter, error) {
	if err := s.record("GetChapters", 0); err != nil {
		return nil, err
	}
	chapters := make([]domain.Chapter, 0, domain.ChapterCount)
	for id := 1; id <= domain.ChapterCount; id++ {
		page := Page(id)
		chapters = append(chapters, domain.Chapter{
			ID:          id,
			NameSimple:  fmt.Sprintf("Chapter %d", id),
			VersesCount: s.verseCount(id),
			Pages:       domain.PageRange{First: page, Last: page},
		})
	}
	return chapters, nil
}

func (s *Source) GetChapterInfo(ctx context.Context, chapterID int) (*domain.ChapterInfo, error) {
	if err := s.record("GetChapterInfo", chapterID); err != nil {
		return nil, err
	}
	return &domain.ChapterInfo{ChapterID: chapterID, LanguageName: "english", Text: fmt.Sprintf("About %d", chapterID)}, nil
}

func (s *Source) GetVerses(ctx context.Context, chapterID, page, perPage int) ([]domain.Verse, int, error) {
	s.enter()
	defer s.leave()
	if err := s.record("GetVerses", chapterID); err != nil {
		return nil, 0, err
	}
	total := s.verseCount(chapterID)
	var verses []domain.Verse
	for n := (page-1)*perPage + 1; n <= min(page*perPage, total); n++ {
		verses = append(verses, domain.Verse{
			ID:          chapterID*1000 + n,
			Key:         domain.NewVerseKey(chapterID, n),
			ChapterID:   chapterID,
			VerseNumber: n,
			TextUthmani: fmt.Sprintf("verse %d:%d", chapterID, n),
			PageNumber:  Page(chapterID),
			JuzNumber:   Juz(chapterID),
			HizbNumber:  Juz(chapterID) * 2,
		})
	}
	return verses, total, nil
}

func (s *Source) GetTafsirs(ctx context.Context, chapterID, resourceID, page, perPage int) ([]domain.TafsirEntry, int, error) {
	if err := s.record("GetTafsirs", chapterID); err != nil {
		return nil, 0, err
	}
	total := s.verseCount(chapterID)
	var entries []domain.TafsirEntry
	for n := (page-1)*perPage + 1; n <= min(page*perPage, total); n++ {
		key := domain.NewVerseKey(chapterID, n)
		entry := domain.TafsirEntry{VerseKey: key, ResourceID: resourceID}
		s.mu.Lock()
		missing := s.MissingTafsir[key]
		s.mu.Unlock()
		if !missing {
			entry.ResourceName = "Ibn Kathir (Abridged)"
			entry.LanguageName = "english"
			entry.Text = fmt.Sprintf("tafsir %s", key)
		}
		entries = append(entries, entry)
	}
	return entries, total, nil
}

func (s *Source) GetResources(ctx context.Context, kind domain.ResourceKind) ([]domain.Resource, error) {
	if err := s.record("GetResources", 0); err != nil {
		return nil, err
	}
	if kind == domain.ResourceTafsir {
		return []domain.Resource{
			{ID: 169, Name: "Ibn Kathir (Abridged)", LanguageName: "english"},
			{ID: 168, Name: "Ma'arif al-Qur'an", LanguageName: "english"},
			{ID: 16, Name: "Tafsir Muyassar", LanguageName: "arabic"},
		}, nil
	}
	return []domain.Resource{
		{ID: 131, Name: "Dr. Mustafa Khattab, The Clear Quran", LanguageName: "english"},
		{ID: 20, Name: "Saheeh International", LanguageName: "english"},
	}, nil
}

func (s *Source) GetLanguages(ctx context.Context) ([]domain.Language, error) {
	if err := s.record("GetLanguages", 0); err != nil {
		return nil, err
	}
	return []domain.Language{{ID: 38, Name: "English", ISOCode: "en", Direction: "ltr"}}, nil
}

func (s *Source) GetRecitations(ctx context.Context) ([]domain.Recitation, error) {
	if err := s.record("GetRecitations", 0); err != nil {
		return nil, err
	}
	return []domain.Recitation{{ID: 7, ReciterName: "Mishari Rashid al-Afasy", Style: "murattal"}}, nil
}
