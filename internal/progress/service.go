package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/tilawa/internal/domain"
)

// Service records read and bookmark state per verse.
type Service struct {
	store  domain.ProgressStore
	now    func() time.Time
	logger *slog.Logger

	mu   sync.Mutex
	last time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the clock used for read and bookmark timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new progress service.
func NewService(store domain.ProgressStore, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: store, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VerseProgress pairs a cached verse with its progress; Progress is nil when unread and unbookmarked.
type VerseProgress struct {
	Verse    domain.Verse
	Progress *domain.ProgressEntry
}

func (s *Service) MarkRead(ctx context.Context, ref domain.VerseRef) error {
	ref, err := normalize(ref)
	if err != nil {
		return err
	}
	if err := s.store.MarkRead(ctx, ref, s.stamp()); err != nil {
		return err
	}
	s.logger.Debug("marked read", "verse", ref.Key)
	return nil
}

func (s *Service) MarkUnread(ctx context.Context, key domain.VerseKey) error {
	if _, _, err := key.Parts(); err != nil {
		return err
	}
	return s.store.MarkUnread(ctx, key, s.stamp())
}

// ToggleBookmark flips the bookmark and returns the new state.
func (s *Service) ToggleBookmark(ctx context.Context, ref domain.VerseRef) (bool, error) {
	ref, err := normalize(ref)
	if err != nil {
		return false, err
	}
	on, err := s.store.ToggleBookmark(ctx, ref, s.stamp())
	if err != nil {
		return false, err
	}
	s.logger.Debug("toggled bookmark", "verse", ref.Key, "bookmarked", on)
	return on, nil
}

// Progress returns the entry for key; ok is false when nothing was ever recorded.
func (s *Service) Progress(ctx context.Context, key domain.VerseKey) (domain.ProgressEntry, bool, error) {
	if _, _, err := key.Parts(); err != nil {
		return domain.ProgressEntry{}, false, err
	}
	return s.store.Progress(ctx, key)
}

// ProgressBulk returns entries for keys, omitting keys without progress.
func (s *Service) ProgressBulk(ctx context.Context, keys []domain.VerseKey) (map[domain.VerseKey]domain.ProgressEntry, error) {
	return s.store.ProgressBulk(ctx, keys)
}

func (s *Service) RecentBookmarks(ctx context.Context, limit int) ([]domain.ProgressEntry, error) {
	return s.store.RecentBookmarks(ctx, limit)
}

func (s *Service) LastRead(ctx context.Context) (domain.ProgressEntry, bool, error) {
	return s.store.LastRead(ctx)
}

// Overlay joins progress onto a range of cached verses with one bulk read.
func (s *Service) Overlay(ctx context.Context, verses []domain.Verse) ([]VerseProgress, error) {
	keys := make([]domain.VerseKey, len(verses))
	for i, v := range verses {
		keys[i] = v.Key
	}
	entries, err := s.store.ProgressBulk(ctx, keys)
	if err != nil {
		return nil, err
	}

	out := make([]VerseProgress, len(verses))
	for i, v := range verses {
		out[i] = VerseProgress{Verse: v}
		if e, ok := entries[v.Key]; ok {
			out[i].Progress = &e
		}
	}
	return out, nil
}

// RefFromVerse builds the progress reference of a cached verse.
func RefFromVerse(v domain.Verse) domain.VerseRef {
	return domain.VerseRef{
		Key:         v.Key,
		ChapterID:   v.ChapterID,
		VerseNumber: v.VerseNumber,
		PageNumber:  v.PageNumber,
	}
}

// stamp returns a strictly increasing timestamp so successive transitions
// always order after each other.
func (s *Service) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if !now.After(s.last) {
		now = s.last.Add(time.Nanosecond)
	}
	s.last = now
	return now
}

// normalize fills chapter and verse from the key and rejects mismatches.
func normalize(ref domain.VerseRef) (domain.VerseRef, error) {
	chapter, verse, err := ref.Key.Parts()
	if err != nil {
		return ref, err
	}
	if ref.ChapterID == 0 {
		ref.ChapterID = chapter
	}
	if ref.VerseNumber == 0 {
		ref.VerseNumber = verse
	}
	if ref.ChapterID != chapter || ref.VerseNumber != verse {
		return ref, fmt.Errorf("%w: %s does not match chapter %d verse %d", domain.ErrInvalidKey, ref.Key, ref.ChapterID, ref.VerseNumber)
	}
	if ref.PageNumber < 0 {
		return ref, fmt.Errorf("%w: page %d", domain.ErrInvalidKey, ref.PageNumber)
	}
	return ref, nil
}
