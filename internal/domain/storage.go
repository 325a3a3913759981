package domain

import (
	"context"
	"time"
)

// TokenStore persists token records. Only the token manager writes to it.
type TokenStore interface {
	// LatestToken returns the most recently created token record
	LatestToken(ctx context.Context) (Token, bool, error)
	SaveToken(ctx context.Context, tok Token) error
	// PurgeExpiredTokens deletes records with expiresAt < now
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// VerseFilter selects verses for a traversal order. Zero fields are ignored;
// From/To bound the verse number inside ChapterID.
type VerseFilter struct {
	ChapterID int
	From      int
	To        int
	Page      int
	Juz       int
	Hizb      int
}

// ContentStore holds the cached catalog and the population ledger.
// Entity caches are its only writers.
type ContentStore interface {
	// === Ledger ===
	PopulationStatus(ctx context.Context, kind PopulationKind) (PopulationStatus, error)
	PopulationStatuses(ctx context.Context) ([]PopulationStatus, error)
	// IsPopulated checks the ledger flag and that the table still holds totalRecords rows
	IsPopulated(ctx context.Context, kind PopulationKind) (bool, error)
	MarkPopulated(ctx context.Context, kind PopulationKind, total int) error

	// === Chapters (saving marks the ledger in the same transaction) ===
	SaveChapters(ctx context.Context, chapters []Chapter) error
	Chapters(ctx context.Context) ([]Chapter, error)
	Chapter(ctx context.Context, id int) (Chapter, error)

	SaveChapterInfo(ctx context.Context, info ChapterInfo) error
	HasChapterInfo(ctx context.Context, chapterID int) (bool, error)
	ChapterInfo(ctx context.Context, chapterID int) (ChapterInfo, error)

	// === Verses (per chapter) ===
	SaveVerses(ctx context.Context, chapterID int, verses []Verse) error
	HasVerses(ctx context.Context, chapterID int) (bool, error)
	Verses(ctx context.Context, filter VerseFilter) ([]Verse, error)
	Verse(ctx context.Context, key VerseKey) (Verse, error)
	CountVerses(ctx context.Context) (int, error)

	// === Tafsir (per chapter and resource) ===
	// SaveTafsirs also records the chapter as populated, even when entries is empty
	SaveTafsirs(ctx context.Context, chapterID, resourceID int, entries []TafsirEntry) error
	HasTafsirs(ctx context.Context, chapterID, resourceID int) (bool, error)
	Tafsir(ctx context.Context, key VerseKey, resourceID int) (TafsirEntry, error)
	TafsirsByChapter(ctx context.Context, chapterID, resourceID int) ([]TafsirEntry, error)
	CountTafsirs(ctx context.Context, resourceID int) (int, error)

	// === Resources (saving marks the ledger in the same transaction) ===
	SaveResources(ctx context.Context, kind ResourceKind, resources []Resource) error
	Resources(ctx context.Context, kind ResourceKind) ([]Resource, error)
	SaveLanguages(ctx context.Context, languages []Language) error
	Languages(ctx context.Context) ([]Language, error)
	SaveRecitations(ctx context.Context, recitations []Recitation) error
	Recitations(ctx context.Context) ([]Recitation, error)
}

// AudioIndex maps (verse, narrator) pairs to cached files. Only the audio cache writes to it.
type AudioIndex interface {
	AudioEntry(ctx context.Context, key VerseKey, narrator string) (AudioEntry, bool, error)
	SaveAudioEntry(ctx context.Context, entry AudioEntry) error
	DeleteAudioEntry(ctx context.Context, key VerseKey, narrator string) error
	TouchAudioEntry(ctx context.Context, key VerseKey, narrator string, at time.Time) error
	// AudioEntriesByAccess returns entries least recently accessed first
	AudioEntriesByAccess(ctx context.Context) ([]AudioEntry, error)
	AudioUsage(ctx context.Context) (count int, bytes int64, err error)
	DeleteAllAudioEntries(ctx context.Context) error
}

// VerseRef locates a verse for progress writes.
type VerseRef struct {
	Key         VerseKey
	ChapterID   int
	VerseNumber int
	PageNumber  int
}

// ProgressStore records per-verse reading state. All writes are single upserts.
type ProgressStore interface {
	MarkRead(ctx context.Context, ref VerseRef, at time.Time) error
	MarkUnread(ctx context.Context, key VerseKey, at time.Time) error
	// ToggleBookmark flips the flag and returns the new state
	ToggleBookmark(ctx context.Context, ref VerseRef, at time.Time) (bool, error)
	Progress(ctx context.Context, key VerseKey) (ProgressEntry, bool, error)
	ProgressBulk(ctx context.Context, keys []VerseKey) (map[VerseKey]ProgressEntry, error)
	RecentBookmarks(ctx context.Context, limit int) ([]ProgressEntry, error)
	LastRead(ctx context.Context) (ProgressEntry, bool, error)
}
