package domain

import (
	"context"
)

// ContentSource is the remote content API (implemented by the quran client).
// Paginated calls take a 1-based page and return the total record count of the listing.
type ContentSource interface {
	// GetChapters returns the full chapter catalog
	GetChapters(ctx context.Context) ([]Chapter, error)

	// GetChapterInfo returns the long-form introduction of a chapter
	GetChapterInfo(ctx context.Context, chapterID int) (*ChapterInfo, error)

	// GetVerses returns one page of a chapter's verses
	GetVerses(ctx context.Context, chapterID, page, perPage int) ([]Verse, int, error)

	// GetTafsirs returns one page of tafsir entries for a chapter, one per verse.
	// Verses without a payload for the resource carry an empty Text.
	GetTafsirs(ctx context.Context, chapterID, resourceID, page, perPage int) ([]TafsirEntry, int, error)

	// GetResources lists translation or tafsir resources
	GetResources(ctx context.Context, kind ResourceKind) ([]Resource, error)

	// GetLanguages lists the languages offered by the API
	GetLanguages(ctx context.Context) ([]Language, error)

	// GetRecitations lists audio recitations
	GetRecitations(ctx context.Context) ([]Recitation, error)
}

// TokenSource hands out a usable access token.
type TokenSource interface {
	// GetToken returns the cached token while it is valid, or exchanges
	// client credentials for a new one. forceFresh skips the cache.
	GetToken(ctx context.Context, forceFresh bool) (Token, error)
}
