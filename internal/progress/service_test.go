package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/tilawa/internal/adapter"
	"github.com/mmcdole/tilawa/internal/domain"
	"github.com/mmcdole/tilawa/internal/store"
)

var epoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, now func() time.Time) *Service {
	t.Helper()
	st, err := store.Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewService(st, adapter.NullLogger(), WithClock(now))
}

func TestProgressAyatAlKursi(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, func() time.Time { return epoch })

	_, ok, err := svc.Progress(ctx, "2:255")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.MarkRead(ctx, domain.VerseRef{Key: "2:255", ChapterID: 2, VerseNumber: 255, PageNumber: 42}))

	entry, ok, err := svc.Progress(ctx, "2:255")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, entry.IsRead)
	assert.False(t, entry.IsBookmarked)
	assert.NotNil(t, entry.ReadAt)
	assert.Nil(t, entry.BookmarkedAt)
	assert.Equal(t, 42, entry.PageNumber)
}

func TestBookmarkTimestampMonotonic(t *testing.T) {
	ctx := context.Background()
	// A frozen clock still yields strictly increasing stamps.
	svc := newTestService(t, func() time.Time { return epoch })
	ref := domain.VerseRef{Key: "18:10", PageNumber: 294}

	on, err := svc.ToggleBookmark(ctx, ref)
	require.NoError(t, err)
	require.True(t, on)
	first, _, err := svc.Progress(ctx, ref.Key)
	require.NoError(t, err)
	require.NotNil(t, first.BookmarkedAt)

	off, err := svc.ToggleBookmark(ctx, ref)
	require.NoError(t, err)
	require.False(t, off)
	cleared, _, err := svc.Progress(ctx, ref.Key)
	require.NoError(t, err)
	require.NotNil(t, cleared.BookmarkedAt)
	assert.True(t, cleared.BookmarkedAt.Equal(*first.BookmarkedAt))

	on, err = svc.ToggleBookmark(ctx, ref)
	require.NoError(t, err)
	require.True(t, on)
	again, _, err := svc.Progress(ctx, ref.Key)
	require.NoError(t, err)
	assert.True(t, again.BookmarkedAt.After(*first.BookmarkedAt))
	assert.Equal(t, 18, again.ChapterID)
	assert.Equal(t, 10, again.VerseNumber)
}

func TestMarkUnreadKeepsReadAt(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Now)

	require.NoError(t, svc.MarkRead(ctx, domain.VerseRef{Key: "36:1"}))
	read, _, err := svc.Progress(ctx, "36:1")
	require.NoError(t, err)

	require.NoError(t, svc.MarkUnread(ctx, "36:1"))
	unread, _, err := svc.Progress(ctx, "36:1")
	require.NoError(t, err)
	assert.False(t, unread.IsRead)
	require.NotNil(t, unread.ReadAt)
	assert.True(t, unread.ReadAt.Equal(*read.ReadAt))

	// Unread on a verse with no progress records nothing.
	require.NoError(t, svc.MarkUnread(ctx, "36:2"))
	_, ok, err := svc.Progress(ctx, "36:2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRejectsMismatchedRef(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Now)

	err := svc.MarkRead(ctx, domain.VerseRef{Key: "2:255", ChapterID: 3, VerseNumber: 255})
	assert.ErrorIs(t, err, domain.ErrInvalidKey)

	_, err = svc.ToggleBookmark(ctx, domain.VerseRef{Key: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidKey)

	_, _, err = svc.Progress(ctx, "115:1")
	assert.ErrorIs(t, err, domain.ErrInvalidKey)
}

func TestOverlayAndBulk(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Now)

	verses := []domain.Verse{
		{Key: "112:1", ChapterID: 112, VerseNumber: 1, PageNumber: 604},
		{Key: "112:2", ChapterID: 112, VerseNumber: 2, PageNumber: 604},
		{Key: "112:3", ChapterID: 112, VerseNumber: 3, PageNumber: 604},
	}
	require.NoError(t, svc.MarkRead(ctx, RefFromVerse(verses[0])))
	_, err := svc.ToggleBookmark(ctx, RefFromVerse(verses[2]))
	require.NoError(t, err)

	bulk, err := svc.ProgressBulk(ctx, []domain.VerseKey{"112:1", "112:2", "112:3"})
	require.NoError(t, err)
	assert.Len(t, bulk, 2)
	assert.NotContains(t, bulk, domain.VerseKey("112:2"))

	overlay, err := svc.Overlay(ctx, verses)
	require.NoError(t, err)
	require.Len(t, overlay, 3)
	require.NotNil(t, overlay[0].Progress)
	assert.True(t, overlay[0].Progress.IsRead)
	assert.Nil(t, overlay[1].Progress)
	require.NotNil(t, overlay[2].Progress)
	assert.True(t, overlay[2].Progress.IsBookmarked)

	bookmarks, err := svc.RecentBookmarks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, domain.VerseKey("112:3"), bookmarks[0].VerseKey)

	last, ok, err := svc.LastRead(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.VerseKey("112:1"), last.VerseKey)
}

func TestOneEntryPerVerse(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Now)

	for _, key := range []domain.VerseKey{"2:0255", "02:255", "+2:255", " 2:255"} {
		err := svc.MarkRead(ctx, domain.VerseRef{Key: key})
		assert.ErrorIs(t, err, domain.ErrInvalidKey, key)
	}
	_, ok, err := svc.Progress(ctx, "2:255")
	require.NoError(t, err)
	assert.False(t, ok)

	on, err := svc.ToggleBookmark(ctx, domain.VerseRef{Key: "2:255"})
	require.NoError(t, err)
	assert.True(t, on)
	_, err = svc.ToggleBookmark(ctx, domain.VerseRef{Key: "02:255"})
	assert.ErrorIs(t, err, domain.ErrInvalidKey)

	entry, ok, err := svc.Progress(ctx, "2:255")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, entry.IsBookmarked)
}
