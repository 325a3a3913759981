package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmcdole/tilawa/internal/domain"
)

// === User progress ===

const progressColumns = `verse_key, chapter_id, verse_number, page_number, is_read, is_bookmarked, read_at, bookmarked_at, updated_at`

// bulkChunk keeps IN lists under SQLite's bound-parameter limit.
const bulkChunk = 500

// MarkRead sets is_read and stamps read_at only on the false->true transition.
func (s *Store) MarkRead(ctx context.Context, ref domain.VerseRef, at time.Time) error {
	ts := toUnix(at)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_progress (verse_key, chapter_id, verse_number, page_number, is_read, read_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT(verse_key) DO UPDATE SET
		   read_at = CASE WHEN user_progress.is_read = 1 THEN user_progress.read_at ELSE excluded.read_at END,
		   is_read = 1,
		   page_number = CASE WHEN excluded.page_number > 0 THEN excluded.page_number ELSE user_progress.page_number END,
		   updated_at = excluded.updated_at`,
		string(ref.Key), ref.ChapterID, ref.VerseNumber, ref.PageNumber, ts, ts,
	)
	if err != nil {
		return fmt.Errorf("mark %s read: %w", ref.Key, err)
	}
	return nil
}

// MarkUnread clears is_read and keeps read_at. Keys without progress are left absent.
func (s *Store) MarkUnread(ctx context.Context, key domain.VerseKey, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE user_progress SET is_read = 0, updated_at = ? WHERE verse_key = ?`, toUnix(at), string(key))
	if err != nil {
		return fmt.Errorf("mark %s unread: %w", key, err)
	}
	return nil
}

// ToggleBookmark flips is_bookmarked in one statement. bookmarked_at is stamped
// only when the flag becomes true and is never cleared.
func (s *Store) ToggleBookmark(ctx context.Context, ref domain.VerseRef, at time.Time) (bool, error) {
	ts := toUnix(at)
	var bookmarked int
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO user_progress (verse_key, chapter_id, verse_number, page_number, is_bookmarked, bookmarked_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT(verse_key) DO UPDATE SET
		   bookmarked_at = CASE WHEN user_progress.is_bookmarked = 1 THEN user_progress.bookmarked_at ELSE excluded.bookmarked_at END,
		   is_bookmarked = CASE WHEN user_progress.is_bookmarked = 1 THEN 0 ELSE 1 END,
		   page_number = CASE WHEN excluded.page_number > 0 THEN excluded.page_number ELSE user_progress.page_number END,
		   updated_at = excluded.updated_at
		 RETURNING is_bookmarked`,
		string(ref.Key), ref.ChapterID, ref.VerseNumber, ref.PageNumber, ts, ts,
	).Scan(&bookmarked)
	if err != nil {
		return false, fmt.Errorf("toggle bookmark %s: %w", ref.Key, err)
	}
	return bookmarked == 1, nil
}

// Progress returns the entry for key; ok is false when none was recorded.
func (s *Store) Progress(ctx context.Context, key domain.VerseKey) (domain.ProgressEntry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+progressColumns+` FROM user_progress WHERE verse_key = ?`, string(key))
	e, err := scanProgress(row)
	if err == sql.ErrNoRows {
		return domain.ProgressEntry{}, false, nil
	}
	if err != nil {
		return domain.ProgressEntry{}, false, fmt.Errorf("query progress %s: %w", key, err)
	}
	return e, true, nil
}

// ProgressBulk omits keys with no recorded progress.
func (s *Store) ProgressBulk(ctx context.Context, keys []domain.VerseKey) (map[domain.VerseKey]domain.ProgressEntry, error) {
	out := make(map[domain.VerseKey]domain.ProgressEntry, len(keys))
	for start := 0; start < len(keys); start += bulkChunk {
		end := min(start+bulkChunk, len(keys))
		chunk := keys[start:end]

		args := make([]any, len(chunk))
		for i, k := range chunk {
			args[i] = string(k)
		}
		entries, err := s.queryProgress(ctx,
			`SELECT `+progressColumns+` FROM user_progress WHERE verse_key IN (`+placeholders(len(chunk))+`)`, args...)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			out[e.VerseKey] = e
		}
	}
	return out, nil
}

// RecentBookmarks returns currently bookmarked verses, newest bookmark first.
func (s *Store) RecentBookmarks(ctx context.Context, limit int) ([]domain.ProgressEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryProgress(ctx,
		`SELECT `+progressColumns+` FROM user_progress
		 WHERE is_bookmarked = 1
		 ORDER BY bookmarked_at DESC, verse_key
		 LIMIT ?`, limit)
}

// LastRead returns the read verse with the latest read_at.
func (s *Store) LastRead(ctx context.Context) (domain.ProgressEntry, bool, error) {
	entries, err := s.queryProgress(ctx,
		`SELECT `+progressColumns+` FROM user_progress
		 WHERE is_read = 1
		 ORDER BY read_at DESC, chapter_id DESC, verse_number DESC
		 LIMIT 1`)
	if err != nil {
		return domain.ProgressEntry{}, false, err
	}
	if len(entries) == 0 {
		return domain.ProgressEntry{}, false, nil
	}
	return entries[0], true, nil
}

func (s *Store) queryProgress(ctx context.Context, query string, args ...any) ([]domain.ProgressEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	var out []domain.ProgressEntry
	for rows.Next() {
		e, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanProgress(row scanner) (domain.ProgressEntry, error) {
	var (
		e                    domain.ProgressEntry
		key                  string
		isRead, isBookmarked int
		readAt, bookmarkedAt sql.NullInt64
		updatedAt            int64
	)
	err := row.Scan(&key, &e.ChapterID, &e.VerseNumber, &e.PageNumber,
		&isRead, &isBookmarked, &readAt, &bookmarkedAt, &updatedAt)
	if err != nil {
		return e, err
	}
	e.VerseKey = domain.VerseKey(key)
	e.IsRead = isRead == 1
	e.IsBookmarked = isBookmarked == 1
	e.ReadAt = fromNullUnix(readAt)
	e.BookmarkedAt = fromNullUnix(bookmarkedAt)
	e.UpdatedAt = fromUnix(updatedAt)
	return e, nil
}
