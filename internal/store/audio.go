package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmcdole/tilawa/internal/domain"
)

// === Audio cache index ===

const audioColumns = `verse_key, narrator, path, size_bytes, created_at, last_accessed`

// AudioEntry looks up the index entry of a verse and narrator.
func (s *Store) AudioEntry(ctx context.Context, key domain.VerseKey, narrator string) (domain.AudioEntry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+audioColumns+` FROM audio_cache WHERE verse_key = ? AND narrator = ?`, string(key), narrator)
	e, err := scanAudioEntry(row)
	if err == sql.ErrNoRows {
		return domain.AudioEntry{}, false, nil
	}
	if err != nil {
		return domain.AudioEntry{}, false, fmt.Errorf("query audio entry: %w", err)
	}
	return e, true, nil
}

// SaveAudioEntry upserts an index entry after a completed download.
func (s *Store) SaveAudioEntry(ctx context.Context, e domain.AudioEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	if e.LastAccessed.IsZero() {
		e.LastAccessed = e.CreatedAt
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audio_cache (`+audioColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(verse_key, narrator) DO UPDATE SET
		   path = excluded.path,
		   size_bytes = excluded.size_bytes,
		   created_at = excluded.created_at,
		   last_accessed = excluded.last_accessed`,
		string(e.VerseKey), e.Narrator, e.Path, e.SizeBytes, toUnix(e.CreatedAt), toUnix(e.LastAccessed),
	)
	if err != nil {
		return fmt.Errorf("save audio entry %s/%s: %w", e.VerseKey, e.Narrator, err)
	}
	return nil
}

// DeleteAudioEntry removes one index entry.
func (s *Store) DeleteAudioEntry(ctx context.Context, key domain.VerseKey, narrator string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM audio_cache WHERE verse_key = ? AND narrator = ?`, string(key), narrator)
	if err != nil {
		return fmt.Errorf("delete audio entry %s/%s: %w", key, narrator, err)
	}
	return nil
}

// TouchAudioEntry records an access for LRU eviction.
func (s *Store) TouchAudioEntry(ctx context.Context, key domain.VerseKey, narrator string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE audio_cache SET last_accessed = ? WHERE verse_key = ? AND narrator = ?`,
		toUnix(at), string(key), narrator)
	return err
}

// AudioEntriesByAccess lists entries least recently accessed first.
func (s *Store) AudioEntriesByAccess(ctx context.Context) ([]domain.AudioEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+audioColumns+` FROM audio_cache ORDER BY last_accessed, verse_key`)
	if err != nil {
		return nil, fmt.Errorf("query audio entries: %w", err)
	}
	defer rows.Close()

	var out []domain.AudioEntry
	for rows.Next() {
		e, err := scanAudioEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// AudioUsage returns the entry count and total size of the index.
func (s *Store) AudioUsage(ctx context.Context) (int, int64, error) {
	var (
		count int
		bytes int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM audio_cache`).Scan(&count, &bytes)
	if err != nil {
		return 0, 0, fmt.Errorf("query audio usage: %w", err)
	}
	return count, bytes, nil
}

// DeleteAllAudioEntries empties the index.
func (s *Store) DeleteAllAudioEntries(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM audio_cache`)
	return err
}

func scanAudioEntry(row scanner) (domain.AudioEntry, error) {
	var (
		e                     domain.AudioEntry
		key                   string
		createdAt, lastAccess int64
	)
	if err := row.Scan(&key, &e.Narrator, &e.Path, &e.SizeBytes, &createdAt, &lastAccess); err != nil {
		return e, err
	}
	e.VerseKey = domain.VerseKey(key)
	e.CreatedAt = fromUnix(createdAt)
	e.LastAccessed = fromUnix(lastAccess)
	return e, nil
}
