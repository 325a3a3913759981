package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmcdole/tilawa/internal/domain"
)

// SaveTafsirs upserts the entries of one chapter and resource and records the
// chapter as populated in the same transaction. Re-population overwrites the
// text of an existing (verse, resource) row. entries may be empty when the
// resource has no text for any verse of the chapter.
func (s *Store) SaveTafsirs(ctx context.Context, chapterID, resourceID int, entries []domain.TafsirEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO tafsirs (verse_key, resource_id, chapter_id, resource_name, language_name, text)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(verse_key, resource_id) DO UPDATE SET
			   resource_name = excluded.resource_name,
			   language_name = excluded.language_name,
			   text = excluded.text`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			chapter, _, err := e.VerseKey.Parts()
			if err != nil {
				return err
			}
			if chapter != chapterID || e.ResourceID != resourceID {
				return fmt.Errorf("%w: tafsir %s/%d outside chapter %d resource %d",
					domain.ErrInvalidKey, e.VerseKey, e.ResourceID, chapterID, resourceID)
			}
			if _, err := stmt.ExecContext(ctx,
				string(e.VerseKey), e.ResourceID, chapter, e.ResourceName, e.LanguageName, e.Text,
			); err != nil {
				return fmt.Errorf("upsert tafsir %s/%d: %w", e.VerseKey, e.ResourceID, err)
			}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO tafsir_chapters (chapter_id, resource_id, entries, populated_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(chapter_id, resource_id) DO UPDATE SET
			   entries = excluded.entries,
			   populated_at = excluded.populated_at`,
			chapterID, resourceID, len(entries), toUnix(s.now()))
		if err != nil {
			return fmt.Errorf("mark tafsir %d for chapter %d: %w", resourceID, chapterID, err)
		}
		return nil
	})
}

// HasTafsirs reports whether a resource was populated for a chapter, including
// chapters where the resource has no text at all.
func (s *Store) HasTafsirs(ctx context.Context, chapterID, resourceID int) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM tafsir_chapters WHERE chapter_id = ? AND resource_id = ?`, chapterID, resourceID)
}

// CountTafsirs counts stored entries of a resource across all chapters.
func (s *Store) CountTafsirs(ctx context.Context, resourceID int) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM tafsirs WHERE resource_id = ?`, resourceID)
}

// Tafsir returns one cached entry or ErrNotFound.
func (s *Store) Tafsir(ctx context.Context, key domain.VerseKey, resourceID int) (domain.TafsirEntry, error) {
	e := domain.TafsirEntry{VerseKey: key, ResourceID: resourceID}
	err := s.db.QueryRowContext(ctx,
		`SELECT resource_name, language_name, text FROM tafsirs WHERE verse_key = ? AND resource_id = ?`,
		string(key), resourceID,
	).Scan(&e.ResourceName, &e.LanguageName, &e.Text)
	if err == sql.ErrNoRows {
		return e, fmt.Errorf("tafsir %s/%d: %w", key, resourceID, domain.ErrNotFound)
	}
	return e, err
}

// TafsirsByChapter joins against verses to return entries in reading order.
func (s *Store) TafsirsByChapter(ctx context.Context, chapterID, resourceID int) ([]domain.TafsirEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.verse_key, t.resource_name, t.language_name, t.text
		 FROM tafsirs t JOIN verses v ON v.verse_key = t.verse_key
		 WHERE t.chapter_id = ? AND t.resource_id = ?
		 ORDER BY v.verse_number`, chapterID, resourceID)
	if err != nil {
		return nil, fmt.Errorf("query tafsirs: %w", err)
	}
	defer rows.Close()

	var out []domain.TafsirEntry
	for rows.Next() {
		e := domain.TafsirEntry{ResourceID: resourceID}
		var key string
		if err := rows.Scan(&key, &e.ResourceName, &e.LanguageName, &e.Text); err != nil {
			return nil, err
		}
		e.VerseKey = domain.VerseKey(key)
		out = append(out, e)
	}
	return out, rows.Err()
}
