package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mmcdole/tilawa/internal/domain"
)

const verseColumns = `verse_key, remote_id, chapter_id, verse_number, text_uthmani,
	page_number, juz_number, hizb_number, rub_el_hizb, translations, words`

// SaveVerses writes every verse of one chapter in a single transaction,
// so a chapter is either fully cached or absent.
func (s *Store) SaveVerses(ctx context.Context, chapterID int, verses []domain.Verse) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO verses (`+verseColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(verse_key) DO NOTHING`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, v := range verses {
			if v.ChapterID != chapterID {
				return fmt.Errorf("verse %s does not belong to chapter %d", v.Key, chapterID)
			}
			translations, err := json.Marshal(nonNil(v.Translations))
			if err != nil {
				return fmt.Errorf("encode translations %s: %w", v.Key, err)
			}
			words, err := json.Marshal(nonNil(v.Words))
			if err != nil {
				return fmt.Errorf("encode words %s: %w", v.Key, err)
			}
			if _, err := stmt.ExecContext(ctx,
				string(v.Key), v.ID, v.ChapterID, v.VerseNumber, v.TextUthmani,
				v.PageNumber, v.JuzNumber, v.HizbNumber, v.RubElHizb,
				string(translations), string(words),
			); err != nil {
				return fmt.Errorf("insert verse %s: %w", v.Key, err)
			}
		}
		return nil
	})
}

// HasVerses reports whether any verse of a chapter is cached.
func (s *Store) HasVerses(ctx context.Context, chapterID int) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM verses WHERE chapter_id = ? LIMIT 1`, chapterID)
}

// CountVerses counts cached verses across all chapters.
func (s *Store) CountVerses(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM verses`)
}

// Verses returns verses matching every non-zero filter field in reading order.
func (s *Store) Verses(ctx context.Context, f domain.VerseFilter) ([]domain.Verse, error) {
	var (
		where []string
		args  []any
	)
	if f.ChapterID > 0 {
		where = append(where, "chapter_id = ?")
		args = append(args, f.ChapterID)
	}
	if f.From > 0 {
		where = append(where, "verse_number >= ?")
		args = append(args, f.From)
	}
	if f.To > 0 {
		where = append(where, "verse_number <= ?")
		args = append(args, f.To)
	}
	if f.Page > 0 {
		where = append(where, "page_number = ?")
		args = append(args, f.Page)
	}
	if f.Juz > 0 {
		where = append(where, "juz_number = ?")
		args = append(args, f.Juz)
	}
	if f.Hizb > 0 {
		where = append(where, "hizb_number = ?")
		args = append(args, f.Hizb)
	}

	query := `SELECT ` + verseColumns + ` FROM verses`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY chapter_id, verse_number"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query verses: %w", err)
	}
	defer rows.Close()

	var out []domain.Verse
	for rows.Next() {
		v, err := scanVerse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Verse returns one cached verse or ErrNotFound.
func (s *Store) Verse(ctx context.Context, key domain.VerseKey) (domain.Verse, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+verseColumns+` FROM verses WHERE verse_key = ?`, string(key))
	v, err := scanVerse(row)
	if err == sql.ErrNoRows {
		return domain.Verse{}, fmt.Errorf("verse %s: %w", key, domain.ErrNotFound)
	}
	return v, err
}

func scanVerse(sc scanner) (domain.Verse, error) {
	var (
		v                   domain.Verse
		key                 string
		translations, words string
	)
	if err := sc.Scan(&key, &v.ID, &v.ChapterID, &v.VerseNumber, &v.TextUthmani,
		&v.PageNumber, &v.JuzNumber, &v.HizbNumber, &v.RubElHizb, &translations, &words); err != nil {
		return v, err
	}
	v.Key = domain.VerseKey(key)
	if err := json.Unmarshal([]byte(translations), &v.Translations); err != nil {
		return v, fmt.Errorf("decode translations %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(words), &v.Words); err != nil {
		return v, fmt.Errorf("decode words %s: %w", key, err)
	}
	return v, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
