package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmcdole/tilawa/internal/domain"
)

const chapterColumns = `id, name_simple, name_complex, name_arabic, translated_name,
	revelation_place, revelation_order, bismillah_pre, verses_count, page_first, page_last`

// SaveChapters inserts the catalog and marks the ledger in one transaction.
// Chapters are immutable: existing rows are left alone.
func (s *Store) SaveChapters(ctx context.Context, chapters []domain.Chapter) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO chapters (`+chapterColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range chapters {
			if _, err := stmt.ExecContext(ctx,
				c.ID, c.NameSimple, c.NameComplex, c.NameArabic, c.TranslatedName,
				c.RevelationPlace, c.RevelationOrder, boolToInt(c.BismillahPre), c.VersesCount,
				c.Pages.First, c.Pages.Last,
			); err != nil {
				return fmt.Errorf("insert chapter %d: %w", c.ID, err)
			}
		}
		return s.markPopulated(ctx, tx, domain.KindChapters, len(chapters))
	})
}

// Chapters returns the catalog ordered by id.
func (s *Store) Chapters(ctx context.Context) ([]domain.Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+chapterColumns+` FROM chapters ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query chapters: %w", err)
	}
	defer rows.Close()

	var out []domain.Chapter
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Chapter returns one chapter or ErrNotFound.
func (s *Store) Chapter(ctx context.Context, id int) (domain.Chapter, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+chapterColumns+` FROM chapters WHERE id = ?`, id)
	c, err := scanChapter(row)
	if err == sql.ErrNoRows {
		return domain.Chapter{}, fmt.Errorf("chapter %d: %w", id, domain.ErrNotFound)
	}
	return c, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChapter(sc scanner) (domain.Chapter, error) {
	var (
		c         domain.Chapter
		bismillah int
	)
	err := sc.Scan(&c.ID, &c.NameSimple, &c.NameComplex, &c.NameArabic, &c.TranslatedName,
		&c.RevelationPlace, &c.RevelationOrder, &bismillah, &c.VersesCount, &c.Pages.First, &c.Pages.Last)
	c.BismillahPre = bismillah == 1
	return c, err
}

// === Chapter info ===

// SaveChapterInfo upserts the introduction of a chapter.
func (s *Store) SaveChapterInfo(ctx context.Context, info domain.ChapterInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chapter_info (chapter_id, language_name, short_text, source, text)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(chapter_id) DO UPDATE SET
		   language_name = excluded.language_name,
		   short_text = excluded.short_text,
		   source = excluded.source,
		   text = excluded.text`,
		info.ChapterID, info.LanguageName, info.ShortText, info.Source, info.Text,
	)
	if err != nil {
		return fmt.Errorf("upsert chapter info %d: %w", info.ChapterID, err)
	}
	return nil
}

// HasChapterInfo reports whether the introduction is cached.
func (s *Store) HasChapterInfo(ctx context.Context, chapterID int) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM chapter_info WHERE chapter_id = ?`, chapterID)
}

// ChapterInfo returns the cached introduction or ErrNotFound.
func (s *Store) ChapterInfo(ctx context.Context, chapterID int) (domain.ChapterInfo, error) {
	info := domain.ChapterInfo{ChapterID: chapterID}
	err := s.db.QueryRowContext(ctx,
		`SELECT language_name, short_text, source, text FROM chapter_info WHERE chapter_id = ?`, chapterID,
	).Scan(&info.LanguageName, &info.ShortText, &info.Source, &info.Text)
	if err == sql.ErrNoRows {
		return info, fmt.Errorf("chapter info %d: %w", chapterID, domain.ErrNotFound)
	}
	return info, err
}
