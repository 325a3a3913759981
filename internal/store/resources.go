package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmcdole/tilawa/internal/domain"
)

// === Translation and tafsir resources ===

func resourceKindLedger(kind domain.ResourceKind) (domain.PopulationKind, error) {
	switch kind {
	case domain.ResourceTranslation:
		return domain.KindTranslations, nil
	case domain.ResourceTafsir:
		return domain.KindTafsirResources, nil
	default:
		return "", fmt.Errorf("unknown resource kind %q", kind)
	}
}

// SaveResources upserts the resources of kind and marks the ledger.
func (s *Store) SaveResources(ctx context.Context, kind domain.ResourceKind, resources []domain.Resource) error {
	ledgerKind, err := resourceKindLedger(kind)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range resources {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO resources (kind, id, name, author_name, slug, language_name)
				 VALUES (?, ?, ?, ?, ?, ?)
				 ON CONFLICT(kind, id) DO UPDATE SET
				   name = excluded.name,
				   author_name = excluded.author_name,
				   slug = excluded.slug,
				   language_name = excluded.language_name`,
				string(kind), r.ID, r.Name, r.AuthorName, r.Slug, r.LanguageName,
			); err != nil {
				return fmt.Errorf("upsert %s resource %d: %w", kind, r.ID, err)
			}
		}
		return s.markPopulated(ctx, tx, ledgerKind, len(resources))
	})
}

// Resources returns the cached resources of kind ordered by id.
func (s *Store) Resources(ctx context.Context, kind domain.ResourceKind) ([]domain.Resource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, author_name, slug, language_name FROM resources WHERE kind = ? ORDER BY id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query %s resources: %w", kind, err)
	}
	defer rows.Close()

	var out []domain.Resource
	for rows.Next() {
		var r domain.Resource
		if err := rows.Scan(&r.ID, &r.Name, &r.AuthorName, &r.Slug, &r.LanguageName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// === Languages ===

// SaveLanguages upserts the language list and marks the ledger.
func (s *Store) SaveLanguages(ctx context.Context, languages []domain.Language) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, l := range languages {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO languages (id, name, iso_code, native_name, direction)
				 VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET
				   name = excluded.name,
				   iso_code = excluded.iso_code,
				   native_name = excluded.native_name,
				   direction = excluded.direction`,
				l.ID, l.Name, l.ISOCode, l.NativeName, l.Direction,
			); err != nil {
				return fmt.Errorf("upsert language %d: %w", l.ID, err)
			}
		}
		return s.markPopulated(ctx, tx, domain.KindLanguages, len(languages))
	})
}

// Languages returns the cached languages ordered by name.
func (s *Store) Languages(ctx context.Context) ([]domain.Language, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, iso_code, native_name, direction FROM languages ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query languages: %w", err)
	}
	defer rows.Close()

	var out []domain.Language
	for rows.Next() {
		var l domain.Language
		if err := rows.Scan(&l.ID, &l.Name, &l.ISOCode, &l.NativeName, &l.Direction); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// === Recitations ===

// SaveRecitations upserts the recitation list and marks the ledger.
func (s *Store) SaveRecitations(ctx context.Context, recitations []domain.Recitation) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, r := range recitations {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO recitations (id, reciter_name, style) VALUES (?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET
				   reciter_name = excluded.reciter_name,
				   style = excluded.style`,
				r.ID, r.ReciterName, r.Style,
			); err != nil {
				return fmt.Errorf("upsert recitation %d: %w", r.ID, err)
			}
		}
		return s.markPopulated(ctx, tx, domain.KindRecitations, len(recitations))
	})
}

// Recitations returns the cached recitations ordered by id.
func (s *Store) Recitations(ctx context.Context) ([]domain.Recitation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, reciter_name, style FROM recitations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query recitations: %w", err)
	}
	defer rows.Close()

	var out []domain.Recitation
	for rows.Next() {
		var r domain.Recitation
		if err := rows.Scan(&r.ID, &r.ReciterName, &r.Style); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
