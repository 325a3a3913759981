package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/mmcdole/tilawa/internal/domain"
)

// === Population ledger ===

// PopulationStatus returns the ledger row for kind, or an unpopulated zero row.
func (s *Store) PopulationStatus(ctx context.Context, kind domain.PopulationKind) (domain.PopulationStatus, error) {
	st := domain.PopulationStatus{Kind: kind}
	var (
		populated   int
		lastUpdated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT is_populated, last_updated, total_records FROM population_status WHERE kind = ?`, string(kind),
	).Scan(&populated, &lastUpdated, &st.TotalRecords)
	if err == sql.ErrNoRows {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("query population status: %w", err)
	}
	st.IsPopulated = populated == 1
	st.LastUpdated = fromUnix(lastUpdated)
	return st, nil
}

// PopulationStatuses returns every ledger row ordered by kind.
func (s *Store) PopulationStatuses(ctx context.Context) ([]domain.PopulationStatus, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, is_populated, last_updated, total_records FROM population_status ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("query population statuses: %w", err)
	}
	defer rows.Close()

	var out []domain.PopulationStatus
	for rows.Next() {
		var (
			st          domain.PopulationStatus
			kind        string
			populated   int
			lastUpdated int64
		)
		if err := rows.Scan(&kind, &populated, &lastUpdated, &st.TotalRecords); err != nil {
			return nil, err
		}
		st.Kind = domain.PopulationKind(kind)
		st.IsPopulated = populated == 1
		st.LastUpdated = fromUnix(lastUpdated)
		out = append(out, st)
	}
	return out, rows.Err()
}

// IsPopulated trusts the ledger only while the entity table still holds
// at least totalRecords rows for the kind.
func (s *Store) IsPopulated(ctx context.Context, kind domain.PopulationKind) (bool, error) {
	st, err := s.PopulationStatus(ctx, kind)
	if err != nil {
		return false, err
	}
	if !st.IsPopulated {
		return false, nil
	}
	query, args, err := countQuery(kind)
	if err != nil {
		return false, err
	}
	n, err := s.count(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("count %s: %w", kind, err)
	}
	return n >= st.TotalRecords, nil
}

// MarkPopulated flags kind as complete with total records.
func (s *Store) MarkPopulated(ctx context.Context, kind domain.PopulationKind, total int) error {
	return s.markPopulated(ctx, s.db, kind, total)
}

func (s *Store) markPopulated(ctx context.Context, ex execer, kind domain.PopulationKind, total int) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO population_status (kind, is_populated, last_updated, total_records)
		 VALUES (?, 1, ?, ?)
		 ON CONFLICT(kind) DO UPDATE SET
		   is_populated = 1,
		   last_updated = excluded.last_updated,
		   total_records = excluded.total_records`,
		string(kind), toUnix(s.now()), total,
	)
	if err != nil {
		return fmt.Errorf("mark %s populated: %w", kind, err)
	}
	return nil
}

// countQuery maps a ledger kind to the row count of its entity table.
func countQuery(kind domain.PopulationKind) (string, []any, error) {
	switch kind {
	case domain.KindChapters:
		return `SELECT COUNT(*) FROM chapters`, nil, nil
	case domain.KindVerses:
		return `SELECT COUNT(*) FROM verses`, nil, nil
	case domain.KindTranslations:
		return `SELECT COUNT(*) FROM resources WHERE kind = ?`, []any{string(domain.ResourceTranslation)}, nil
	case domain.KindTafsirResources:
		return `SELECT COUNT(*) FROM resources WHERE kind = ?`, []any{string(domain.ResourceTafsir)}, nil
	case domain.KindLanguages:
		return `SELECT COUNT(*) FROM languages`, nil, nil
	case domain.KindRecitations:
		return `SELECT COUNT(*) FROM recitations`, nil, nil
	}
	if rest, ok := strings.CutPrefix(string(kind), "tafsir:"); ok {
		id, err := strconv.Atoi(rest)
		if err == nil {
			return `SELECT COUNT(*) FROM tafsirs WHERE resource_id = ?`, []any{id}, nil
		}
	}
	return "", nil, fmt.Errorf("unknown population kind %q", kind)
}
