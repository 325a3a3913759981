package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/tilawa/internal/domain"
)

// === Token records (append-only) ===

// LatestToken returns the most recently created token, valid or not.
func (s *Store) LatestToken(ctx context.Context) (domain.Token, bool, error) {
	var (
		tok                  domain.Token
		expiresAt, createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, access_token, expires_at, created_at FROM access_tokens
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&tok.ID, &tok.AccessToken, &expiresAt, &createdAt)
	if err == sql.ErrNoRows {
		return domain.Token{}, false, nil
	}
	if err != nil {
		return domain.Token{}, false, fmt.Errorf("query latest token: %w", err)
	}
	tok.ExpiresAt = fromUnix(expiresAt)
	tok.CreatedAt = fromUnix(createdAt)
	return tok, true, nil
}

// SaveToken appends a token record, assigning an id when missing.
func (s *Store) SaveToken(ctx context.Context, tok domain.Token) error {
	if tok.ID == "" {
		tok.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO access_tokens (id, access_token, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		tok.ID, tok.AccessToken, toUnix(tok.ExpiresAt), toUnix(tok.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// PurgeExpiredTokens deletes records that expired before now.
func (s *Store) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM access_tokens WHERE expires_at < ?`, toUnix(now))
	if err != nil {
		return 0, fmt.Errorf("purge tokens: %w", err)
	}
	return res.RowsAffected()
}
