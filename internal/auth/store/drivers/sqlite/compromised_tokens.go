package sqlite

import (
	"context"
	"time"

	"github.com/quillworks/quill/internal/auth/domain"
)

type compromisedTokensRepo struct {
	q querier
}

func (r *compromisedTokensRepo) IsCompromised(ctx context.Context, tokenHash string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM compromised_refresh_tokens WHERE token_hash = ?`,
		tokenHash).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *compromisedTokensRepo) Add(ctx context.Context, t domain.CompromisedToken) (bool, error) {
	// ON CONFLICT DO NOTHING makes the duplicate-hash case a dedup no-op;
	// the rows-affected count tells the caller whether this call won.
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO compromised_refresh_tokens (id, token_hash, reason, compromised_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (token_hash) DO NOTHING`,
		t.ID, t.TokenHash, t.Reason, t.CompromisedAt.UTC(), t.ExpiresAt.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *compromisedTokensRepo) RemoveExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM compromised_refresh_tokens WHERE expires_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
