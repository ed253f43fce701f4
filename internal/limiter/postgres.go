package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of a pgx pool used by PG.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG keeps login attempts in the login_attempts table using a fixed window
// per (name, address) pair.
type PG struct {
	q   Querier
	cfg Config
	now func() time.Time
}

var _ Limiter = (*PG)(nil)

// NewPG constructs a PostgreSQL-backed limiter.
func NewPG(q Querier, cfg Config) *PG {
	if cfg.MaxFails <= 0 {
		cfg.MaxFails = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.BlockFor <= 0 {
		cfg.BlockFor = 15 * time.Minute
	}
	return &PG{q: q, cfg: cfg, now: time.Now}
}

// Allow reports whether the pair is currently unblocked.
func (l *PG) Allow(ctx context.Context, name string, addrHash []byte) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM login_attempts WHERE name=$1 AND addr_hash=$2`
	var blockedUntil time.Time
	err := l.q.QueryRow(ctx, q, name, addrHash).Scan(&blockedUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	if wait := blockedUntil.Sub(l.now()); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}

// Success forgets the pair.
func (l *PG) Success(ctx context.Context, name string, addrHash []byte) error {
	_, err := l.q.Exec(ctx, `DELETE FROM login_attempts WHERE name=$1 AND addr_hash=$2`, name, addrHash)
	return err
}

// Failure counts a failed attempt; reaching MaxFails inside the window blocks the pair.
func (l *PG) Failure(ctx context.Context, name string, addrHash []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO login_attempts (name, addr_hash, fail_count, window_start, blocked_until)
VALUES ($1, $2, 1, now(), 'epoch')
ON CONFLICT (name, addr_hash) DO UPDATE SET
  fail_count = CASE WHEN now() - login_attempts.window_start > $3::interval THEN 1 ELSE login_attempts.fail_count + 1 END,
  window_start = CASE WHEN now() - login_attempts.window_start > $3::interval THEN now() ELSE login_attempts.window_start END
RETURNING fail_count`
	const block = `UPDATE login_attempts SET blocked_until=$3, fail_count=0, window_start=now() WHERE name=$1 AND addr_hash=$2`

	var fails int
	if err := l.q.QueryRow(ctx, q, name, addrHash, l.cfg.Window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails < l.cfg.MaxFails {
		return false, 0, nil
	}
	if _, err := l.q.Exec(ctx, block, name, addrHash, l.now().Add(l.cfg.BlockFor)); err != nil {
		return false, 0, err
	}
	return true, l.cfg.BlockFor, nil
}
