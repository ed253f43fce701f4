package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, cfg Config) (*PG, pgxmock.PgxPoolIface, time.Time) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewPG(mock, cfg)
	l.now = func() time.Time { return now }
	return l, mock, now
}

func TestAllow(t *testing.T) {
	l, mock, now := newLimiter(t, Config{})
	ctx := context.Background()
	h := HashAddr("10.0.0.1")

	mock.ExpectQuery(`SELECT blocked_until FROM login_attempts WHERE name=\$1 AND addr_hash=\$2`).
		WithArgs("alice", h).
		WillReturnError(pgx.ErrNoRows)
	ok, wait, err := l.Allow(ctx, "alice", h)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, wait)

	mock.ExpectQuery(`SELECT blocked_until`).
		WithArgs("alice", h).
		WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(now.Add(3 * time.Minute)))
	ok, wait, err = l.Allow(ctx, "alice", h)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 3*time.Minute, wait)

	mock.ExpectQuery(`SELECT blocked_until`).
		WithArgs("alice", h).
		WillReturnRows(pgxmock.NewRows([]string{"blocked_until"}).AddRow(now.Add(-time.Second)))
	ok, _, err = l.Allow(ctx, "alice", h)
	require.NoError(t, err)
	require.True(t, ok)

	boom := errors.New("db down")
	mock.ExpectQuery(`SELECT blocked_until`).
		WithArgs("alice", h).
		WillReturnError(boom)
	ok, _, err = l.Allow(ctx, "alice", h)
	require.ErrorIs(t, err, boom)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFailure_BlocksAtThreshold(t *testing.T) {
	cfg := Config{Window: 5 * time.Minute, MaxFails: 3, BlockFor: 10 * time.Minute}
	l, mock, now := newLimiter(t, cfg)
	ctx := context.Background()
	h := HashAddr("10.0.0.1")

	mock.ExpectQuery(`INSERT INTO login_attempts .* RETURNING fail_count`).
		WithArgs("bob", h, 5*time.Minute).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(2))
	blocked, _, err := l.Failure(ctx, "bob", h)
	require.NoError(t, err)
	require.False(t, blocked)

	mock.ExpectQuery(`INSERT INTO login_attempts`).
		WithArgs("bob", h, 5*time.Minute).
		WillReturnRows(pgxmock.NewRows([]string{"fail_count"}).AddRow(3))
	mock.ExpectExec(`UPDATE login_attempts SET blocked_until=\$3`).
		WithArgs("bob", h, now.Add(10*time.Minute)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	blocked, wait, err := l.Failure(ctx, "bob", h)
	require.NoError(t, err)
	require.True(t, blocked)
	require.Equal(t, 10*time.Minute, wait)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSuccess_ClearsPair(t *testing.T) {
	l, mock, _ := newLimiter(t, Config{})
	h := HashAddr("10.0.0.1")

	mock.ExpectExec(`DELETE FROM login_attempts WHERE name=\$1 AND addr_hash=\$2`).
		WithArgs("carol", h).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, l.Success(context.Background(), "carol", h))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHashAddr(t *testing.T) {
	a, b, c := HashAddr("1.2.3.4"), HashAddr("1.2.3.4"), HashAddr("5.6.7.8")
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 32)
}
