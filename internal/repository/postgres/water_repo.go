package postgres

import (
	"context"
	"time"

	"github.com/and161185/nutrikeeper/internal/errs"
	"github.com/and161185/nutrikeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// WaterRepo implements WaterRepository using PostgreSQL.
type WaterRepo struct{ db *DB }

// NewWaterRepo constructs a water repository.
func NewWaterRepo(db *DB) *WaterRepo { return &WaterRepo{db: db} }

// Create inserts a water intake.
func (r *WaterRepo) Create(ctx context.Context, w *model.WaterLog) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO water_logs (id, user_id, drank_at, ml) VALUES ($1, $2, $3, $4)`,
		w.ID, w.UserID, w.DrankAt, w.ML)
	return err
}

// ListBetween returns intakes with from <= drank_at <= to.
func (r *WaterRepo) ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.WaterLog, error) {
	const q = `
SELECT id, drank_at, ml
FROM water_logs
WHERE user_id=$1 AND drank_at >= $2 AND drank_at <= $3
ORDER BY drank_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.WaterLog, 0)
	for rows.Next() {
		w := model.WaterLog{UserID: userID}
		if err := rows.Scan(&w.ID, &w.DrankAt, &w.ML); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Delete removes an intake.
func (r *WaterRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM water_logs WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
