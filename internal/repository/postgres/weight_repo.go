package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/nutrikeeper/internal/errs"
	"github.com/and161185/nutrikeeper/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// WeightRepo implements WeightRepository using PostgreSQL.
type WeightRepo struct{ db *DB }

// NewWeightRepo constructs a weight repository.
func NewWeightRepo(db *DB) *WeightRepo { return &WeightRepo{db: db} }

// Upsert stores the sample of a date; an existing sample keeps its id and
// takes the new weight. The user's current weight follows the latest write.
func (r *WeightRepo) Upsert(ctx context.Context, w *model.WeightLog) error {
	const ups = `
INSERT INTO weight_logs (id, user_id, on_date, kg) VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, on_date) DO UPDATE SET kg=EXCLUDED.kg
RETURNING id`
	const cur = `UPDATE users SET current_weight_kg=$2, updated_at=now() WHERE id=$1`

	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, ups, w.ID, w.UserID, w.OnDate, w.KG).Scan(&w.ID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, cur, w.UserID, w.KG)
		return err
	})
}

// OnDate returns the sample recorded for date.
func (r *WeightRepo) OnDate(ctx context.Context, userID uuid.UUID, date time.Time) (*model.WeightLog, error) {
	w := model.WeightLog{UserID: userID, OnDate: date}
	err := r.db.Pool.QueryRow(ctx, `SELECT id, kg FROM weight_logs WHERE user_id=$1 AND on_date=$2`, userID, date).
		Scan(&w.ID, &w.KG)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}
