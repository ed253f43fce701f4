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

// MealRepo implements MealRepository using PostgreSQL.
type MealRepo struct{ db *DB }

// NewMealRepo constructs a meal repository.
func NewMealRepo(db *DB) *MealRepo { return &MealRepo{db: db} }

// Create inserts a meal logged without a draft.
func (r *MealRepo) Create(ctx context.Context, m *model.MealLog) error {
	return insertMeal(ctx, r.db.Pool, m)
}

func insertMeal(ctx context.Context, q querier, m *model.MealLog) error {
	const ins = `
INSERT INTO meal_logs (id, user_id, draft_id, eaten_at, name, kcal, protein_g, fat_g, carbs_g, sugar_g, fiber_g, salt_g, water_g,
ingredients, cooking_method, portion_weight_g, satiety_hours, meal_time, location, extra)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
RETURNING created_at`
	if m.Extra == nil {
		m.Extra = model.Document{}
	}
	if m.Ingredients == nil {
		m.Ingredients = []string{}
	}
	return q.QueryRow(ctx, ins, m.ID, m.UserID, m.DraftID, m.EatenAt, m.Name, m.Kcal,
		m.Macros.ProteinG, m.Macros.FatG, m.Macros.CarbsG, m.Macros.SugarG, m.Macros.FiberG, m.Macros.SaltG, m.Macros.WaterG,
		m.Ingredients, m.CookingMethod, m.PortionWeightG, m.SatietyHours, m.MealTime, m.Location, m.Extra).
		Scan(&m.CreatedAt)
}

// ListBetween returns the meals of a time window. Only the columns rendered
// by the dashboard are loaded.
func (r *MealRepo) ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.MealLog, error) {
	const q = `
SELECT id, draft_id, eaten_at, name, kcal, protein_g, fat_g, carbs_g, sugar_g, fiber_g, salt_g, water_g, meal_time
FROM meal_logs
WHERE user_id=$1 AND eaten_at >= $2 AND eaten_at <= $3
ORDER BY eaten_at ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.MealLog, 0)
	for rows.Next() {
		m := model.MealLog{UserID: userID}
		if err := rows.Scan(&m.ID, &m.DraftID, &m.EatenAt, &m.Name, &m.Kcal,
			&m.Macros.ProteinG, &m.Macros.FatG, &m.Macros.CarbsG, &m.Macros.SugarG, &m.Macros.FiberG,
			&m.Macros.SaltG, &m.Macros.WaterG, &m.MealTime); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete removes the meal; with cascade a confirmed source draft is flipped
// to deleted in the same transaction.
func (r *MealRepo) Delete(ctx context.Context, userID, mealID uuid.UUID, cascade bool) (uuid.NullUUID, error) {
	const sel = `SELECT draft_id FROM meal_logs WHERE id=$1 AND user_id=$2 FOR UPDATE`
	const flip = `UPDATE meal_drafts SET status=$3 WHERE id=$1 AND user_id=$2 AND status=$4`
	const del = `DELETE FROM meal_logs WHERE id=$1 AND user_id=$2`

	var flipped uuid.NullUUID
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		var draftID uuid.NullUUID
		if err := tx.QueryRow(ctx, sel, mealID, userID).Scan(&draftID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}
		if cascade && draftID.Valid {
			tag, err := tx.Exec(ctx, flip, draftID.UUID, userID, string(model.DraftDeleted), string(model.DraftConfirmed))
			if err != nil {
				return err
			}
			if tag.RowsAffected() > 0 {
				flipped = draftID
			}
		}
		_, err := tx.Exec(ctx, del, mealID, userID)
		return err
	})
	if err != nil {
		return uuid.NullUUID{}, err
	}
	return flipped, nil
}
