package postgres

import (
	"context"
	"errors"

	"github.com/and161185/nutrikeeper/internal/errs"
	"github.com/and161185/nutrikeeper/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// GoalRepo implements GoalRepository using PostgreSQL.
type GoalRepo struct{ db *DB }

// NewGoalRepo constructs a goal repository.
func NewGoalRepo(db *DB) *GoalRepo { return &GoalRepo{db: db} }

// Create inserts an immutable goal and makes it current. The user row is
// locked so concurrent goal writes of one user serialize and created_at stays
// strictly increasing even when the clock does not advance.
func (r *GoalRepo) Create(ctx context.Context, g *model.Goal, profile *model.Profile) error {
	const lock = `SELECT id FROM users WHERE id=$1 FOR UPDATE`
	const ins = `
INSERT INTO goals (id, user_id, created_at, goal_type, target_weight_kg, calories, protein_g, fat_g, carbs_g, sugar_g, fiber_g)
SELECT $1, $2, GREATEST(now(), COALESCE(MAX(created_at) + interval '1 microsecond', now())), $3, $4, $5, $6, $7, $8, $9, $10
FROM goals WHERE user_id=$2
RETURNING created_at`
	const prof = `
UPDATE users SET gender=$2, age=$3, height_cm=$4, current_weight_kg=$5,
start_weight_kg=CASE WHEN start_weight_kg=0 THEN $5 ELSE start_weight_kg END, updated_at=now()
WHERE id=$1`
	const cur = `UPDATE users SET current_goal_id=$2, updated_at=now() WHERE id=$1`

	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		var id uuid.UUID
		if err := tx.QueryRow(ctx, lock, g.UserID).Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}
		err := tx.QueryRow(ctx, ins, g.ID, g.UserID, string(g.Type), g.TargetWeightKG,
			g.Calories, g.ProteinG, g.FatG, g.CarbsG, g.SugarG, g.FiberG).Scan(&g.CreatedAt)
		if err != nil {
			return err
		}
		if profile != nil {
			if _, err := tx.Exec(ctx, prof, g.UserID, profile.Gender, profile.Age, profile.HeightCM, profile.WeightKG); err != nil {
				return err
			}
		}
		_, err = tx.Exec(ctx, cur, g.UserID, g.ID)
		return err
	})
}

// Current returns the latest goal of the user.
func (r *GoalRepo) Current(ctx context.Context, userID uuid.UUID) (*model.Goal, error) {
	const q = `
SELECT id, user_id, created_at, goal_type, target_weight_kg, calories, protein_g, fat_g, carbs_g, sugar_g, fiber_g
FROM goals WHERE user_id=$1
ORDER BY created_at DESC LIMIT 1`
	var g model.Goal
	err := r.db.Pool.QueryRow(ctx, q, userID).Scan(&g.ID, &g.UserID, &g.CreatedAt, &g.Type, &g.TargetWeightKG,
		&g.Calories, &g.ProteinG, &g.FatG, &g.CarbsG, &g.SugarG, &g.FiberG)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}
