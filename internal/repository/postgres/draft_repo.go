package postgres

import (
	"context"
	"errors"

	"github.com/and161185/nutrikeeper/internal/errs"
	"github.com/and161185/nutrikeeper/internal/model"
	"github.com/and161185/nutrikeeper/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// DraftRepo implements DraftRepository using PostgreSQL.
type DraftRepo struct{ db *DB }

// NewDraftRepo constructs a draft repository.
func NewDraftRepo(db *DB) *DraftRepo { return &DraftRepo{db: db} }

const draftSelect = `SELECT id, user_id, created_at, gpt_result, visible_data, status FROM meal_drafts WHERE id=$1 AND user_id=$2`

// Create inserts a draft.
func (r *DraftRepo) Create(ctx context.Context, d *model.MealDraft) error {
	const q = `
INSERT INTO meal_drafts (id, user_id, gpt_result, visible_data, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`
	if d.GPTResult == nil {
		d.GPTResult = model.Document{}
	}
	if d.Status == "" {
		d.Status = model.DraftPending
	}
	return r.db.Pool.QueryRow(ctx, q, d.ID, d.UserID, d.GPTResult, d.VisibleData, string(d.Status)).
		Scan(&d.CreatedAt)
}

// Get selects a draft of the user.
func (r *DraftRepo) Get(ctx context.Context, userID, draftID uuid.UUID) (*model.MealDraft, error) {
	return scanDraft(r.db.Pool.QueryRow(ctx, draftSelect, draftID, userID))
}

// Confirm commits the meal built by fn and marks the draft confirmed.
// A draft that is not pending yields errs.ErrInvalidState and nothing is written.
func (r *DraftRepo) Confirm(
	ctx context.Context, userID, draftID uuid.UUID, fn repository.ConfirmFunc,
) (*model.MealLog, error) {
	const upd = `UPDATE meal_drafts SET status=$3, visible_data=$4 WHERE id=$1 AND user_id=$2 AND status=$5`

	var meal model.MealLog
	err := r.db.inTx(ctx, func(tx pgx.Tx) error {
		d, err := scanDraft(tx.QueryRow(ctx, draftSelect+` FOR UPDATE`, draftID, userID))
		if err != nil {
			return err
		}
		if !d.Status.CanConfirm() {
			return errs.ErrInvalidState
		}
		m, visible, err := fn(d)
		if err != nil {
			return err
		}
		m.UserID = userID
		m.DraftID = uuid.NullUUID{UUID: d.ID, Valid: true}
		if err := insertMeal(ctx, tx, &m); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, upd, d.ID, userID, string(model.DraftConfirmed), visible, string(model.DraftPending))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrInvalidState
		}
		meal = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &meal, nil
}

// Discard flips a pending draft to deleted.
func (r *DraftRepo) Discard(ctx context.Context, userID, draftID uuid.UUID) error {
	const upd = `UPDATE meal_drafts SET status=$3 WHERE id=$1 AND user_id=$2`
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		d, err := scanDraft(tx.QueryRow(ctx, draftSelect+` FOR UPDATE`, draftID, userID))
		if err != nil {
			return err
		}
		if !d.Status.CanDiscard() {
			return errs.ErrInvalidState
		}
		_, err = tx.Exec(ctx, upd, draftID, userID, string(model.DraftDeleted))
		return err
	})
}

func scanDraft(row pgx.Row) (*model.MealDraft, error) {
	var d model.MealDraft
	if err := row.Scan(&d.ID, &d.UserID, &d.CreatedAt, &d.GPTResult, &d.VisibleData, &d.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

var (
	_ repository.DraftRepository  = (*DraftRepo)(nil)
	_ repository.MealRepository   = (*MealRepo)(nil)
	_ repository.WaterRepository  = (*WaterRepo)(nil)
	_ repository.WeightRepository = (*WeightRepo)(nil)
	_ repository.UserRepository   = (*UserRepo)(nil)
	_ repository.GoalRepository   = (*GoalRepo)(nil)
)
