package repository

import (
	"context"

	"github.com/and161185/nutrikeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ConfirmFunc builds the meal to commit and the draft's new visible data
// from the locked pending draft.
type ConfirmFunc func(d *model.MealDraft) (model.MealLog, model.VisibleData, error)

// DraftRepository stores meal drafts and performs their state transitions atomically.
type DraftRepository interface {
	// Create inserts a pending draft.
	Create(ctx context.Context, d *model.MealDraft) error
	// Get loads a draft or returns errs.ErrNotFound.
	Get(ctx context.Context, userID, draftID uuid.UUID) (*model.MealDraft, error)
	// Confirm locks the draft, requires it pending (errs.ErrInvalidState),
	// inserts the meal built by fn and marks the draft confirmed, all in one
	// transaction.
	Confirm(ctx context.Context, userID, draftID uuid.UUID, fn ConfirmFunc) (*model.MealLog, error)
	// Discard soft-deletes a pending draft.
	Discard(ctx context.Context, userID, draftID uuid.UUID) error
}
