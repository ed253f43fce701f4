package repository

import (
	"context"
	"time"

	"github.com/and161185/nutrikeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// MealRepository stores confirmed meals.
type MealRepository interface {
	// Create inserts a meal logged directly by the user.
	Create(ctx context.Context, m *model.MealLog) error
	// ListBetween returns meals with from <= eaten_at <= to ordered by eaten_at.
	ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.MealLog, error)
	// Delete removes a meal. With cascade set, a confirmed draft that produced
	// the meal is soft-deleted in the same transaction and its id returned.
	Delete(ctx context.Context, userID, mealID uuid.UUID, cascade bool) (uuid.NullUUID, error)
}

// WaterRepository stores water intakes.
type WaterRepository interface {
	Create(ctx context.Context, w *model.WaterLog) error
	ListBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.WaterLog, error)
	// Delete removes one intake or returns errs.ErrNotFound.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// WeightRepository stores at most one weight sample per user and date.
type WeightRepository interface {
	// Upsert writes w, replacing the sample of the same date if any.
	Upsert(ctx context.Context, w *model.WeightLog) error
	// OnDate returns the sample for date or errs.ErrNotFound.
	OnDate(ctx context.Context, userID uuid.UUID, date time.Time) (*model.WeightLog, error)
}
