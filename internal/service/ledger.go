package service

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/nutrikeeper/internal/errs"
	"github.com/and161185/nutrikeeper/internal/merge"
	"github.com/and161185/nutrikeeper/internal/metrics"
	"github.com/and161185/nutrikeeper/internal/model"
	"github.com/and161185/nutrikeeper/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// MealService logs and deletes confirmed meals.
type MealService interface {
	// Log stores a meal entered directly, without a draft.
	Log(ctx context.Context, userID uuid.UUID, in model.MealOverrides) (*model.MealLog, error)
	// Delete removes a meal; with cascade the confirmed source draft is soft-deleted too.
	Delete(ctx context.Context, userID, mealID uuid.UUID, cascade bool) (model.DeleteResult, error)
}

// WaterService records water intake.
type WaterService interface {
	// Add stores an intake; drankAt defaults to now.
	Add(ctx context.Context, userID uuid.UUID, ml int, drankAt *time.Time) (*model.WaterLog, error)
	// Delete removes an intake.
	Delete(ctx context.Context, userID, id uuid.UUID) (model.DeleteResult, error)
}

// WeightService records body weight, one sample per date.
type WeightService interface {
	// Record stores kg for date, replacing an earlier sample of that date.
	Record(ctx context.Context, userID uuid.UUID, kg float64, date *time.Time) (*model.WeightLog, error)
}

type MealServiceImpl struct {
	meals repository.MealRepository
	loc   *time.Location
	now   func() time.Time
}

var _ MealService = (*MealServiceImpl)(nil)

// NewMealService constructs MealService.
func NewMealService(meals repository.MealRepository, loc *time.Location) *MealServiceImpl {
	if loc == nil {
		loc = time.Local
	}
	return &MealServiceImpl{meals: meals, loc: loc, now: time.Now}
}

// Log builds the meal with the same defaults a confirmation uses.
func (s *MealServiceImpl) Log(ctx context.Context, userID uuid.UUID, in model.MealOverrides) (*model.MealLog, error) {
	m := merge.Meal(in, model.VisibleData{}, model.Suggestion{}, s.now().In(s.loc))
	if err := m.Validate(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	m.ID, m.UserID = id, userID
	if err := s.meals.Create(ctx, &m); err != nil {
		return nil, storageErr("create meal", err)
	}
	return &m, nil
}

// Delete is idempotent: a missing meal yields a not_found result, not an error.
func (s *MealServiceImpl) Delete(ctx context.Context, userID, mealID uuid.UUID, cascade bool) (model.DeleteResult, error) {
	draftID, err := s.meals.Delete(ctx, userID, mealID, cascade)
	if errors.Is(err, errs.ErrNotFound) {
		return model.DeleteResult{Status: model.DeleteNotFound, ID: mealID}, nil
	}
	if err != nil {
		return model.DeleteResult{}, storageErr("delete meal", err)
	}
	if draftID.Valid {
		metrics.DraftTransition(string(model.DraftDeleted))
	}
	return model.DeleteResult{Status: model.DeleteDeleted, ID: mealID, DraftID: draftID}, nil
}

type WaterServiceImpl struct {
	water repository.WaterRepository
	now   func() time.Time
}

var _ WaterService = (*WaterServiceImpl)(nil)

// NewWaterService constructs WaterService.
func NewWaterService(water repository.WaterRepository) *WaterServiceImpl {
	return &WaterServiceImpl{water: water, now: time.Now}
}

// Add rejects non-positive volumes before anything is written.
func (s *WaterServiceImpl) Add(ctx context.Context, userID uuid.UUID, ml int, drankAt *time.Time) (*model.WaterLog, error) {
	if ml <= 0 {
		return nil, errs.Validation("ml must be a positive integer")
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	w := &model.WaterLog{ID: id, UserID: userID, DrankAt: s.now(), ML: ml}
	if drankAt != nil && !drankAt.IsZero() {
		w.DrankAt = *drankAt
	}
	if err := s.water.Create(ctx, w); err != nil {
		return nil, storageErr("create water", err)
	}
	return w, nil
}

// Delete is idempotent like MealService.Delete.
func (s *WaterServiceImpl) Delete(ctx context.Context, userID, id uuid.UUID) (model.DeleteResult, error) {
	err := s.water.Delete(ctx, userID, id)
	if errors.Is(err, errs.ErrNotFound) {
		return model.DeleteResult{Status: model.DeleteNotFound, ID: id}, nil
	}
	if err != nil {
		return model.DeleteResult{}, storageErr("delete water", err)
	}
	return model.DeleteResult{Status: model.DeleteDeleted, ID: id}, nil
}

type WeightServiceImpl struct {
	weights repository.WeightRepository
	loc     *time.Location
	now     func() time.Time
}

var _ WeightService = (*WeightServiceImpl)(nil)

// NewWeightService constructs WeightService; dates default to today in loc.
func NewWeightService(weights repository.WeightRepository, loc *time.Location) *WeightServiceImpl {
	if loc == nil {
		loc = time.Local
	}
	return &WeightServiceImpl{weights: weights, loc: loc, now: time.Now}
}

// Record upserts the sample of the date.
func (s *WeightServiceImpl) Record(ctx context.Context, userID uuid.UUID, kg float64, date *time.Time) (*model.WeightLog, error) {
	if kg <= 0 {
		return nil, errs.Validation("kg must be positive")
	}
	day := s.now().In(s.loc)
	if date != nil && !date.IsZero() {
		day = *date
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	w := &model.WeightLog{ID: id, UserID: userID, OnDate: dateOnly(day), KG: kg}
	if err := s.weights.Upsert(ctx, w); err != nil {
		return nil, storageErr("record weight", err)
	}
	return w, nil
}

// dateOnly keeps the calendar date of t as midnight UTC, the form stored in date columns.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
