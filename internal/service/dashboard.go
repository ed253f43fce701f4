package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/and161185/nutrikeeper/internal/errs"
	"github.com/and161185/nutrikeeper/internal/model"
	"github.com/and161185/nutrikeeper/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// DashboardService aggregates one day of the ledger against the active goal.
type DashboardService interface {
	// Dashboard builds the view for date; nil means today in the server's zone.
	Dashboard(ctx context.Context, userID uuid.UUID, date *time.Time) (*model.Dashboard, error)
}

// DashboardDeps groups the repositories read by the dashboard.
type DashboardDeps struct {
	Users   repository.UserRepository
	Goals   repository.GoalRepository
	Meals   repository.MealRepository
	Water   repository.WaterRepository
	Weights repository.WeightRepository
}

type DashboardServiceImpl struct {
	deps DashboardDeps
	loc  *time.Location
	now  func() time.Time
}

var _ DashboardService = (*DashboardServiceImpl)(nil)

// NewDashboardService constructs DashboardService. Days are cut in loc.
func NewDashboardService(deps DashboardDeps, loc *time.Location) *DashboardServiceImpl {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardServiceImpl{deps: deps, loc: loc, now: time.Now}
}

const clockLayout = "15:04"

// Dashboard selects meals and water with start_of_day <= t <= end_of_day,
// both bounds inclusive. An empty day is zero totals and empty lists.
func (s *DashboardServiceImpl) Dashboard(ctx context.Context, userID uuid.UUID, date *time.Time) (*model.Dashboard, error) {
	day := s.now().In(s.loc)
	if date != nil && !date.IsZero() {
		day = *date
	}
	y, m, d := day.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)

	// a missing user row renders with a zero start weight
	var startKG float64
	u, err := s.deps.Users.GetByID(ctx, userID)
	switch {
	case err == nil:
		startKG = u.StartWeightKG
	case !errors.Is(err, errs.ErrNotFound):
		return nil, storageErr("load user", err)
	}

	out := &model.Dashboard{
		Date:   from,
		Meals:  []model.MealItem{},
		Water:  []model.WaterItem{},
		Weight: model.WeightBlock{StartKG: startKG},
	}

	g, err := s.deps.Goals.Current(ctx, userID)
	switch {
	case err == nil:
		out.Targets = &model.Targets{
			Goal: g.Type, Calories: g.Calories, ProteinG: g.ProteinG, FatG: g.FatG,
			CarbsG: g.CarbsG, SugarG: g.SugarG, FiberG: g.FiberG,
		}
	case !errors.Is(err, errs.ErrNotFound):
		return nil, storageErr("load goal", err)
	}

	meals, err := s.deps.Meals.ListBetween(ctx, userID, from, to)
	if err != nil {
		return nil, storageErr("list meals", err)
	}
	var sum model.Totals
	for _, ml := range meals {
		out.Meals = append(out.Meals, model.MealItem{
			ID:       ml.ID.String(),
			Time:     ml.EatenAt.In(s.loc).Format(clockLayout),
			Name:     ml.Name,
			Kcal:     ml.Kcal,
			ProteinG: ml.Macros.ProteinG,
			FatG:     ml.Macros.FatG,
			CarbsG:   ml.Macros.CarbsG,
			SugarG:   ml.Macros.SugarG,
			FiberG:   ml.Macros.FiberG,
		})
		sum.Kcal += ml.Kcal
		sum.ProteinG += ml.Macros.ProteinG
		sum.FatG += ml.Macros.FatG
		sum.CarbsG += ml.Macros.CarbsG
		sum.SugarG += ml.Macros.SugarG
		sum.FiberG += ml.Macros.FiberG
	}

	water, err := s.deps.Water.ListBetween(ctx, userID, from, to)
	if err != nil {
		return nil, storageErr("list water", err)
	}
	for _, w := range water {
		out.Water = append(out.Water, model.WaterItem{
			ID:   w.ID.String(),
			Time: w.DrankAt.In(s.loc).Format(clockLayout),
			ML:   w.ML,
		})
		sum.WaterML += w.ML
	}

	wl, err := s.deps.Weights.OnDate(ctx, userID, dateOnly(from))
	switch {
	case err == nil:
		kg := wl.KG
		out.Weight.TodayKG = &kg
	case !errors.Is(err, errs.ErrNotFound):
		return nil, storageErr("load weight", err)
	}

	out.Totals = model.Totals{
		Kcal:     round1(sum.Kcal),
		ProteinG: round1(sum.ProteinG),
		FatG:     round1(sum.FatG),
		CarbsG:   round1(sum.CarbsG),
		SugarG:   round1(sum.SugarG),
		FiberG:   round1(sum.FiberG),
		WaterML:  sum.WaterML,
	}
	return out, nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
