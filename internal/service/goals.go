package service

import (
	"context"

	"github.com/and161185/nutrikeeper/internal/errs"
	"github.com/and161185/nutrikeeper/internal/model"
	"github.com/and161185/nutrikeeper/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// GoalService manages versioned nutrition targets. Goals are never edited;
// setting a goal appends a new one that becomes current.
type GoalService interface {
	Set(ctx context.Context, userID uuid.UUID, g model.Goal) (*model.Goal, error)
	// Current returns the active goal or errs.ErrNotFound.
	Current(ctx context.Context, userID uuid.UUID) (*model.Goal, error)
}

// OnboardingService stores the questionnaire answers of a new user.
type OnboardingService interface {
	// Submit updates the profile snapshot and creates the first (or a new) goal.
	Submit(ctx context.Context, userID uuid.UUID, p model.Profile, g model.Goal) (*model.Goal, error)
}

type GoalServiceImpl struct {
	goals repository.GoalRepository
}

var (
	_ GoalService       = (*GoalServiceImpl)(nil)
	_ OnboardingService = (*GoalServiceImpl)(nil)
)

// NewGoalService constructs a service implementing GoalService and OnboardingService.
func NewGoalService(goals repository.GoalRepository) *GoalServiceImpl {
	return &GoalServiceImpl{goals: goals}
}

// Set appends a goal.
func (s *GoalServiceImpl) Set(ctx context.Context, userID uuid.UUID, g model.Goal) (*model.Goal, error) {
	return s.create(ctx, userID, g, nil)
}

// Current returns the latest goal.
func (s *GoalServiceImpl) Current(ctx context.Context, userID uuid.UUID) (*model.Goal, error) {
	g, err := s.goals.Current(ctx, userID)
	if err != nil {
		return nil, storageErr("current goal", err)
	}
	return g, nil
}

// Submit validates the profile and writes it together with the goal.
func (s *GoalServiceImpl) Submit(ctx context.Context, userID uuid.UUID, p model.Profile, g model.Goal) (*model.Goal, error) {
	switch {
	case p.Age < 0 || p.Age > 150:
		return nil, errs.Validation("age out of range")
	case p.HeightCM < 0:
		return nil, errs.Validation("height_cm must be non-negative")
	case p.WeightKG <= 0:
		return nil, errs.Validation("weight_kg must be positive")
	}
	return s.create(ctx, userID, g, &p)
}

func (s *GoalServiceImpl) create(ctx context.Context, userID uuid.UUID, g model.Goal, p *model.Profile) (*model.Goal, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	g.ID, g.UserID = id, userID
	if err := s.goals.Create(ctx, &g, p); err != nil {
		return nil, storageErr("create goal", err)
	}
	return &g, nil
}
