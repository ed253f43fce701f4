package service

import (
	"context"
	"time"

	"github.com/and161185/nutrikeeper/internal/analyzer"
	"github.com/and161185/nutrikeeper/internal/errs"
	"github.com/and161185/nutrikeeper/internal/merge"
	"github.com/and161185/nutrikeeper/internal/metrics"
	"github.com/and161185/nutrikeeper/internal/model"
	"github.com/and161185/nutrikeeper/internal/repository"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// DraftService drives the meal draft lifecycle: pending -> confirmed | deleted.
type DraftService interface {
	// Create analyzes the input and stores a pending draft.
	Create(ctx context.Context, userID uuid.UUID, in analyzer.Input) (*model.MealDraft, model.Suggestion, error)
	// Get returns one draft of the user.
	Get(ctx context.Context, userID, draftID uuid.UUID) (*model.MealDraft, error)
	// Confirm merges overrides into the draft and commits the meal.
	Confirm(ctx context.Context, userID, draftID uuid.UUID, over model.MealOverrides) (model.ConfirmResult, error)
	// Discard soft-deletes a pending draft.
	Discard(ctx context.Context, userID, draftID uuid.UUID) error
}

type DraftServiceImpl struct {
	drafts   repository.DraftRepository
	analyzer analyzer.Analyzer
	loc      *time.Location
	log      *zap.Logger
	now      func() time.Time
}

var _ DraftService = (*DraftServiceImpl)(nil)

// NewDraftService constructs DraftService. loc is the zone meal_time slots
// are computed in.
func NewDraftService(drafts repository.DraftRepository, a analyzer.Analyzer, loc *time.Location, log *zap.Logger) *DraftServiceImpl {
	if loc == nil {
		loc = time.Local
	}
	return &DraftServiceImpl{drafts: drafts, analyzer: a, loc: loc, log: log, now: time.Now}
}

// Create calls the analyzer and persists whatever it returned. visible_data
// is the projection of the normalized estimate; fields the analyzer did not
// supply stay null.
func (s *DraftServiceImpl) Create(ctx context.Context, userID uuid.UUID, in analyzer.Input) (*model.MealDraft, model.Suggestion, error) {
	if userID == uuid.Nil {
		return nil, model.Suggestion{}, errs.ErrUnauthorized
	}
	a, err := s.analyzer.Analyze(ctx, in)
	if err != nil {
		return nil, model.Suggestion{}, err
	}
	if a.Empty() {
		return nil, model.Suggestion{}, errs.ErrAnalysisEmpty
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, model.Suggestion{}, err
	}
	d := &model.MealDraft{
		ID:          id,
		UserID:      userID,
		GPTResult:   a.Raw,
		VisibleData: analyzer.Project(a.Suggestion),
		Status:      model.DraftPending,
	}
	if err := s.drafts.Create(ctx, d); err != nil {
		return nil, model.Suggestion{}, storageErr("create draft", err)
	}
	metrics.DraftTransition(string(model.DraftPending))
	s.log.Info("draft created",
		zap.String("draft_id", id.String()),
		zap.Bool("parsed", a.Parsed),
		zap.Int("images", len(in.Images)),
	)
	return d, a.Suggestion, nil
}

// Get returns a draft; another user's draft is reported as not found.
func (s *DraftServiceImpl) Get(ctx context.Context, userID, draftID uuid.UUID) (*model.MealDraft, error) {
	d, err := s.drafts.Get(ctx, userID, draftID)
	if err != nil {
		return nil, storageErr("get draft", err)
	}
	return d, nil
}

// Confirm commits the merged meal and flips the draft to confirmed in one
// transaction. Only one of several concurrent confirmations succeeds; the
// others see errs.ErrInvalidState.
func (s *DraftServiceImpl) Confirm(
	ctx context.Context, userID, draftID uuid.UUID, over model.MealOverrides,
) (model.ConfirmResult, error) {
	now := s.now().In(s.loc)
	meal, err := s.drafts.Confirm(ctx, userID, draftID, func(d *model.MealDraft) (model.MealLog, model.VisibleData, error) {
		m := merge.Meal(over, d.VisibleData, analyzer.Normalize(d.GPTResult), now)
		id, err := uuid.NewV4()
		if err != nil {
			return model.MealLog{}, model.VisibleData{}, err
		}
		m.ID = id
		if err := m.Validate(); err != nil {
			return model.MealLog{}, model.VisibleData{}, err
		}
		return m, merge.Snapshot(m), nil
	})
	if err != nil {
		return model.ConfirmResult{}, storageErr("confirm draft", err)
	}
	metrics.DraftTransition(string(model.DraftConfirmed))
	s.log.Info("draft confirmed", zap.String("draft_id", draftID.String()), zap.String("meal_id", meal.ID.String()))
	return model.ConfirmResult{MealID: meal.ID, DraftID: draftID, Meal: *meal}, nil
}

// Discard soft-deletes a pending draft. Confirmed drafts leave that state
// only together with their meal.
func (s *DraftServiceImpl) Discard(ctx context.Context, userID, draftID uuid.UUID) error {
	if err := s.drafts.Discard(ctx, userID, draftID); err != nil {
		return storageErr("discard draft", err)
	}
	metrics.DraftTransition(string(model.DraftDeleted))
	return nil
}
