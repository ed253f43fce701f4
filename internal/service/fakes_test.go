package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/and161185/nutrikeeper/internal/analyzer"
	"github.com/and161185/nutrikeeper/internal/errs"
	"github.com/and161185/nutrikeeper/internal/limiter"
	"github.com/and161185/nutrikeeper/internal/model"
	"github.com/and161185/nutrikeeper/internal/repository"
	"github.com/gofrs/uuid/v5"
)

type fakeUsers struct {
	byName map[string]*model.User

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byName == nil {
		f.byName = map[string]*model.User{}
	}
	if _, exists := f.byName[u.Name]; exists {
		return errs.ErrConflict
	}
	cpy := *u
	f.byName[u.Name] = &cpy
	return nil
}
func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byName {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}
func (f *fakeUsers) GetByName(_ context.Context, name string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[name]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return nil
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

type fakeAnalyzer struct {
	out   analyzer.Analysis
	err   error
	calls int
}

func (a *fakeAnalyzer) Analyze(_ context.Context, in analyzer.Input) (analyzer.Analysis, error) {
	a.calls++
	if in.Empty() {
		return analyzer.Analysis{}, errs.ErrNoInputProvided
	}
	return a.out, a.err
}

// fakeStore keeps drafts and meals together so confirmation and cascade
// deletion behave atomically under one mutex.
type fakeStore struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]model.MealDraft
	meals  map[uuid.UUID]model.MealLog

	createErr error
	insertErr error
}

var (
	_ repository.DraftRepository = (*fakeStore)(nil)
	_ repository.MealRepository  = mealRepo{}
)

func newFakeStore() *fakeStore {
	return &fakeStore{drafts: map[uuid.UUID]model.MealDraft{}, meals: map[uuid.UUID]model.MealLog{}}
}

func (f *fakeStore) Create(_ context.Context, d *model.MealDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	d.CreatedAt = time.Now()
	f.drafts[d.ID] = *d
	return nil
}

func (f *fakeStore) Get(_ context.Context, userID, draftID uuid.UUID) (*model.MealDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drafts[draftID]
	if !ok || d.UserID != userID {
		return nil, errs.ErrNotFound
	}
	return &d, nil
}

func (f *fakeStore) Confirm(_ context.Context, userID, draftID uuid.UUID, fn repository.ConfirmFunc) (*model.MealLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drafts[draftID]
	if !ok || d.UserID != userID {
		return nil, errs.ErrNotFound
	}
	if !d.Status.CanConfirm() {
		return nil, errs.ErrInvalidState
	}
	m, visible, err := fn(&d)
	if err != nil {
		return nil, err
	}
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	m.UserID = userID
	m.DraftID = uuid.NullUUID{UUID: d.ID, Valid: true}
	f.meals[m.ID] = m
	d.Status = model.DraftConfirmed
	d.VisibleData = visible
	f.drafts[d.ID] = d
	return &m, nil
}

func (f *fakeStore) Discard(_ context.Context, userID, draftID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drafts[draftID]
	if !ok || d.UserID != userID {
		return errs.ErrNotFound
	}
	if !d.Status.CanDiscard() {
		return errs.ErrInvalidState
	}
	d.Status = model.DraftDeleted
	f.drafts[d.ID] = d
	return nil
}

// mealRepo is the meal side of fakeStore.
type mealRepo struct{ *fakeStore }

func (r mealRepo) Create(_ context.Context, m *model.MealLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.meals[m.ID] = *m
	return nil
}

func (f *fakeStore) ListBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]model.MealLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.MealLog{}
	for _, m := range f.meals {
		if m.UserID == userID && !m.EatenAt.Before(from) && !m.EatenAt.After(to) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EatenAt.Before(out[j].EatenAt) })
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, userID, mealID uuid.UUID, cascade bool) (uuid.NullUUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meals[mealID]
	if !ok || m.UserID != userID {
		return uuid.NullUUID{}, errs.ErrNotFound
	}
	var flipped uuid.NullUUID
	if cascade && m.DraftID.Valid {
		if d, ok := f.drafts[m.DraftID.UUID]; ok && d.UserID == userID && d.Status.CanCascadeDelete() {
			d.Status = model.DraftDeleted
			f.drafts[d.ID] = d
			flipped = m.DraftID
		}
	}
	delete(f.meals, mealID)
	return flipped, nil
}

type fakeWater struct {
	logs map[uuid.UUID]model.WaterLog
}

var _ repository.WaterRepository = (*fakeWater)(nil)

func newFakeWater() *fakeWater { return &fakeWater{logs: map[uuid.UUID]model.WaterLog{}} }

func (f *fakeWater) Create(_ context.Context, w *model.WaterLog) error {
	f.logs[w.ID] = *w
	return nil
}
func (f *fakeWater) ListBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]model.WaterLog, error) {
	out := []model.WaterLog{}
	for _, w := range f.logs {
		if w.UserID == userID && !w.DrankAt.Before(from) && !w.DrankAt.After(to) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DrankAt.Before(out[j].DrankAt) })
	return out, nil
}
func (f *fakeWater) Delete(_ context.Context, userID, id uuid.UUID) error {
	w, ok := f.logs[id]
	if !ok || w.UserID != userID {
		return errs.ErrNotFound
	}
	delete(f.logs, id)
	return nil
}

type weightKey struct {
	user uuid.UUID
	day  time.Time
}

type fakeWeights struct {
	byDay map[weightKey]model.WeightLog
	err   error
}

var _ repository.WeightRepository = (*fakeWeights)(nil)

func newFakeWeights() *fakeWeights { return &fakeWeights{byDay: map[weightKey]model.WeightLog{}} }

func (f *fakeWeights) Upsert(_ context.Context, w *model.WeightLog) error {
	if f.err != nil {
		return f.err
	}
	k := weightKey{w.UserID, w.OnDate}
	if old, ok := f.byDay[k]; ok {
		w.ID = old.ID
	}
	f.byDay[k] = *w
	return nil
}
func (f *fakeWeights) OnDate(_ context.Context, userID uuid.UUID, date time.Time) (*model.WeightLog, error) {
	w, ok := f.byDay[weightKey{userID, date}]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &w, nil
}

type fakeGoals struct {
	list     []model.Goal
	profiles []model.Profile
	err      error
}

var _ repository.GoalRepository = (*fakeGoals)(nil)

func (f *fakeGoals) Create(_ context.Context, g *model.Goal, p *model.Profile) error {
	if f.err != nil {
		return f.err
	}
	g.CreatedAt = time.Now()
	if n := len(f.list); n > 0 && !g.CreatedAt.After(f.list[n-1].CreatedAt) {
		g.CreatedAt = f.list[n-1].CreatedAt.Add(time.Microsecond)
	}
	f.list = append(f.list, *g)
	if p != nil {
		f.profiles = append(f.profiles, *p)
	}
	return nil
}
func (f *fakeGoals) Current(_ context.Context, userID uuid.UUID) (*model.Goal, error) {
	for i := len(f.list) - 1; i >= 0; i-- {
		if f.list[i].UserID == userID {
			g := f.list[i]
			return &g, nil
		}
	}
	return nil, errs.ErrNotFound
}

func fptr(v float64) *float64 { return &v }
func sptr(v string) *string    { return &v }
