package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/and161185/nutrikeeper/internal/analyzer"
	"github.com/and161185/nutrikeeper/internal/errs"
	"github.com/and161185/nutrikeeper/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const goodToken = "good"

var testUser = uuid.Must(uuid.FromString("6f1c7c2e-4a57-4a55-9a3e-8f4f0d1d2b11"))

type fakeAuth struct {
	registerErr error
	lastIP      string
}

func (f *fakeAuth) Register(_ context.Context, name, _ string) (uuid.UUID, error) {
	if f.registerErr != nil {
		return uuid.Nil, f.registerErr
	}
	return testUser, nil
}

func (f *fakeAuth) LoginWithIP(_ context.Context, name, password, ip string) (model.Tokens, model.User, error) {
	f.lastIP = ip
	if password != "pw" {
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}
	return model.Tokens{AccessToken: goodToken, ExpiresAt: time.Now().Add(time.Hour)}, model.User{ID: testUser, Name: name}, nil
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	if token != goodToken {
		return uuid.Nil, errs.ErrUnauthorized
	}
	return testUser, nil
}

type fakeDrafts struct {
	in         analyzer.Input
	createErr  error
	confirmErr error
	over       model.MealOverrides
}

func (f *fakeDrafts) Create(_ context.Context, userID uuid.UUID, in analyzer.Input) (*model.MealDraft, model.Suggestion, error) {
	f.in = in
	if f.createErr != nil {
		return nil, model.Suggestion{}, f.createErr
	}
	kcal := 420.0
	return &model.MealDraft{ID: uuid.Must(uuid.NewV4()), UserID: userID, Status: model.DraftPending,
		VisibleData: model.VisibleData{TotalKcal: &kcal}}, model.Suggestion{}, nil
}

func (f *fakeDrafts) Get(_ context.Context, userID, id uuid.UUID) (*model.MealDraft, error) {
	return &model.MealDraft{ID: id, UserID: userID, Status: model.DraftPending}, nil
}

func (f *fakeDrafts) Confirm(_ context.Context, _, id uuid.UUID, over model.MealOverrides) (model.ConfirmResult, error) {
	f.over = over
	if f.confirmErr != nil {
		return model.ConfirmResult{}, f.confirmErr
	}
	return model.ConfirmResult{MealID: uuid.Must(uuid.NewV4()), DraftID: id}, nil
}

func (f *fakeDrafts) Discard(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type fakeMeals struct {
	cascade *bool
	missing bool
}

func (f *fakeMeals) Log(_ context.Context, userID uuid.UUID, in model.MealOverrides) (*model.MealLog, error) {
	name := "Meal"
	if in.Title != nil {
		name = *in.Title
	}
	return &model.MealLog{ID: uuid.Must(uuid.NewV4()), UserID: userID, Name: name, EatenAt: time.Now(), Ingredients: []string{}}, nil
}

func (f *fakeMeals) Delete(_ context.Context, _, mealID uuid.UUID, cascade bool) (model.DeleteResult, error) {
	f.cascade = &cascade
	if f.missing {
		return model.DeleteResult{Status: model.DeleteNotFound, ID: mealID}, nil
	}
	return model.DeleteResult{Status: model.DeleteDeleted, ID: mealID}, nil
}

type fakeWater struct{}

func (fakeWater) Add(_ context.Context, userID uuid.UUID, ml int, _ *time.Time) (*model.WaterLog, error) {
	if ml <= 0 {
		return nil, errs.Validation("ml must be positive")
	}
	return &model.WaterLog{ID: uuid.Must(uuid.NewV4()), UserID: userID, ML: ml, DrankAt: time.Now()}, nil
}

func (fakeWater) Delete(_ context.Context, _, id uuid.UUID) (model.DeleteResult, error) {
	return model.DeleteResult{Status: model.DeleteDeleted, ID: id}, nil
}

type fakeWeight struct{ date *time.Time }

func (f *fakeWeight) Record(_ context.Context, userID uuid.UUID, kg float64, date *time.Time) (*model.WeightLog, error) {
	f.date = date
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if date != nil {
		day = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	}
	return &model.WeightLog{ID: uuid.Must(uuid.NewV4()), UserID: userID, OnDate: day, KG: kg}, nil
}

type fakeGoals struct {
	profile model.Profile
	current *model.Goal
}

func (f *fakeGoals) Set(_ context.Context, userID uuid.UUID, g model.Goal) (*model.Goal, error) {
	g.ID, g.UserID, g.CreatedAt = uuid.Must(uuid.NewV4()), userID, time.Now()
	return &g, nil
}

func (f *fakeGoals) Current(context.Context, uuid.UUID) (*model.Goal, error) {
	if f.current == nil {
		return nil, errs.ErrNotFound
	}
	return f.current, nil
}

func (f *fakeGoals) Submit(ctx context.Context, userID uuid.UUID, p model.Profile, g model.Goal) (*model.Goal, error) {
	f.profile = p
	return f.Set(ctx, userID, g)
}

type fakeDashboard struct{ date *time.Time }

func (f *fakeDashboard) Dashboard(_ context.Context, _ uuid.UUID, date *time.Time) (*model.Dashboard, error) {
	f.date = date
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if date != nil {
		day = *date
	}
	return &model.Dashboard{Date: day, Meals: []model.MealItem{}, Water: []model.WaterItem{}}, nil
}

type fixture struct {
	auth   *fakeAuth
	drafts *fakeDrafts
	meals  *fakeMeals
	weight *fakeWeight
	goals  *fakeGoals
	dash   *fakeDashboard
	h      http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		auth: &fakeAuth{}, drafts: &fakeDrafts{}, meals: &fakeMeals{},
		weight: &fakeWeight{}, goals: &fakeGoals{}, dash: &fakeDashboard{},
	}
	s := New(Services{
		Auth: f.auth, Drafts: f.drafts, Meals: f.meals, Water: fakeWater{},
		Weight: f.weight, Goals: f.goals, Onboarding: f.goals, Dashboard: f.dash,
	}, Options{MaxUploadBytes: 1 << 20, Location: time.UTC}, zap.NewNop())
	f.h = s.Routes()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+goodToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestRequireUser(t *testing.T) {
	f := newFixture(t)
	for _, hdr := range []string{"", "Bearer", "Basic abc", "Bearer nope"} {
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		if hdr != "" {
			req.Header.Set("Authorization", hdr)
		}
		rec := httptest.NewRecorder()
		f.h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", hdr)
		require.Equal(t, "unauthorized", decodeBody(t, rec)["error"])
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/auth/register", `{"name":"alice","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, testUser.String(), decodeBody(t, rec)["user_id"])

	f.auth.registerErr = errs.ErrConflict
	rec = f.do(t, http.MethodPost, "/api/auth/register", `{"name":"alice","password":"pw"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"name":"alice","password":"pw"}`))
	req.RemoteAddr = "203.0.113.7:5555"
	rec = httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, goodToken, body["access_token"])
	require.Equal(t, "bearer", body["token_type"])
	require.Equal(t, "203.0.113.7", f.auth.lastIP)

	rec = f.do(t, http.MethodPost, "/api/auth/login", `{"name":"alice","password":"bad"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{errs.Validation("x"), http.StatusBadRequest, "validation_error"},
		{errs.ErrNoInputProvided, http.StatusBadRequest, "no_input_provided"},
		{errs.ErrNotFound, http.StatusNotFound, "not_found"},
		{errs.ErrInvalidState, http.StatusConflict, "invalid_state"},
		{errs.ErrAnalysisEmpty, http.StatusUnprocessableEntity, "analysis_empty"},
		{errs.ErrAnalyzerUnavailable, http.StatusBadGateway, "analyzer_unavailable"},
		{errs.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{errs.ErrStorage, http.StatusInternalServerError, "storage_error"},
	}
	for _, c := range cases {
		t.Run(c.code, func(t *testing.T) {
			f := newFixture(t)
			f.drafts.confirmErr = c.err
			rec := f.do(t, http.MethodPost, "/api/drafts/"+uuid.Must(uuid.NewV4()).String()+"/confirm", "")
			require.Equal(t, c.status, rec.Code)
			body := decodeBody(t, rec)
			require.Equal(t, c.code, body["error"])
			if c.status == http.StatusInternalServerError {
				require.Equal(t, "internal error", body["message"])
			}
		})
	}
}

func TestCreateDraft_Multipart(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("text", "chicken salad"))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="images"; filename="a.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte{0xff, 0xd8, 0xff})
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/drafts", &buf)
	req.Header.Set("Authorization", "Bearer "+goodToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, decodeBody(t, rec)["draft_id"])
	require.Equal(t, "chicken salad", f.drafts.in.Text)
	require.Len(t, f.drafts.in.Images, 1)
	require.Equal(t, "image/jpeg", f.drafts.in.Images[0].ContentType)
}

func TestCreateDraft_NotMultipart(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/drafts", `{"text":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmDraft_OverridesAndBadID(t *testing.T) {
	f := newFixture(t)
	id := uuid.Must(uuid.NewV4())

	rec := f.do(t, http.MethodPost, "/api/drafts/"+id.String()+"/confirm", `{"title":"Bowl","total_kcal":500}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, id.String(), decodeBody(t, rec)["draft_id"])
	require.Equal(t, "Bowl", *f.drafts.over.Title)
	require.Equal(t, 500.0, *f.drafts.over.TotalKcal)

	rec = f.do(t, http.MethodPost, "/api/drafts/not-a-uuid/confirm", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/drafts/"+id.String()+"/confirm", `{"title":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMeal_CascadeDefault(t *testing.T) {
	f := newFixture(t)
	id := uuid.Must(uuid.NewV4()).String()

	rec := f.do(t, http.MethodDelete, "/api/meals/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, *f.meals.cascade)
	require.Equal(t, "deleted", decodeBody(t, rec)["status"])

	rec = f.do(t, http.MethodDelete, "/api/meals/"+id+"?cascade_draft=false", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, *f.meals.cascade)

	rec = f.do(t, http.MethodDelete, "/api/meals/"+id+"?cascade_draft=maybe", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	f.meals.missing = true
	rec = f.do(t, http.MethodDelete, "/api/meals/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "not_found", decodeBody(t, rec)["status"])

	rec = f.do(t, http.MethodDelete, "/api/meals/garbage", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "not_found", decodeBody(t, rec)["status"])
}

func TestLogMeal(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/meals", `{"title":"Apple","total_kcal":80}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Apple", decodeBody(t, rec)["name"])
}

func TestWater(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/water", `{"ml":250}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 250.0, decodeBody(t, rec)["ml"])

	rec = f.do(t, http.MethodPost, "/api/water", `{"ml":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/water/"+uuid.Must(uuid.NewV4()).String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "deleted", decodeBody(t, rec)["status"])
}

func TestRecordWeight(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/weight", `{"kg":79.5,"date":"2025-03-02"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "2025-03-02", body["date"])
	require.Equal(t, 79.5, body["kg"])

	rec = f.do(t, http.MethodPost, "/api/weight", `{"kg":79.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, f.weight.date)

	rec = f.do(t, http.MethodPost, "/api/weight", `{"kg":79.5,"date":"03/02/2025"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGoalsAndOnboarding(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/goals/current", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/goals", `{"goal":"lose","calories":1800,"protein_g":120}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "lose", body["goal"])
	require.Equal(t, 1800.0, body["calories"])

	rec = f.do(t, http.MethodPost, "/api/onboarding/submit",
		`{"gender":"female","age":31,"height_cm":168,"weight_kg":64,"goal":"maintain","calories":2000}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, decodeBody(t, rec)["goal_id"])
	require.Equal(t, model.Profile{Gender: "female", Age: 31, HeightCM: 168, WeightKG: 64}, f.goals.profile)
}

func TestDashboard_Date(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/dashboard?date=2025-03-04", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "2025-03-04", body["date"])
	require.NotNil(t, body["meals"])
	require.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), *f.dash.date)

	rec = f.do(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Nil(t, f.dash.date)

	rec = f.do(t, http.MethodGet, "/api/dashboard?date=tomorrow", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecover(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
