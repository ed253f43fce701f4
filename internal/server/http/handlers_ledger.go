package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/and161185/nutrikeeper/internal/errs"
	"github.com/and161185/nutrikeeper/internal/model"
	"github.com/go-chi/chi/v5"
)

const dateLayout = "2006-01-02"

type mealResponse struct {
	ID             string       `json:"id"`
	DraftID        *string      `json:"draft_id"`
	EatenAt        time.Time    `json:"eaten_at"`
	Name           string       `json:"name"`
	Kcal           float64      `json:"kcal"`
	Macros         model.Macros `json:"macros"`
	Ingredients    []string     `json:"ingredients"`
	CookingMethod  string       `json:"cooking_method"`
	PortionWeightG float64      `json:"portion_weight_grams"`
	SatietyHours   float64      `json:"satiety_hours"`
	MealTime       string       `json:"meal_time"`
	Location       string       `json:"location"`
}

func toMealResponse(m *model.MealLog) mealResponse {
	out := mealResponse{
		ID:             m.ID.String(),
		EatenAt:        m.EatenAt,
		Name:           m.Name,
		Kcal:           m.Kcal,
		Macros:         m.Macros,
		Ingredients:    m.Ingredients,
		CookingMethod:  m.CookingMethod,
		PortionWeightG: m.PortionWeightG,
		SatietyHours:   m.SatietyHours,
		MealTime:       m.MealTime,
		Location:       m.Location,
	}
	if m.DraftID.Valid {
		id := m.DraftID.UUID.String()
		out.DraftID = &id
	}
	return out
}

func (s *Server) logMeal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	var in model.MealOverrides
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, err)
		return
	}
	m, err := s.svc.Meals.Log(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMealResponse(m))
}

type deleteResponse struct {
	Status  model.DeleteStatus `json:"status"`
	MealID  string             `json:"meal_id,omitempty"`
	ID      string             `json:"id,omitempty"`
	DraftID *string            `json:"draft_id,omitempty"`
}

// deleteMeal cascades to the source draft unless ?cascade_draft=false.
func (s *Server) deleteMeal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	cascade := true
	if v := r.URL.Query().Get("cascade_draft"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, errs.Validation("cascade_draft must be a boolean"))
			return
		}
		cascade = b
	}
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusOK, deleteResponse{Status: model.DeleteNotFound, MealID: chi.URLParam(r, "id")})
		return
	}
	res, err := s.svc.Meals.Delete(r.Context(), userID, id, cascade)
	if err != nil {
		writeError(w, err)
		return
	}
	out := deleteResponse{Status: res.Status, MealID: res.ID.String()}
	if res.DraftID.Valid {
		d := res.DraftID.UUID.String()
		out.DraftID = &d
	}
	writeJSON(w, http.StatusOK, out)
}

type waterRequest struct {
	ML      int        `json:"ml"`
	DrankAt *time.Time `json:"drank_at"`
}

type waterResponse struct {
	ID      string    `json:"id"`
	ML      int       `json:"ml"`
	DrankAt time.Time `json:"drank_at"`
}

func (s *Server) addWater(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	var req waterRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	wl, err := s.svc.Water.Add(r.Context(), userID, req.ML, req.DrankAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, waterResponse{ID: wl.ID.String(), ML: wl.ML, DrankAt: wl.DrankAt})
}

func (s *Server) deleteWater(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusOK, deleteResponse{Status: model.DeleteNotFound, ID: chi.URLParam(r, "id")})
		return
	}
	res, err := s.svc.Water.Delete(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Status: res.Status, ID: res.ID.String()})
}

type weightRequest struct {
	KG   float64 `json:"kg"`
	Date string  `json:"date"`
}

func (s *Server) recordWeight(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	var req weightRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	wl, err := s.svc.Weight.Record(r.Context(), userID, req.KG, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":   wl.ID.String(),
		"date": wl.OnDate.Format(dateLayout),
		"kg":   wl.KG,
	})
}

// parseDate reads a YYYY-MM-DD value in the server zone; empty means today.
func (s *Server) parseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, s.opts.Location)
	if err != nil {
		return nil, errs.Validation("date must be YYYY-MM-DD")
	}
	return &t, nil
}

type dashboardResponse struct {
	Date string `json:"date"`
	*model.Dashboard
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	date, err := s.parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := s.svc.Dashboard.Dashboard(r.Context(), userID, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{Date: d.Date.Format(dateLayout), Dashboard: d})
}
