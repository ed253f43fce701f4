package httpserver

import (
	"net/http"
	"time"

	"github.com/and161185/nutrikeeper/internal/model"
)

type goalRequest struct {
	Goal           model.GoalType `json:"goal"`
	TargetWeightKG float64        `json:"target_weight_kg"`
	Calories       int            `json:"calories"`
	ProteinG       int            `json:"protein_g"`
	FatG           int            `json:"fat_g"`
	CarbsG         int            `json:"carbs_g"`
	SugarG         int            `json:"sugar_g"`
	FiberG         int            `json:"fiber_g"`
}

func (g goalRequest) toModel() model.Goal {
	return model.Goal{
		Type: g.Goal, TargetWeightKG: g.TargetWeightKG, Calories: g.Calories,
		ProteinG: g.ProteinG, FatG: g.FatG, CarbsG: g.CarbsG, SugarG: g.SugarG, FiberG: g.FiberG,
	}
}

type goalResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	goalRequest
}

func toGoalResponse(g *model.Goal) goalResponse {
	return goalResponse{
		ID:        g.ID.String(),
		CreatedAt: g.CreatedAt,
		goalRequest: goalRequest{
			Goal: g.Type, TargetWeightKG: g.TargetWeightKG, Calories: g.Calories,
			ProteinG: g.ProteinG, FatG: g.FatG, CarbsG: g.CarbsG, SugarG: g.SugarG, FiberG: g.FiberG,
		},
	}
}

func (s *Server) setGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	var req goalRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	g, err := s.svc.Goals.Set(r.Context(), userID, req.toModel())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalResponse(g))
}

func (s *Server) currentGoal(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	g, err := s.svc.Goals.Current(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalResponse(g))
}

// onboardingRequest is the questionnaire: profile answers plus the goal.
type onboardingRequest struct {
	model.Profile
	goalRequest
}

func (s *Server) submitOnboarding(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromCtx(r.Context())
	var req onboardingRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, err)
		return
	}
	g, err := s.svc.Onboarding.Submit(r.Context(), userID, req.Profile, req.goalRequest.toModel())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok", "goal_id": g.ID.String()})
}
