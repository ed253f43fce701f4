package model

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/and161185/nutrikeeper/internal/errs"
)

func TestDraftStatus_Transitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		s                         DraftStatus
		confirm, discard, cascade bool
	}{
		{DraftPending, true, true, false},
		{DraftConfirmed, false, false, true},
		{DraftDeleted, false, false, false},
	}
	for _, c := range cases {
		if got := c.s.CanConfirm(); got != c.confirm {
			t.Fatalf("%s CanConfirm=%v, want %v", c.s, got, c.confirm)
		}
		if got := c.s.CanDiscard(); got != c.discard {
			t.Fatalf("%s CanDiscard=%v, want %v", c.s, got, c.discard)
		}
		if got := c.s.CanCascadeDelete(); got != c.cascade {
			t.Fatalf("%s CanCascadeDelete=%v, want %v", c.s, got, c.cascade)
		}
	}
}

func TestMealLog_Validate(t *testing.T) {
	t.Parallel()

	m := MealLog{EatenAt: time.Now(), Kcal: 100, Macros: Macros{ProteinG: 5}}
	if err := m.Validate(); err != nil {
		t.Fatalf("valid meal: %v", err)
	}

	m.Macros.FatG = -1
	if err := m.Validate(); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on negative fat, got %v", err)
	}

	m = MealLog{Kcal: 1}
	if err := m.Validate(); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on missing eaten_at, got %v", err)
	}
}

func TestMealLog_Validate_NonFinite(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)
	for _, m := range []MealLog{
		{EatenAt: at, Kcal: math.NaN()},
		{EatenAt: at, PortionWeightG: math.Inf(1)},
		{EatenAt: at, Macros: Macros{SugarG: math.NaN()}},
	} {
		if err := m.Validate(); !errors.Is(err, errs.ErrValidation) {
			t.Fatalf("%+v: want ErrValidation, got %v", m, err)
		}
	}
}

func TestGoal_Validate(t *testing.T) {
	t.Parallel()

	g := Goal{Type: GoalEatHealthy, Calories: 2000}
	if err := g.Validate(); err != nil {
		t.Fatalf("valid goal: %v", err)
	}
	g.Type = "bulk"
	if err := g.Validate(); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on unknown type, got %v", err)
	}
	g = Goal{Type: GoalLose, ProteinG: -3}
	if err := g.Validate(); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on negative protein, got %v", err)
	}
}
