package model

import (
	"fmt"
	"math"

	"github.com/and161185/nutrikeeper/internal/errs"
)

// Validate checks MealLog invariants: eaten_at set and every quantity finite and non-negative.
func (m *MealLog) Validate() error {
	if m.EatenAt.IsZero() {
		return errs.Validation("eaten_at is required")
	}
	quantities := []struct {
		name string
		v    float64
	}{
		{"kcal", m.Kcal},
		{"protein_g", m.Macros.ProteinG},
		{"fat_g", m.Macros.FatG},
		{"carbohydrates_g", m.Macros.CarbsG},
		{"sugar_g", m.Macros.SugarG},
		{"fiber_g", m.Macros.FiberG},
		{"salt_g", m.Macros.SaltG},
		{"water_g", m.Macros.WaterG},
		{"portion_weight_grams", m.PortionWeightG},
		{"satiety_hours", m.SatietyHours},
	}
	for _, q := range quantities {
		if q.v < 0 || math.IsNaN(q.v) || math.IsInf(q.v, 0) {
			return errs.Validation(fmt.Sprintf("%s must be a non-negative number", q.name))
		}
	}
	return nil
}

// Validate checks goal vocabulary and non-negative targets.
func (g *Goal) Validate() error {
	if !g.Type.Valid() {
		return errs.Validation(fmt.Sprintf("unknown goal_type %q", g.Type))
	}
	if g.TargetWeightKG < 0 || g.Calories < 0 || g.ProteinG < 0 || g.FatG < 0 ||
		g.CarbsG < 0 || g.SugarG < 0 || g.FiberG < 0 {
		return errs.Validation("goal targets must be non-negative")
	}
	return nil
}
