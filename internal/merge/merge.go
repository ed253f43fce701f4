// Package merge reconciles analyzer output, draft visible data and user
// overrides into the final meal record.
//
// For every field the first supplied value wins, in order: override,
// visible data, analyzer suggestion, default. Macro sub-fields are resolved
// one by one so a partial override keeps the remaining macros.
package merge

import (
	"time"

	"github.com/and161185/nutrikeeper/internal/model"
)

// DefaultName is used when no source supplies a meal title.
const DefaultName = "Meal"

// Meal builds the meal that a confirmation commits. It never fails.
// The default meal_time slot is taken in now's location, whatever offset
// eaten_at was submitted with.
func Meal(over model.MealOverrides, visible model.VisibleData, s model.Suggestion, now time.Time) model.MealLog {
	var vm model.MacroValues
	if visible.Macros != nil {
		vm = *visible.Macros
	}

	eatenAt := now
	if t := first(over.EatenAt, visible.EatenAt); t != nil {
		eatenAt = *t
	}

	m := model.MealLog{
		Name:           value(DefaultName, over.Title, visible.Title, s.Title),
		EatenAt:        eatenAt,
		Kcal:           value(0, over.TotalKcal, visible.TotalKcal, s.TotalKcal),
		PortionWeightG: value(0, over.PortionWeightGrams, visible.PortionWeightGrams, s.PortionWeightGrams),
		CookingMethod:  value("", over.CookingMethod, visible.CookingMethod, s.CookingMethod),
		SatietyHours:   value(0, over.SatietyHours, visible.SatietyHours, s.SatietyHours),
		Macros:         Macros(over.Macros, vm, s.Macros),
		Ingredients:    list(over.Ingredients, visible.Ingredients, s.Ingredients),
		MealTime:       value(Bucket(eatenAt.In(now.Location())), over.MealTime),
		Location:       value("", over.Location),
		Extra:          model.Document{},
	}
	for k, v := range over.Extra {
		m.Extra[k] = v
	}
	return m
}

// Macros resolves each macro independently across the three layers.
func Macros(over, visible, s model.MacroValues) model.Macros {
	return model.Macros{
		ProteinG: value(0, over.ProteinG, visible.ProteinG, s.ProteinG),
		FatG:     value(0, over.FatG, visible.FatG, s.FatG),
		CarbsG:   value(0, over.CarbsG, visible.CarbsG, s.CarbsG),
		SugarG:   value(0, over.SugarG, visible.SugarG, s.SugarG),
		FiberG:   value(0, over.FiberG, visible.FiberG, s.FiberG),
		SaltG:    value(0, over.SaltG, visible.SaltG, s.SaltG),
		WaterG:   value(0, over.WaterG, visible.WaterG, s.WaterG),
	}
}

// Snapshot renders a committed meal as the draft's audit visible data.
func Snapshot(m model.MealLog) model.VisibleData {
	macros := model.MacroValues{
		ProteinG: ptr(m.Macros.ProteinG),
		FatG:     ptr(m.Macros.FatG),
		CarbsG:   ptr(m.Macros.CarbsG),
		SugarG:   ptr(m.Macros.SugarG),
		FiberG:   ptr(m.Macros.FiberG),
		SaltG:    ptr(m.Macros.SaltG),
		WaterG:   ptr(m.Macros.WaterG),
	}
	v := model.VisibleData{
		TotalKcal:          ptr(m.Kcal),
		PortionWeightGrams: ptr(m.PortionWeightG),
		Macros:             &macros,
		SatietyHours:       ptr(m.SatietyHours),
		Title:              ptr(m.Name),
		EatenAt:            ptr(m.EatenAt),
		Ingredients:        append([]string{}, m.Ingredients...),
	}
	if m.PortionWeightG > 0 {
		v.PortionWeightOz = ptr(GramsToOunces(m.PortionWeightG))
	}
	if m.CookingMethod != "" {
		v.CookingMethod = ptr(m.CookingMethod)
	}
	return v
}

// Bucket names the time-of-day slot of t in its own location.
func Bucket(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 11:
		return "breakfast"
	case h >= 11 && h < 16:
		return "lunch"
	case h >= 16 && h < 22:
		return "dinner"
	default:
		return "snack"
	}
}

// GramsToOunces converts avoirdupois grams to ounces.
func GramsToOunces(g float64) float64 { return g / 28.349523125 }

func first[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func value[T any](def T, vals ...*T) T {
	if v := first(vals...); v != nil {
		return *v
	}
	return def
}

func list(vals ...[]string) []string {
	for _, v := range vals {
		if v != nil {
			return append([]string{}, v...)
		}
	}
	return []string{}
}

func ptr[T any](v T) *T { return &v }
