package model

import "time"

// Targets is the active goal rendered for the dashboard.
type Targets struct {
	Goal     GoalType `json:"goal"`
	Calories int      `json:"calories"`
	ProteinG int      `json:"protein_g"`
	FatG     int      `json:"fat_g"`
	CarbsG   int      `json:"carbs_g"`
	SugarG   int      `json:"sugar_g"`
	FiberG   int      `json:"fiber_g"`
}

// MealItem is one meal of the day.
type MealItem struct {
	ID       string  `json:"id"`
	Time     string  `json:"time"`
	Name     string  `json:"name"`
	Kcal     float64 `json:"kcal"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbsG   float64 `json:"carbs_g"`
	SugarG   float64 `json:"sugar_g"`
	FiberG   float64 `json:"fiber_g"`
}

// WaterItem is one water intake of the day.
type WaterItem struct {
	ID   string `json:"id"`
	Time string `json:"time"`
	ML   int    `json:"ml"`
}

// WeightBlock pairs the starting weight with today's sample.
type WeightBlock struct {
	StartKG float64  `json:"start_kg"`
	TodayKG *float64 `json:"today_kg"`
}

// Totals are per-day sums; macros rounded to one decimal.
type Totals struct {
	Kcal     float64 `json:"kcal"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbsG   float64 `json:"carbs_g"`
	SugarG   float64 `json:"sugar_g"`
	FiberG   float64 `json:"fiber_g"`
	WaterML  int     `json:"water_ml"`
}

// Dashboard is the daily "consumed versus goal" view.
type Dashboard struct {
	Date    time.Time   `json:"-"`
	Targets *Targets    `json:"targets"`
	Meals   []MealItem  `json:"meals"`
	Water   []WaterItem `json:"water"`
	Weight  WeightBlock `json:"weight"`
	Totals  Totals      `json:"totals"`
}
