package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// DraftStatus is the lifecycle state of a meal draft.
type DraftStatus string

const (
	DraftPending   DraftStatus = "pending"
	DraftConfirmed DraftStatus = "confirmed"
	DraftDeleted   DraftStatus = "deleted"
)

// CanConfirm reports whether a draft in status s may be confirmed.
func (s DraftStatus) CanConfirm() bool { return s == DraftPending }

// CanDiscard reports whether a draft in status s may be discarded directly.
func (s DraftStatus) CanDiscard() bool { return s == DraftPending }

// CanCascadeDelete reports whether deleting the meal that references a draft
// in status s may soft-delete the draft. Only confirmed drafts own a meal.
func (s DraftStatus) CanCascadeDelete() bool { return s == DraftConfirmed }

// MacroValues is the nullable macro structure shared by analyzer output,
// visible data and user overrides. nil means "not supplied".
type MacroValues struct {
	ProteinG *float64 `json:"protein_g"`
	FatG     *float64 `json:"fat_g"`
	CarbsG   *float64 `json:"carbohydrates_g"`
	SugarG   *float64 `json:"sugar_g"`
	FiberG   *float64 `json:"fiber_g"`
	SaltG    *float64 `json:"salt_g"`
	WaterG   *float64 `json:"water_g"`
}

// Suggestion is the normalized view of an analyzer estimate.
type Suggestion struct {
	Title              *string     `json:"title,omitempty"`
	TotalKcal          *float64    `json:"total_kcal"`
	PortionWeightGrams *float64    `json:"portion_weight_grams"`
	PortionWeightOz    *float64    `json:"portion_weight_oz"`
	CookingMethod      *string     `json:"cooking_method"`
	Macros             MacroValues `json:"macros"`
	SatietyHours       *float64    `json:"satiety_hours"`
	Ingredients        []string    `json:"ingredients,omitempty"`
}

// VisibleData is the display projection of a draft. While pending it holds
// the analyzer-derived subset; after confirmation it is the committed snapshot.
type VisibleData struct {
	TotalKcal          *float64     `json:"total_kcal"`
	PortionWeightGrams *float64     `json:"portion_weight_grams"`
	PortionWeightOz    *float64     `json:"portion_weight_oz"`
	CookingMethod      *string      `json:"cooking_method"`
	Macros             *MacroValues `json:"macros"`
	SatietyHours       *float64     `json:"satiety_hours"`

	Title       *string    `json:"title,omitempty"`
	EatenAt     *time.Time `json:"eaten_at,omitempty"`
	Ingredients []string   `json:"ingredients,omitempty"`
}

// MealDraft is an analyzer-derived meal awaiting confirmation.
type MealDraft struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CreatedAt   time.Time
	GPTResult   Document // raw analyzer output, whatever the gateway returned
	VisibleData VisibleData
	Status      DraftStatus
}

// MealOverrides are user-submitted values applied on confirmation. nil fields are absent.
type MealOverrides struct {
	Title              *string     `json:"title"`
	EatenAt            *time.Time  `json:"eaten_at"`
	TotalKcal          *float64    `json:"total_kcal"`
	PortionWeightGrams *float64    `json:"portion_weight_grams"`
	CookingMethod      *string     `json:"cooking_method"`
	Macros             MacroValues `json:"macros"`
	SatietyHours       *float64    `json:"satiety_hours"`
	Ingredients        []string    `json:"ingredients"`
	MealTime           *string     `json:"meal_time"`
	Location           *string     `json:"location"`
	Extra              Document    `json:"extra"`
}

// ConfirmResult identifies the meal written by a confirmation.
type ConfirmResult struct {
	MealID  uuid.UUID
	DraftID uuid.UUID
	Meal    MealLog
}
