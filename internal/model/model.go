// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Document is a schema-less JSON object persisted as jsonb.
type Document map[string]any

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User is the mutable "current snapshot" of an account.
type User struct {
	ID              uuid.UUID     // PK
	Name            string        // unique
	PwdHash         string        // encoded argon2id hash, empty for credential-less users
	Gender          string        // free-form, as submitted during onboarding
	Age             int           // years, 0 when unknown
	HeightCM        float64       // 0 when unknown
	StartWeightKG   float64       // weight at registration/onboarding
	CurrentWeightKG float64       // latest profile weight
	CurrentGoalID   uuid.NullUUID // weak reference to goals.id
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Profile is the anthropometric part of a user snapshot.
type Profile struct {
	Gender   string  `json:"gender"`
	Age      int     `json:"age"`
	HeightCM float64 `json:"height_cm"`
	WeightKG float64 `json:"weight_kg"`
}

// GoalType is the kind of nutrition target.
type GoalType string

const (
	GoalMaintain   GoalType = "maintain"
	GoalLose       GoalType = "lose"
	GoalGain       GoalType = "gain"
	GoalEatHealthy GoalType = "eat_healthy"
)

// Valid reports whether t belongs to the goal vocabulary.
func (t GoalType) Valid() bool {
	switch t {
	case GoalMaintain, GoalLose, GoalGain, GoalEatHealthy:
		return true
	}
	return false
}

// Goal is an immutable, versioned nutrition target.
type Goal struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	CreatedAt      time.Time // strictly increasing per user
	Type           GoalType
	TargetWeightKG float64
	Calories       int
	ProteinG       int
	FatG           int
	CarbsG         int
	SugarG         int
	FiberG         int
}

// Macros holds macro quantities of a confirmed meal.
type Macros struct {
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbsG   float64 `json:"carbohydrates_g"`
	SugarG   float64 `json:"sugar_g"`
	FiberG   float64 `json:"fiber_g"`
	SaltG    float64 `json:"salt_g"`
	WaterG   float64 `json:"water_g"`
}

// MealLog is a confirmed consumption event.
type MealLog struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	DraftID        uuid.NullUUID // provenance, set when created via draft confirmation
	EatenAt        time.Time
	Name           string
	Kcal           float64
	Macros         Macros
	Ingredients    []string
	CookingMethod  string
	PortionWeightG float64
	SatietyHours   float64
	MealTime       string // time-of-day bucket (breakfast, lunch, ...)
	Location       string
	Extra          Document
	CreatedAt      time.Time
}

// WaterLog is a single water intake.
type WaterLog struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	DrankAt time.Time
	ML      int
}

// WeightLog is the weight sample of a user for one calendar date.
type WeightLog struct {
	ID     uuid.UUID
	UserID uuid.UUID
	OnDate time.Time // date only, midnight UTC
	KG     float64
}

// DeleteStatus is the soft outcome of an idempotent delete.
type DeleteStatus string

const (
	DeleteDeleted  DeleteStatus = "deleted"
	DeleteNotFound DeleteStatus = "not_found"
)

// DeleteResult reports the outcome of a meal or water deletion.
type DeleteResult struct {
	Status  DeleteStatus
	ID      uuid.UUID
	DraftID uuid.NullUUID // draft flipped to deleted by the cascade, if any
}
