// Package repository defines storage interfaces implemented by concrete backends.
// Every method is scoped by the owning user's id; implementations must never
// return or touch rows of another user.
package repository

import (
	"context"

	"github.com/and161185/nutrikeeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides access to the mutable user snapshot.
type UserRepository interface {
	// Create inserts a new user; a taken name yields errs.ErrConflict.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByName loads a user by unique name.
	GetByName(ctx context.Context, name string) (*model.User, error)
}

// GoalRepository stores immutable goals and the user's current-goal pointer.
type GoalRepository interface {
	// Create inserts g with a creation time strictly after the user's previous
	// goal and points users.current_goal_id at it. When profile is non-nil the
	// user's anthropometric snapshot is updated in the same transaction.
	Create(ctx context.Context, g *model.Goal, profile *model.Profile) error
	// Current returns the most recently created goal or errs.ErrNotFound.
	Current(ctx context.Context, userID uuid.UUID) (*model.Goal, error)
}
