package learner

import (
	"context"
	"time"
)

// Repository defines the contract for learner persistence
type Repository interface {
	// Save persists a learner to storage
	Save(ctx context.Context, learner *Learner) error

	// FindByID retrieves a learner by ID
	FindByID(ctx context.Context, id ID) (*Learner, error)

	// FindByName retrieves a learner by name
	FindByName(ctx context.Context, name string) (*Learner, error)

	// Update updates an existing learner
	Update(ctx context.Context, learner *Learner) error

	// UpdateLastActive updates the last active time of a learner
	UpdateLastActive(ctx context.Context, id ID, at time.Time) error

	// GetAll retrieves all learners from storage
	GetAll(ctx context.Context) ([]*Learner, error)
}
