package learning

import (
	"context"
	"time"
)

// Repository defines the contract for scheduler item persistence.
// Find methods return nil, nil when nothing matches.
type Repository interface {
	// SaveItem inserts a new item
	SaveItem(ctx context.Context, item Item) error

	// FindItem retrieves an item by ID
	FindItem(ctx context.Context, id ItemID) (*Item, error)

	// FindItemByFact retrieves the item a learner has for a fact
	FindItemByFact(ctx context.Context, learnerID, factID string) (*Item, error)

	// FindDueItems retrieves a learner's items due at now, earliest first
	FindDueItems(ctx context.Context, learnerID string, now time.Time, limit int) ([]Item, error)

	// FindItemsByLearner retrieves all items of a learner
	FindItemsByLearner(ctx context.Context, learnerID string) ([]Item, error)

	// FindUnenrolledFacts retrieves IDs of facts the learner has no item for yet
	FindUnenrolledFacts(ctx context.Context, learnerID string, limit int) ([]string, error)

	// SaveAnswer updates a reviewed item and appends its history entry in one
	// transaction. item must be the result of one RecordAnswer on the stored
	// row; it fails with ErrConcurrentUpdate when the stored row's updated_at
	// no longer equals previousUpdatedAt or another answer was saved first.
	SaveAnswer(ctx context.Context, previousUpdatedAt time.Time, item Item, history *ReviewHistory) error

	// FindReviewHistory retrieves the history of an item, newest first
	FindReviewHistory(ctx context.Context, itemID ItemID) ([]*ReviewHistory, error)

	// GetLearnerStats retrieves learning statistics for a learner
	GetLearnerStats(ctx context.Context, learnerID string, now time.Time) (*LearnerStats, error)

	// GetLearnersWithItems retrieves all learners that have at least one item
	GetLearnersWithItems(ctx context.Context) ([]string, error)
}

// LearnerStats represents learning statistics for a learner
type LearnerStats struct {
	TotalFacts      int
	TotalItems      int
	NewItems        int
	LearningItems   int
	GraduatedItems  int
	DueItems        int
	TotalLapses     int
	TotalReviews    int
	CorrectReviews  int
	AverageAccuracy float64
}
