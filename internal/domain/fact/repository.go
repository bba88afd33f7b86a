package fact

import "context"

// Repository defines the contract for fact persistence
type Repository interface {
	// Save persists a fact to storage
	Save(ctx context.Context, fact *Fact) error

	// SaveBatch persists multiple facts to storage
	SaveBatch(ctx context.Context, facts []*Fact) error

	// FindByID retrieves a fact by its ID
	FindByID(ctx context.Context, id ID) (*Fact, error)

	// FindAll retrieves all facts
	FindAll(ctx context.Context) ([]*Fact, error)

	// FindByDeck retrieves facts of one deck
	FindByDeck(ctx context.Context, deck string) ([]*Fact, error)

	// Exists checks if a fact with the same deck and prompt already exists
	Exists(ctx context.Context, deck, prompt string) (bool, error)
}
