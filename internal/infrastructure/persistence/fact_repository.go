package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"flashcard-scheduler/internal/domain/fact"
)

type factRepository struct {
	db *sql.DB
}

// NewFactRepository creates a new fact repository
func NewFactRepository(db *sql.DB) fact.Repository {
	return &factRepository{db: db}
}

// Save persists a fact to storage. A fact with the same deck and prompt is
// left untouched.
func (r *factRepository) Save(ctx context.Context, f *fact.Fact) error {
	query := `
		INSERT OR IGNORE INTO facts (id, deck, prompt, answer)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, string(f.ID()), f.Deck(), f.Prompt(), f.Answer())
	if err != nil {
		return fmt.Errorf("failed to save fact: %w", err)
	}

	return nil
}

// SaveBatch persists multiple facts to storage
func (r *factRepository) SaveBatch(ctx context.Context, facts []*fact.Fact) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO facts (id, deck, prompt, answer)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, f := range facts {
		_, err := stmt.ExecContext(ctx, string(f.ID()), f.Deck(), f.Prompt(), f.Answer())
		if err != nil {
			return fmt.Errorf("failed to save fact %q: %w", f.Prompt(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindByID retrieves a fact by its ID
func (r *factRepository) FindByID(ctx context.Context, id fact.ID) (*fact.Fact, error) {
	query := `SELECT id, deck, prompt, answer FROM facts WHERE id = ?`

	f, err := scanFact(r.db.QueryRowContext(ctx, query, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find fact by ID: %w", err)
	}

	return f, nil
}

// FindAll retrieves all facts in import order
func (r *factRepository) FindAll(ctx context.Context) ([]*fact.Fact, error) {
	return r.queryFacts(ctx, `SELECT id, deck, prompt, answer FROM facts ORDER BY rowid`)
}

// FindByDeck retrieves facts of one deck
func (r *factRepository) FindByDeck(ctx context.Context, deck string) ([]*fact.Fact, error) {
	return r.queryFacts(ctx,
		`SELECT id, deck, prompt, answer FROM facts WHERE deck = ? ORDER BY rowid`,
		fact.NormalizeDeck(deck))
}

// Exists checks if a fact with the same deck and prompt already exists
func (r *factRepository) Exists(ctx context.Context, deck, prompt string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM facts WHERE deck = ? AND prompt = ?`,
		fact.NormalizeDeck(deck), prompt).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check fact existence: %w", err)
	}

	return count > 0, nil
}

func (r *factRepository) queryFacts(ctx context.Context, query string, args ...any) ([]*fact.Fact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query facts: %w", err)
	}
	defer rows.Close()

	var facts []*fact.Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		facts = append(facts, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return facts, nil
}

func scanFact(row rowScanner) (*fact.Fact, error) {
	var id, deck, prompt, answer string
	if err := row.Scan(&id, &deck, &prompt, &answer); err != nil {
		return nil, err
	}
	return fact.NewFact(fact.ID(id), deck, prompt, answer)
}
