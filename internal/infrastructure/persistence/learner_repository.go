package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"flashcard-scheduler/internal/domain/learner"
)

type learnerRepository struct {
	db *sql.DB
}

// NewLearnerRepository creates a new learner repository
func NewLearnerRepository(db *sql.DB) learner.Repository {
	return &learnerRepository{db: db}
}

// Save persists a learner to storage
func (r *learnerRepository) Save(ctx context.Context, l *learner.Learner) error {
	query := `
		INSERT INTO learners (id, name, telegram_chat_id, reminders_enabled, created_at, last_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		string(l.ID()), l.Name(), l.TelegramChatID(), l.RemindersEnabled(),
		formatTime(l.CreatedAt()), formatTime(l.LastActive()))
	if err != nil {
		return fmt.Errorf("failed to save learner: %w", err)
	}

	return nil
}

// FindByID retrieves a learner by ID
func (r *learnerRepository) FindByID(ctx context.Context, id learner.ID) (*learner.Learner, error) {
	query := `
		SELECT id, name, telegram_chat_id, reminders_enabled, created_at, last_active
		FROM learners WHERE id = ?
	`

	l, err := scanLearner(r.db.QueryRowContext(ctx, query, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find learner by ID: %w", err)
	}

	return l, nil
}

// FindByName retrieves a learner by name
func (r *learnerRepository) FindByName(ctx context.Context, name string) (*learner.Learner, error) {
	query := `
		SELECT id, name, telegram_chat_id, reminders_enabled, created_at, last_active
		FROM learners WHERE name = ?
	`

	l, err := scanLearner(r.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find learner by name: %w", err)
	}

	return l, nil
}

// Update updates an existing learner
func (r *learnerRepository) Update(ctx context.Context, l *learner.Learner) error {
	query := `
		UPDATE learners
		SET name = ?, telegram_chat_id = ?, reminders_enabled = ?, last_active = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		l.Name(), l.TelegramChatID(), l.RemindersEnabled(), formatTime(l.LastActive()), string(l.ID()))
	if err != nil {
		return fmt.Errorf("failed to update learner: %w", err)
	}

	return nil
}

// UpdateLastActive updates the last active time of a learner
func (r *learnerRepository) UpdateLastActive(ctx context.Context, id learner.ID, at time.Time) error {
	query := `UPDATE learners SET last_active = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, formatTime(at), string(id))
	if err != nil {
		return fmt.Errorf("failed to update last active: %w", err)
	}

	return nil
}

// GetAll retrieves all learners from storage
func (r *learnerRepository) GetAll(ctx context.Context) ([]*learner.Learner, error) {
	query := `
		SELECT id, name, telegram_chat_id, reminders_enabled, created_at, last_active
		FROM learners ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query learners: %w", err)
	}
	defer rows.Close()

	var learners []*learner.Learner
	for rows.Next() {
		l, err := scanLearner(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan learner: %w", err)
		}
		learners = append(learners, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return learners, nil
}

func scanLearner(row rowScanner) (*learner.Learner, error) {
	var (
		id, name              string
		chatID                int64
		remindersEnabled      bool
		createdAt, lastActive sql.NullString
	)

	if err := row.Scan(&id, &name, &chatID, &remindersEnabled, &createdAt, &lastActive); err != nil {
		return nil, err
	}

	created, err := parseDateTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	active, err := parseDateTime(lastActive)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_active: %w", err)
	}

	return learner.Restore(learner.ID(id), name, chatID, remindersEnabled, created, active), nil
}
