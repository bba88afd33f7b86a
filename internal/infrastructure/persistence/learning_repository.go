package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"flashcard-scheduler/internal/domain/learning"
)

const itemColumns = `
	id, learner_id, fact_id, interval_days, repetition_count, easiness_factor,
	next_review_at, last_reviewed_at, total_reviews, consecutive_correct,
	average_accuracy, average_response_time_ms, difficulty_rating, last_grade,
	introduced_at, graduated, lapse_count, created_at, updated_at`

type learningRepository struct {
	db *sql.DB
}

// NewLearningRepository creates a new learning repository
func NewLearningRepository(db *sql.DB) learning.Repository {
	return &learningRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// SaveItem inserts a new scheduler item
func (r *learningRepository) SaveItem(ctx context.Context, item learning.Item) error {
	if err := learning.Validate(item); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	query := `INSERT INTO scheduler_items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		string(item.ID), item.LearnerID, item.FactID,
		item.Algorithm.IntervalDays, item.Algorithm.RepetitionCount, item.Algorithm.EasinessFactor,
		formatTime(item.Schedule.NextReviewAt), nullableTime(item.Schedule.LastReviewedAt),
		item.Schedule.TotalReviews, item.Schedule.ConsecutiveCorrect,
		item.Performance.AverageAccuracy, item.Performance.AverageResponseTimeMs,
		item.Performance.DifficultyRating, int(item.Performance.LastGrade),
		formatTime(item.Lapses.IntroducedAt), item.Lapses.Graduated, item.Lapses.LapseCount,
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	return nil
}

// FindItem retrieves an item by ID
func (r *learningRepository) FindItem(ctx context.Context, id learning.ItemID) (*learning.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM scheduler_items WHERE id = ?`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return &item, nil
}

// FindItemByFact retrieves the item a learner has for a fact
func (r *learningRepository) FindItemByFact(ctx context.Context, learnerID, factID string) (*learning.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM scheduler_items WHERE learner_id = ? AND fact_id = ?`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, learnerID, factID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item by fact: %w", err)
	}
	return &item, nil
}

// FindDueItems retrieves items due at now, earliest first
func (r *learningRepository) FindDueItems(ctx context.Context, learnerID string, now time.Time, limit int) ([]learning.Item, error) {
	query := `SELECT ` + itemColumns + `
		FROM scheduler_items
		WHERE learner_id = ? AND next_review_at <= ?
		ORDER BY next_review_at ASC, rowid ASC
		LIMIT ?`

	return r.queryItems(ctx, query, learnerID, formatTime(now), limitOrAll(limit))
}

// FindItemsByLearner retrieves all items of a learner
func (r *learningRepository) FindItemsByLearner(ctx context.Context, learnerID string) ([]learning.Item, error) {
	query := `SELECT ` + itemColumns + `
		FROM scheduler_items
		WHERE learner_id = ?
		ORDER BY next_review_at ASC, rowid ASC`

	return r.queryItems(ctx, query, learnerID)
}

func (r *learningRepository) queryItems(ctx context.Context, query string, args ...any) ([]learning.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []learning.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// FindUnenrolledFacts gets facts that don't have an item for the learner yet,
// in import order
func (r *learningRepository) FindUnenrolledFacts(ctx context.Context, learnerID string, limit int) ([]string, error) {
	query := `
		SELECT f.id
		FROM facts f
		WHERE f.id NOT IN (SELECT fact_id FROM scheduler_items WHERE learner_id = ?)
		ORDER BY f.rowid
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, learnerID, limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query unenrolled facts: %w", err)
	}
	defer rows.Close()

	var factIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan fact ID: %w", err)
		}
		factIDs = append(factIDs, id)
	}

	return factIDs, rows.Err()
}

// SaveAnswer updates the reviewed item and appends its history in a single
// transaction. The update only applies while the stored row is the one the
// answer was computed from: same updated_at and one review fewer.
func (r *learningRepository) SaveAnswer(ctx context.Context, previousUpdatedAt time.Time, item learning.Item, history *learning.ReviewHistory) error {
	if err := learning.Validate(item); err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE scheduler_items
		SET interval_days = ?, repetition_count = ?, easiness_factor = ?,
			next_review_at = ?, last_reviewed_at = ?, total_reviews = ?, consecutive_correct = ?,
			average_accuracy = ?, average_response_time_ms = ?, difficulty_rating = ?, last_grade = ?,
			graduated = ?, lapse_count = ?, updated_at = ?
		WHERE id = ? AND updated_at = ? AND total_reviews = ?
	`
	result, err := tx.ExecContext(ctx, query,
		item.Algorithm.IntervalDays, item.Algorithm.RepetitionCount, item.Algorithm.EasinessFactor,
		formatTime(item.Schedule.NextReviewAt), nullableTime(item.Schedule.LastReviewedAt),
		item.Schedule.TotalReviews, item.Schedule.ConsecutiveCorrect,
		item.Performance.AverageAccuracy, item.Performance.AverageResponseTimeMs,
		item.Performance.DifficultyRating, int(item.Performance.LastGrade),
		item.Lapses.Graduated, item.Lapses.LapseCount, formatTime(item.UpdatedAt),
		string(item.ID), formatTime(previousUpdatedAt), item.Schedule.TotalReviews-1)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM scheduler_items WHERE id = ?`, string(item.ID)).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check item: %w", err)
		}
		if exists == 0 {
			return learning.ErrItemNotFound
		}
		return learning.ErrConcurrentUpdate
	}

	if history != nil {
		query = `
			INSERT INTO review_history
			(item_id, learner_id, fact_id, grade, review_time, response_time_ms, interval_days, easiness_factor)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		result, err = tx.ExecContext(ctx, query,
			string(history.ItemID()), history.LearnerID(), history.FactID(),
			int(history.Grade()), formatTime(history.ReviewTime()), history.ResponseTimeMs(),
			history.IntervalDays(), history.EasinessFactor())
		if err != nil {
			return fmt.Errorf("failed to save review history: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get review history ID: %w", err)
		}
		history.SetID(learning.HistoryID(id))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// FindReviewHistory retrieves the review history of an item, newest first
func (r *learningRepository) FindReviewHistory(ctx context.Context, itemID learning.ItemID) ([]*learning.ReviewHistory, error) {
	query := `
		SELECT id, item_id, learner_id, fact_id, grade, review_time, response_time_ms, interval_days, easiness_factor
		FROM review_history
		WHERE item_id = ?
		ORDER BY review_time DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, string(itemID))
	if err != nil {
		return nil, fmt.Errorf("failed to query review history: %w", err)
	}
	defer rows.Close()

	var historyList []*learning.ReviewHistory
	for rows.Next() {
		var (
			id              int64
			iID, lID, fID   string
			grade, interval int
			reviewTimeStr   sql.NullString
			responseTimeMs  int64
			easinessFactor  float64
		)
		err := rows.Scan(&id, &iID, &lID, &fID, &grade, &reviewTimeStr, &responseTimeMs, &interval, &easinessFactor)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review history: %w", err)
		}

		reviewTime, err := parseDateTime(reviewTimeStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse review_time: %w", err)
		}

		historyList = append(historyList, learning.RestoreReviewHistory(
			learning.HistoryID(id), learning.ItemID(iID), lID, fID, learning.Grade(grade),
			reviewTime, responseTimeMs, interval, easinessFactor))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return historyList, nil
}

// GetLearnerStats retrieves learning statistics for a learner
func (r *learningRepository) GetLearnerStats(ctx context.Context, learnerID string, now time.Time) (*learning.LearnerStats, error) {
	stats := &learning.LearnerStats{}

	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM facts`).Scan(&stats.TotalFacts)
	if err != nil {
		return nil, fmt.Errorf("failed to count facts: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN total_reviews = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN total_reviews > 0 AND graduated = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN graduated = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN next_review_at <= ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(lapse_count), 0),
			COALESCE(AVG(CASE WHEN total_reviews > 0 THEN average_accuracy END), 0)
		FROM scheduler_items
		WHERE learner_id = ?
	`, formatTime(now), learnerID).Scan(
		&stats.TotalItems, &stats.NewItems, &stats.LearningItems, &stats.GraduatedItems,
		&stats.DueItems, &stats.TotalLapses, &stats.AverageAccuracy)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate items: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN grade >= ? THEN 1 ELSE 0 END), 0)
		FROM review_history WHERE learner_id = ?
	`, int(learning.PassingGrade), learnerID).Scan(&stats.TotalReviews, &stats.CorrectReviews)
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	return stats, nil
}

// GetLearnersWithItems retrieves all learners who have scheduler items
func (r *learningRepository) GetLearnersWithItems(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT learner_id FROM scheduler_items ORDER BY learner_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query learners with items: %w", err)
	}
	defer rows.Close()

	var learnerIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan learner ID: %w", err)
		}
		learnerIDs = append(learnerIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return learnerIDs, nil
}

// scanItem reads one scheduler_items row and validates it, so corrupted rows
// are reported instead of being scheduled.
func scanItem(row rowScanner) (learning.Item, error) {
	var (
		item                               learning.Item
		id                                 string
		lastGrade                          int
		nextReview, lastReviewed           sql.NullString
		introducedAt, createdAt, updatedAt sql.NullString
	)

	err := row.Scan(&id, &item.LearnerID, &item.FactID,
		&item.Algorithm.IntervalDays, &item.Algorithm.RepetitionCount, &item.Algorithm.EasinessFactor,
		&nextReview, &lastReviewed, &item.Schedule.TotalReviews, &item.Schedule.ConsecutiveCorrect,
		&item.Performance.AverageAccuracy, &item.Performance.AverageResponseTimeMs,
		&item.Performance.DifficultyRating, &lastGrade,
		&introducedAt, &item.Lapses.Graduated, &item.Lapses.LapseCount, &createdAt, &updatedAt)
	if err != nil {
		return learning.Item{}, err
	}
	item.ID = learning.ItemID(id)
	item.Performance.LastGrade = learning.Grade(lastGrade)

	if item.Schedule.NextReviewAt, err = parseDateTime(nextReview); err != nil {
		return learning.Item{}, fmt.Errorf("failed to parse next_review_at: %w", err)
	}
	if lastReviewed.Valid {
		t, err := parseDateTime(lastReviewed)
		if err != nil {
			return learning.Item{}, fmt.Errorf("failed to parse last_reviewed_at: %w", err)
		}
		item.Schedule.LastReviewedAt = &t
	}
	if item.Lapses.IntroducedAt, err = parseDateTime(introducedAt); err != nil {
		return learning.Item{}, fmt.Errorf("failed to parse introduced_at: %w", err)
	}
	if item.CreatedAt, err = parseDateTime(createdAt); err != nil {
		return learning.Item{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if item.UpdatedAt, err = parseDateTime(updatedAt); err != nil {
		return learning.Item{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return learning.Restore(item)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
