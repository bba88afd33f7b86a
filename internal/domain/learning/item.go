package learning

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	MinEasinessFactor       = 1.3
	MaxEasinessFactor       = 2.5
	DefaultEasinessFactor   = 2.5
	InitialIntervalDays     = 1
	MaxIntervalDays         = 365
	DefaultDifficultyRating = 3

	// Day is the unit of IntervalDays.
	Day = 24 * time.Hour
)

// ItemID identifies a scheduler item for its whole lifetime.
type ItemID string

// NewItemID returns a random item ID.
func NewItemID() ItemID {
	return ItemID(uuid.NewString())
}

// AlgorithmState holds the inputs of the interval calculation.
type AlgorithmState struct {
	IntervalDays    int     `json:"interval_days"`
	RepetitionCount int     `json:"repetition_count"` // successes since the last lapse
	EasinessFactor  float64 `json:"easiness_factor"`
}

// ScheduleState records when the item was and will be reviewed.
type ScheduleState struct {
	NextReviewAt       time.Time  `json:"next_review_at"`
	LastReviewedAt     *time.Time `json:"last_reviewed_at"` // nil before first review.
	TotalReviews       int        `json:"total_reviews"`
	ConsecutiveCorrect int        `json:"consecutive_correct"`
}

// PerformanceStats are running measures over every review of the item.
type PerformanceStats struct {
	AverageAccuracy       float64 `json:"average_accuracy"` // percent of passing grades
	AverageResponseTimeMs float64 `json:"average_response_time_ms"`
	DifficultyRating      int     `json:"difficulty_rating"` // set by callers, 1-5
	LastGrade             Grade   `json:"last_grade"`
}

// LapseMetadata tracks graduation and failures.
type LapseMetadata struct {
	IntroducedAt time.Time `json:"introduced_at"`
	Graduated    bool      `json:"graduated"`
	LapseCount   int       `json:"lapse_count"`
}

// Item is the scheduling state of one fact for one learner.
// Items are values: RecordAnswer returns an updated copy and never
// writes through the one it was given.
type Item struct {
	ID          ItemID           `json:"id"`
	FactID      string           `json:"fact_id"`
	LearnerID   string           `json:"learner_id,omitempty"`
	Algorithm   AlgorithmState   `json:"algorithm_state"`
	Schedule    ScheduleState    `json:"schedule_state"`
	Performance PerformanceStats `json:"performance_stats"`
	Lapses      LapseMetadata    `json:"lapse_metadata"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// UnmarshalJSON decodes an item and rejects it if any invariant is broken.
func (it *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("learning: decode item: %w", err)
	}
	item := Item(p).normalized()
	if err := Validate(item); err != nil {
		return err
	}
	*it = item
	return nil
}

// normalized returns the item with every timestamp in UTC.
func (it Item) normalized() Item {
	it.Schedule.NextReviewAt = it.Schedule.NextReviewAt.UTC()
	if it.Schedule.LastReviewedAt != nil {
		v := it.Schedule.LastReviewedAt.UTC()
		it.Schedule.LastReviewedAt = &v
	}
	it.Lapses.IntroducedAt = it.Lapses.IntroducedAt.UTC()
	it.CreatedAt = it.CreatedAt.UTC()
	it.UpdatedAt = it.UpdatedAt.UTC()
	return it
}

// Restore rebuilds an item loaded from storage. Timestamps are converted to
// UTC and the result is validated, so corrupted rows surface as errors.
func Restore(item Item) (Item, error) {
	item = item.normalized()
	if err := Validate(item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Validate checks every invariant of an item. It never clamps.
func Validate(item Item) error {
	a, s, p, l := item.Algorithm, item.Schedule, item.Performance, item.Lapses

	switch {
	case item.ID == "":
		return &ValidationError{Field: "id", Value: item.ID, Reason: "must not be empty"}
	case item.FactID == "":
		return &ValidationError{Field: "fact_id", Value: item.FactID, Reason: "must not be empty"}
	case a.IntervalDays < 0 || a.IntervalDays > MaxIntervalDays:
		return &ValidationError{Field: "interval_days", Value: a.IntervalDays, Reason: fmt.Sprintf("must be between 0 and %d", MaxIntervalDays)}
	case a.RepetitionCount < 0:
		return &ValidationError{Field: "repetition_count", Value: a.RepetitionCount, Reason: "must not be negative"}
	case a.EasinessFactor < MinEasinessFactor || a.EasinessFactor > MaxEasinessFactor:
		return &ValidationError{Field: "easiness_factor", Value: a.EasinessFactor, Reason: fmt.Sprintf("must be between %.1f and %.1f", MinEasinessFactor, MaxEasinessFactor)}
	case s.NextReviewAt.IsZero():
		return &ValidationError{Field: "next_review_at", Value: s.NextReviewAt, Reason: "must be set"}
	case s.TotalReviews < 0:
		return &ValidationError{Field: "total_reviews", Value: s.TotalReviews, Reason: "must not be negative"}
	case s.TotalReviews > 0 && s.LastReviewedAt == nil:
		return &ValidationError{Field: "last_reviewed_at", Value: nil, Reason: "must be set once the item has been reviewed"}
	case s.TotalReviews == 0 && s.LastReviewedAt != nil:
		return &ValidationError{Field: "last_reviewed_at", Value: *s.LastReviewedAt, Reason: "must be empty before the first review"}
	case s.ConsecutiveCorrect < 0 || s.ConsecutiveCorrect > s.TotalReviews:
		return &ValidationError{Field: "consecutive_correct", Value: s.ConsecutiveCorrect, Reason: "must be between 0 and total_reviews"}
	case p.AverageAccuracy < 0 || p.AverageAccuracy > 100:
		return &ValidationError{Field: "average_accuracy", Value: p.AverageAccuracy, Reason: "must be between 0 and 100"}
	case p.AverageResponseTimeMs < 0:
		return &ValidationError{Field: "average_response_time_ms", Value: p.AverageResponseTimeMs, Reason: "must not be negative"}
	case p.DifficultyRating < 1 || p.DifficultyRating > 5:
		return &ValidationError{Field: "difficulty_rating", Value: p.DifficultyRating, Reason: "must be between 1 and 5"}
	case !p.LastGrade.IsValid():
		return &ValidationError{Field: "last_grade", Value: int(p.LastGrade), Reason: "must be between 0 and 5"}
	case l.IntroducedAt.IsZero():
		return &ValidationError{Field: "introduced_at", Value: l.IntroducedAt, Reason: "must be set"}
	case l.LapseCount < 0:
		return &ValidationError{Field: "lapse_count", Value: l.LapseCount, Reason: "must not be negative"}
	case l.Graduated && a.RepetitionCount < 2:
		return &ValidationError{Field: "graduated", Value: l.Graduated, Reason: "requires at least two repetitions"}
	}
	return nil
}
