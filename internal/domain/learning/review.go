package learning

import "time"

// HistoryID identifies a review history row.
type HistoryID int64

// ReviewHistory represents a single answered review, with a snapshot of the
// schedule it produced.
type ReviewHistory struct {
	id             HistoryID
	itemID         ItemID
	learnerID      string
	factID         string
	grade          Grade
	reviewTime     time.Time
	responseTimeMs int64
	intervalDays   int
	easinessFactor float64
}

// NewReviewHistory creates a history entry for an item returned by RecordAnswer.
func NewReviewHistory(reviewed Item, grade Grade, responseTime time.Duration) *ReviewHistory {
	if responseTime < 0 {
		responseTime = 0
	}
	return &ReviewHistory{
		itemID:         reviewed.ID,
		learnerID:      reviewed.LearnerID,
		factID:         reviewed.FactID,
		grade:          grade,
		reviewTime:     reviewed.UpdatedAt,
		responseTimeMs: responseTime.Milliseconds(),
		intervalDays:   reviewed.Algorithm.IntervalDays,
		easinessFactor: reviewed.Algorithm.EasinessFactor,
	}
}

// RestoreReviewHistory rebuilds a history entry from storage.
func RestoreReviewHistory(id HistoryID, itemID ItemID, learnerID, factID string, grade Grade,
	reviewTime time.Time, responseTimeMs int64, intervalDays int, easinessFactor float64) *ReviewHistory {
	return &ReviewHistory{
		id:             id,
		itemID:         itemID,
		learnerID:      learnerID,
		factID:         factID,
		grade:          grade,
		reviewTime:     reviewTime,
		responseTimeMs: responseTimeMs,
		intervalDays:   intervalDays,
		easinessFactor: easinessFactor,
	}
}

// Getters for ReviewHistory
func (rh *ReviewHistory) ID() HistoryID           { return rh.id }
func (rh *ReviewHistory) ItemID() ItemID          { return rh.itemID }
func (rh *ReviewHistory) LearnerID() string       { return rh.learnerID }
func (rh *ReviewHistory) FactID() string          { return rh.factID }
func (rh *ReviewHistory) Grade() Grade            { return rh.grade }
func (rh *ReviewHistory) ReviewTime() time.Time   { return rh.reviewTime }
func (rh *ReviewHistory) ResponseTimeMs() int64   { return rh.responseTimeMs }
func (rh *ReviewHistory) IntervalDays() int       { return rh.intervalDays }
func (rh *ReviewHistory) EasinessFactor() float64 { return rh.easinessFactor }

// SetID sets the review history ID (used by repository)
func (rh *ReviewHistory) SetID(id HistoryID) {
	rh.id = id
}
