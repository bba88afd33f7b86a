package learning

import (
	"math"
	"time"
)

// CreateNew returns a fresh item for factID, due one day after now.
func CreateNew(id ItemID, factID string, now time.Time) Item {
	now = now.UTC()
	return Item{
		ID:     id,
		FactID: factID,
		Algorithm: AlgorithmState{
			IntervalDays:   InitialIntervalDays,
			EasinessFactor: DefaultEasinessFactor,
		},
		Schedule: ScheduleState{
			NextReviewAt: now.Add(InitialIntervalDays * Day),
		},
		Performance: PerformanceStats{
			DifficultyRating: DefaultDifficultyRating,
		},
		Lapses: LapseMetadata{
			IntroducedAt: now,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecordAnswer applies one review to item and returns the updated copy.
//
// A grade outside 0..5 returns a *ValidationError together with the
// unchanged item. Negative response times are recorded as zero.
func RecordAnswer(item Item, grade Grade, responseTime time.Duration, now time.Time) (Item, error) {
	if !grade.IsValid() {
		return item, &ValidationError{Field: "grade", Value: int(grade), Reason: "must be between 0 and 5"}
	}
	if responseTime < 0 {
		responseTime = 0
	}
	now = now.UTC()
	next := item

	next.Schedule.TotalReviews++
	reviewedAt := now
	next.Schedule.LastReviewedAt = &reviewedAt
	next.Performance.LastGrade = grade

	count := float64(next.Schedule.TotalReviews)
	accuracy := 0.0
	if grade.Passed() {
		accuracy = 100
	}
	next.Performance.AverageAccuracy = clamp(runningMean(item.Performance.AverageAccuracy, accuracy, count), 0, 100)
	ms := float64(responseTime) / float64(time.Millisecond)
	next.Performance.AverageResponseTimeMs = math.Max(runningMean(item.Performance.AverageResponseTimeMs, ms, count), 0)

	if grade.Passed() {
		applySuccess(&next, grade)
	} else {
		applyLapse(&next)
	}

	next.Schedule.NextReviewAt = now.Add(time.Duration(next.Algorithm.IntervalDays) * Day)
	next.UpdatedAt = now
	return next, nil
}

// IsDue reports whether the item's review time has arrived.
func IsDue(item Item, now time.Time) bool {
	return !item.Schedule.NextReviewAt.After(now)
}

// DaysUntilReview returns the number of days until the item is due, rounded
// up. Zero or negative values mean the item is due or overdue.
func DaysUntilReview(item Item, now time.Time) int {
	remaining := item.Schedule.NextReviewAt.Sub(now)
	days := remaining / Day
	if remaining%Day > 0 {
		days++
	}
	return int(days)
}

func applyLapse(it *Item) {
	it.Algorithm.RepetitionCount = 0
	it.Algorithm.IntervalDays = InitialIntervalDays
	it.Schedule.ConsecutiveCorrect = 0
	it.Lapses.LapseCount++
	it.Lapses.Graduated = false
}

func applySuccess(it *Item, grade Grade) {
	it.Schedule.ConsecutiveCorrect++

	ef := nextEasiness(it.Algorithm.EasinessFactor, grade)
	it.Algorithm.EasinessFactor = ef

	var interval int
	switch it.Algorithm.RepetitionCount {
	case 0:
		interval = 1
	case 1:
		interval = 6
	default:
		interval = int(math.Round(float64(it.Algorithm.IntervalDays) * ef))
	}
	it.Algorithm.IntervalDays = min(interval, MaxIntervalDays)

	it.Algorithm.RepetitionCount++
	it.Lapses.Graduated = it.Algorithm.RepetitionCount >= 2
}

// nextEasiness applies EF' = EF + (0.1 - q*(0.08 + q*0.02)) with q = 5-grade,
// evaluated in hundredths so grade 4 leaves the factor exactly unchanged.
func nextEasiness(ef float64, grade Grade) float64 {
	q := int(GradePerfect - grade)
	delta := float64(10-q*(8+2*q)) / 100
	return clamp(ef+delta, MinEasinessFactor, MaxEasinessFactor)
}

// runningMean folds sample into mean, where count includes the new sample.
func runningMean(mean, sample, count float64) float64 {
	return mean + (sample-mean)/count
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
