package usecases

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"flashcard-scheduler/internal/domain/fact"
	"flashcard-scheduler/internal/domain/learner"
	"flashcard-scheduler/internal/domain/learning"
)

var (
	// ErrLearnerNotFound is returned when an operation names an unknown learner.
	ErrLearnerNotFound = errors.New("usecases: learner not found")
	// ErrFactNotFound is returned when an operation names an unknown fact.
	ErrFactNotFound = errors.New("usecases: fact not found")
)

// PracticeUseCase handles enrolling facts and reviewing them
type PracticeUseCase struct {
	learningRepo learning.Repository
	factRepo     fact.Repository
	learnerRepo  learner.Repository
	now          func() time.Time
}

// NewPracticeUseCase creates a new practice use case
func NewPracticeUseCase(
	learningRepo learning.Repository,
	factRepo fact.Repository,
	learnerRepo learner.Repository,
) *PracticeUseCase {
	return &PracticeUseCase{
		learningRepo: learningRepo,
		factRepo:     factRepo,
		learnerRepo:  learnerRepo,
		now:          time.Now,
	}
}

// SetClock replaces the clock used for scheduling
func (uc *PracticeUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// Card is a due item together with the fact it schedules
type Card struct {
	Item learning.Item
	Fact *fact.Fact
}

// AnswerResult describes the schedule produced by an answer
type AnswerResult struct {
	Item            learning.Item
	Phase           learning.Phase
	DaysUntilReview int
}

// Enroll gets the learner's item for a fact, creating it if needed
func (uc *PracticeUseCase) Enroll(ctx context.Context, learnerID learner.ID, factID fact.ID) (*learning.Item, error) {
	if err := uc.requireLearner(ctx, learnerID); err != nil {
		return nil, err
	}

	f, err := uc.factRepo.FindByID(ctx, factID)
	if err != nil {
		return nil, fmt.Errorf("failed to find fact: %w", err)
	}
	if f == nil {
		return nil, ErrFactNotFound
	}

	item, err := uc.learningRepo.FindItemByFact(ctx, string(learnerID), string(factID))
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	if item != nil {
		return item, nil
	}

	created := uc.newItem(learnerID, factID)
	if err := uc.learningRepo.SaveItem(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to save new item: %w", err)
	}

	return &created, nil
}

// EnrollNew creates items for up to limit facts the learner has not seen yet.
// It returns the number of items created.
func (uc *PracticeUseCase) EnrollNew(ctx context.Context, learnerID learner.ID, limit int) (int, error) {
	if err := uc.requireLearner(ctx, learnerID); err != nil {
		return 0, err
	}

	factIDs, err := uc.learningRepo.FindUnenrolledFacts(ctx, string(learnerID), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to get unenrolled facts: %w", err)
	}

	for i, factID := range factIDs {
		if err := uc.learningRepo.SaveItem(ctx, uc.newItem(learnerID, fact.ID(factID))); err != nil {
			return i, fmt.Errorf("failed to save new item: %w", err)
		}
	}

	return len(factIDs), nil
}

// NextCard retrieves the learner's earliest due card, or nil when nothing is due
func (uc *PracticeUseCase) NextCard(ctx context.Context, learnerID learner.ID) (*Card, error) {
	cards, err := uc.ReviewQueue(ctx, learnerID, 1)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, nil
	}
	return &cards[0], nil
}

// ReviewQueue retrieves up to limit due cards, earliest first
func (uc *PracticeUseCase) ReviewQueue(ctx context.Context, learnerID learner.ID, limit int) ([]Card, error) {
	items, err := uc.learningRepo.FindDueItems(ctx, string(learnerID), uc.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get due items: %w", err)
	}

	cards := make([]Card, 0, len(items))
	for _, item := range items {
		f, err := uc.factRepo.FindByID(ctx, fact.ID(item.FactID))
		if err != nil {
			return nil, fmt.Errorf("failed to get fact: %w", err)
		}
		if f == nil {
			log.Printf("Skipping item %s: fact %s no longer exists", item.ID, item.FactID)
			continue
		}
		cards = append(cards, Card{Item: item, Fact: f})
	}

	return cards, nil
}

// SubmitAnswer records a graded answer for an item and persists the new
// schedule together with its history entry. It fails with
// learning.ErrConcurrentUpdate if the item changed since it was loaded.
func (uc *PracticeUseCase) SubmitAnswer(
	ctx context.Context,
	itemID learning.ItemID,
	grade learning.Grade,
	responseTime time.Duration,
) (*AnswerResult, error) {
	if !grade.IsValid() {
		return nil, &learning.ValidationError{Field: "grade", Value: int(grade), Reason: "must be between 0 and 5"}
	}

	item, err := uc.learningRepo.FindItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	if item == nil {
		return nil, learning.ErrItemNotFound
	}

	now := uc.now()
	next, err := learning.RecordAnswer(*item, grade, responseTime, now)
	if err != nil {
		return nil, err
	}

	history := learning.NewReviewHistory(next, grade, responseTime)
	if err := uc.learningRepo.SaveAnswer(ctx, item.UpdatedAt, next, history); err != nil {
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}

	if next.LearnerID != "" {
		if err := uc.learnerRepo.UpdateLastActive(ctx, learner.ID(next.LearnerID), now); err != nil {
			log.Printf("Failed to update last active for learner %s: %v", next.LearnerID, err)
		}
	}

	return &AnswerResult{
		Item:            next,
		Phase:           learning.PhaseOf(next),
		DaysUntilReview: learning.DaysUntilReview(next, now),
	}, nil
}

// SubmitRating records an answer given on a four-button scale
func (uc *PracticeUseCase) SubmitRating(
	ctx context.Context,
	itemID learning.ItemID,
	rating learning.Rating,
	responseTime time.Duration,
) (*AnswerResult, error) {
	if !rating.IsValid() {
		return nil, &learning.ValidationError{Field: "rating", Value: int(rating), Reason: "must be between 1 and 4"}
	}
	return uc.SubmitAnswer(ctx, itemID, rating.Grade(), responseTime)
}

// History retrieves an item's answers, newest first
func (uc *PracticeUseCase) History(ctx context.Context, itemID learning.ItemID) ([]*learning.ReviewHistory, error) {
	history, err := uc.learningRepo.FindReviewHistory(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review history: %w", err)
	}
	return history, nil
}

// Stats retrieves learning statistics for a learner
func (uc *PracticeUseCase) Stats(ctx context.Context, learnerID learner.ID) (*learning.LearnerStats, error) {
	stats, err := uc.learningRepo.GetLearnerStats(ctx, string(learnerID), uc.now())
	if err != nil {
		return nil, fmt.Errorf("failed to get learner stats: %w", err)
	}

	return stats, nil
}

// CheckAnswer compares a typed answer with the card's answer, ignoring case
// and surrounding whitespace
func (uc *PracticeUseCase) CheckAnswer(card *Card, answer string) bool {
	return normalizeAnswer(answer) == normalizeAnswer(card.Fact.Answer())
}

// SuggestGrade proposes a grade for a typed answer. Correct answers are
// graded by speed relative to slow; incorrect ones score 1.
func SuggestGrade(correct bool, responseTime, slow time.Duration) learning.Grade {
	switch {
	case !correct:
		return learning.GradeIncorrect
	case responseTime <= slow/2:
		return learning.GradePerfect
	case responseTime <= slow:
		return learning.GradeGood
	default:
		return learning.GradeHard
	}
}

func (uc *PracticeUseCase) newItem(learnerID learner.ID, factID fact.ID) learning.Item {
	item := learning.CreateNew(learning.NewItemID(), string(factID), uc.now())
	item.LearnerID = string(learnerID)
	return item
}

func (uc *PracticeUseCase) requireLearner(ctx context.Context, learnerID learner.ID) error {
	l, err := uc.learnerRepo.FindByID(ctx, learnerID)
	if err != nil {
		return fmt.Errorf("failed to find learner: %w", err)
	}
	if l == nil {
		return ErrLearnerNotFound
	}
	return nil
}

// normalizeAnswer normalizes an answer for comparison
func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.Join(strings.Fields(answer), " "))
}
