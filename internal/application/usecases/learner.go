package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flashcard-scheduler/internal/domain/learner"
)

// LearnerUseCase handles learner registration and reminder settings
type LearnerUseCase struct {
	learnerRepo learner.Repository
	now         func() time.Time
}

// NewLearnerUseCase creates a new learner use case
func NewLearnerUseCase(learnerRepo learner.Repository) *LearnerUseCase {
	return &LearnerUseCase{
		learnerRepo: learnerRepo,
		now:         time.Now,
	}
}

// SetClock replaces the clock used for activity timestamps
func (uc *LearnerUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// GetOrCreateLearner gets an existing learner by name or creates a new one
func (uc *LearnerUseCase) GetOrCreateLearner(ctx context.Context, name string) (*learner.Learner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("learner name is required")
	}

	existing, err := uc.learnerRepo.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find learner: %w", err)
	}

	if existing != nil {
		existing.Touch(uc.now())
		if err := uc.learnerRepo.UpdateLastActive(ctx, existing.ID(), existing.LastActive()); err != nil {
			return nil, fmt.Errorf("failed to update learner: %w", err)
		}
		return existing, nil
	}

	l := learner.NewLearner(name, uc.now())
	if err := uc.learnerRepo.Save(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to save new learner: %w", err)
	}

	return l, nil
}

// GetLearner retrieves a learner by name
func (uc *LearnerUseCase) GetLearner(ctx context.Context, name string) (*learner.Learner, error) {
	l, err := uc.learnerRepo.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("failed to find learner: %w", err)
	}

	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrLearnerNotFound, name)
	}

	return l, nil
}

// SetTelegramChat links the chat reminders are sent to
func (uc *LearnerUseCase) SetTelegramChat(ctx context.Context, name string, chatID int64) (*learner.Learner, error) {
	l, err := uc.GetLearner(ctx, name)
	if err != nil {
		return nil, err
	}

	l.LinkTelegram(chatID)
	if err := uc.learnerRepo.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to update learner: %w", err)
	}

	return l, nil
}

// SetRemindersEnabled turns reminders on or off for a learner
func (uc *LearnerUseCase) SetRemindersEnabled(ctx context.Context, name string, enabled bool) (*learner.Learner, error) {
	l, err := uc.GetLearner(ctx, name)
	if err != nil {
		return nil, err
	}

	l.SetRemindersEnabled(enabled)
	if err := uc.learnerRepo.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to update learner: %w", err)
	}

	return l, nil
}
