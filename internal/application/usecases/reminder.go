package usecases

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"flashcard-scheduler/internal/domain/learner"
	"flashcard-scheduler/internal/domain/learning"
)

// Notifier delivers a reminder to a chat
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// ReminderConfig holds configuration for the reminder system
type ReminderConfig struct {
	// How often to check for reminders
	CheckInterval time.Duration
	// Minimum time between reminders for the same learner
	MinReminderInterval time.Duration
	// No reminders from QuietHoursStart until QuietHoursEnd (24-hour clock,
	// may wrap midnight). Equal values disable quiet hours.
	QuietHoursStart int
	QuietHoursEnd   int
	// Maximum reminders per day per learner
	MaxRemindersPerDay int
}

// DefaultReminderConfig returns sensible defaults for reminders
func DefaultReminderConfig() *ReminderConfig {
	return &ReminderConfig{
		CheckInterval:       30 * time.Minute,
		MinReminderInterval: 4 * time.Hour,
		QuietHoursStart:     22,
		QuietHoursEnd:       8,
		MaxRemindersPerDay:  3,
	}
}

// ReminderUseCase sends review reminders to learners with due items
type ReminderUseCase struct {
	notifier     Notifier
	learnerRepo  learner.Repository
	learningRepo learning.Repository
	config       *ReminderConfig
	now          func() time.Time

	mu            sync.Mutex
	reminderState map[learner.ID]*LearnerReminderState
}

// LearnerReminderState tracks reminder state for each learner
type LearnerReminderState struct {
	LastReminderSent time.Time
	RemindersToday   int
	LastCheckDate    time.Time
}

// NewReminderUseCase creates a new reminder use case
func NewReminderUseCase(
	notifier Notifier,
	learnerRepo learner.Repository,
	learningRepo learning.Repository,
	config *ReminderConfig,
) *ReminderUseCase {
	if config == nil {
		config = DefaultReminderConfig()
	}

	return &ReminderUseCase{
		notifier:      notifier,
		learnerRepo:   learnerRepo,
		learningRepo:  learningRepo,
		config:        config,
		now:           time.Now,
		reminderState: make(map[learner.ID]*LearnerReminderState),
	}
}

// SetClock replaces the clock used for quiet hours and limits
func (uc *ReminderUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// StartReminderService checks for reminders every CheckInterval until ctx is done
func (uc *ReminderUseCase) StartReminderService(ctx context.Context) {
	log.Printf("Starting reminder service (check interval: %v)", uc.config.CheckInterval)

	ticker := time.NewTicker(uc.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reminder service stopping...")
			return
		case <-ticker.C:
			uc.CheckAndSendReminders(ctx)
		}
	}
}

// CheckAndSendReminders runs one reminder pass and returns the number of
// reminders sent
func (uc *ReminderUseCase) CheckAndSendReminders(ctx context.Context) int {
	learnerIDs, err := uc.learningRepo.GetLearnersWithItems(ctx)
	if err != nil {
		log.Printf("Failed to get learners with items: %v", err)
		return 0
	}

	remindersSent := 0
	for _, id := range learnerIDs {
		l, err := uc.learnerRepo.FindByID(ctx, learner.ID(id))
		if err != nil {
			log.Printf("Failed to get learner %s: %v", id, err)
			continue
		}
		if l == nil {
			continue
		}

		stats, ok := uc.shouldSendReminder(ctx, l)
		if !ok {
			continue
		}
		if uc.sendReminder(ctx, l, stats) {
			remindersSent++
		}
	}

	if remindersSent > 0 {
		log.Printf("Sent %d reminders", remindersSent)
	}
	return remindersSent
}

// shouldSendReminder applies the reminder rules and returns the learner's
// stats when a reminder is due
func (uc *ReminderUseCase) shouldSendReminder(ctx context.Context, l *learner.Learner) (*learning.LearnerStats, bool) {
	now := uc.now()

	if !l.CanBeReminded() || uc.isQuietTime(now) {
		return nil, false
	}

	state := uc.stateFor(l.ID(), now)
	if state.RemindersToday >= uc.config.MaxRemindersPerDay {
		return nil, false
	}
	if now.Sub(state.LastReminderSent) < uc.config.MinReminderInterval {
		return nil, false
	}

	// Learners who practiced within the last hour are left alone.
	if now.Sub(l.LastActive()) < time.Hour {
		return nil, false
	}

	stats, err := uc.learningRepo.GetLearnerStats(ctx, string(l.ID()), now)
	if err != nil {
		log.Printf("Failed to get stats for learner %s: %v", l.ID(), err)
		return nil, false
	}
	if stats.DueItems == 0 {
		return nil, false
	}

	return stats, true
}

func (uc *ReminderUseCase) stateFor(id learner.ID, now time.Time) LearnerReminderState {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	state, exists := uc.reminderState[id]
	if !exists {
		state = &LearnerReminderState{LastCheckDate: now}
		uc.reminderState[id] = state
	}
	if !isSameDay(state.LastCheckDate, now) {
		state.RemindersToday = 0
		state.LastCheckDate = now
	}
	return *state
}

// sendReminder sends a reminder to a learner and records it
func (uc *ReminderUseCase) sendReminder(ctx context.Context, l *learner.Learner, stats *learning.LearnerStats) bool {
	text := uc.createReminderMessage(l, stats)

	if err := uc.notifier.Notify(ctx, l.TelegramChatID(), text); err != nil {
		log.Printf("Failed to send reminder to learner %s (chat %d): %v", l.ID(), l.TelegramChatID(), err)
		return false
	}

	uc.mu.Lock()
	state := uc.reminderState[l.ID()]
	state.LastReminderSent = uc.now()
	state.RemindersToday++
	uc.mu.Unlock()

	log.Printf("Sent reminder to learner %s (%s) - %d due items", l.ID(), l.Name(), stats.DueItems)
	return true
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// createReminderMessage creates a personalized reminder message
func (uc *ReminderUseCase) createReminderMessage(l *learner.Learner, stats *learning.LearnerStats) string {
	name := markdownEscaper.Replace(l.Name())

	var greeting string
	switch hour := uc.now().Hour(); {
	case hour < 12:
		greeting = "Good morning"
	case hour < 17:
		greeting = "Good afternoon"
	default:
		greeting = "Good evening"
	}

	var message string
	switch {
	case stats.DueItems == 1:
		message = fmt.Sprintf("%s, %s!\n\nYou have *1 card* ready for review.", greeting, name)
	case stats.DueItems <= 10:
		message = fmt.Sprintf("%s, %s!\n\nYou have *%d cards* waiting for review.", greeting, name, stats.DueItems)
	default:
		message = fmt.Sprintf("%s, %s!\n\nYou have *%d cards* due. Start with a few, every review counts.",
			greeting, name, stats.DueItems)
	}

	if stats.GraduatedItems > 0 {
		message += fmt.Sprintf("\n\nYou have graduated *%d cards* so far.", stats.GraduatedItems)
	}

	return message
}

// isQuietTime checks if t is within quiet hours
func (uc *ReminderUseCase) isQuietTime(t time.Time) bool {
	hour := t.Hour()
	start := uc.config.QuietHoursStart
	end := uc.config.QuietHoursEnd

	switch {
	case start == end:
		return false
	case start < end:
		return hour >= start && hour < end
	default:
		// Wraps midnight, e.g. 22:00 to 08:00.
		return hour >= start || hour < end
	}
}

// isSameDay checks if two times are on the same day
func isSameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// RemindersSentToday returns the number of reminders sent today across learners
func (uc *ReminderUseCase) RemindersSentToday() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	now := uc.now()
	total := 0
	for _, state := range uc.reminderState {
		if isSameDay(state.LastCheckDate, now) {
			total += state.RemindersToday
		}
	}
	return total
}
