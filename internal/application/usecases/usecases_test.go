package usecases

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"flashcard-scheduler/internal/domain/fact"
	"flashcard-scheduler/internal/domain/learner"
	"flashcard-scheduler/internal/domain/learning"
	"flashcard-scheduler/internal/infrastructure/persistence"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	db       *sql.DB
	clock    *clock
	learning learning.Repository
	facts    fact.Repository
	learners learner.Repository
	practice *PracticeUseCase
	learner  *LearnerUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := persistence.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:       db,
		clock:    &clock{now: t0},
		learning: persistence.NewLearningRepository(db),
		facts:    persistence.NewFactRepository(db),
		learners: persistence.NewLearnerRepository(db),
	}
	f.practice = NewPracticeUseCase(f.learning, f.facts, f.learners)
	f.practice.SetClock(f.clock.Now)
	f.learner = NewLearnerUseCase(f.learners)
	f.learner.SetClock(f.clock.Now)
	return f
}

func (f *fixture) addFacts(t *testing.T, pairs ...string) []*fact.Fact {
	t.Helper()
	var facts []*fact.Fact
	for i := 0; i+1 < len(pairs); i += 2 {
		ft, err := fact.NewFact("", "test", pairs[i], pairs[i+1])
		if err != nil {
			t.Fatalf("NewFact: %v", err)
		}
		facts = append(facts, ft)
	}
	if err := f.facts.SaveBatch(context.Background(), facts); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}
	return facts
}

func (f *fixture) addLearner(t *testing.T, name string) *learner.Learner {
	t.Helper()
	l, err := f.learner.GetOrCreateLearner(context.Background(), name)
	if err != nil {
		t.Fatalf("GetOrCreateLearner: %v", err)
	}
	return l
}

func TestEnroll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	facts := f.addFacts(t, "hond", "dog")
	ann := f.addLearner(t, "ann")

	item, err := f.practice.Enroll(ctx, ann.ID(), facts[0].ID())
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if item.LearnerID != string(ann.ID()) || item.FactID != string(facts[0].ID()) {
		t.Errorf("Enroll = %+v", item)
	}
	if !item.Schedule.NextReviewAt.Equal(t0.Add(24 * time.Hour)) {
		t.Errorf("NextReviewAt = %v, want t0+24h", item.Schedule.NextReviewAt)
	}

	again, err := f.practice.Enroll(ctx, ann.ID(), facts[0].ID())
	if err != nil {
		t.Fatalf("Enroll again: %v", err)
	}
	if again.ID != item.ID {
		t.Errorf("second Enroll created a new item %s, want %s", again.ID, item.ID)
	}

	if _, err := f.practice.Enroll(ctx, ann.ID(), "missing"); !errors.Is(err, ErrFactNotFound) {
		t.Errorf("Enroll(missing fact) = %v, want ErrFactNotFound", err)
	}
	if _, err := f.practice.Enroll(ctx, "nobody", facts[0].ID()); !errors.Is(err, ErrLearnerNotFound) {
		t.Errorf("Enroll(missing learner) = %v, want ErrLearnerNotFound", err)
	}
}

func TestEnrollNew(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addFacts(t, "a", "1", "b", "2", "c", "3")
	ann := f.addLearner(t, "ann")

	n, err := f.practice.EnrollNew(ctx, ann.ID(), 2)
	if err != nil || n != 2 {
		t.Fatalf("EnrollNew(2) = %d, %v; want 2", n, err)
	}
	n, err = f.practice.EnrollNew(ctx, ann.ID(), 0)
	if err != nil || n != 1 {
		t.Fatalf("EnrollNew(all) = %d, %v; want 1", n, err)
	}
	n, err = f.practice.EnrollNew(ctx, ann.ID(), 0)
	if err != nil || n != 0 {
		t.Fatalf("EnrollNew(nothing left) = %d, %v; want 0", n, err)
	}
}

func TestReviewFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	facts := f.addFacts(t, "hond", "dog", "kat", "cat")
	ann := f.addLearner(t, "ann")
	if _, err := f.practice.EnrollNew(ctx, ann.ID(), 0); err != nil {
		t.Fatalf("EnrollNew: %v", err)
	}

	card, err := f.practice.NextCard(ctx, ann.ID())
	if err != nil || card != nil {
		t.Fatalf("NextCard before due = %v, %v; want nil", card, err)
	}

	f.clock.Advance(24 * time.Hour)
	queue, err := f.practice.ReviewQueue(ctx, ann.ID(), 0)
	if err != nil || len(queue) != 2 {
		t.Fatalf("ReviewQueue = %d cards, %v; want 2", len(queue), err)
	}

	card, err = f.practice.NextCard(ctx, ann.ID())
	if err != nil || card == nil {
		t.Fatalf("NextCard = %v, %v", card, err)
	}
	if card.Fact.ID() != facts[0].ID() {
		t.Errorf("NextCard fact = %s, want %s", card.Fact.ID(), facts[0].ID())
	}
	if !f.practice.CheckAnswer(card, "  DOG ") {
		t.Error("CheckAnswer should accept a differently cased answer")
	}

	result, err := f.practice.SubmitAnswer(ctx, card.Item.ID, learning.GradeGood, 2*time.Second)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if result.Phase != learning.PhaseLearning || result.DaysUntilReview != 1 {
		t.Errorf("result = %v, %d days; want learning, 1", result.Phase, result.DaysUntilReview)
	}

	result, err = f.practice.SubmitRating(ctx, card.Item.ID, learning.Easy, time.Second)
	if err != nil {
		t.Fatalf("SubmitRating: %v", err)
	}
	if result.Phase != learning.PhaseGraduated || result.Item.Algorithm.IntervalDays != 6 {
		t.Errorf("result = %v, interval %d; want graduated, 6", result.Phase, result.Item.Algorithm.IntervalDays)
	}

	history, err := f.practice.History(ctx, card.Item.ID)
	if err != nil || len(history) != 2 {
		t.Fatalf("History = %d, %v; want 2", len(history), err)
	}
	if history[0].Grade() != learning.GradePerfect {
		t.Errorf("newest history grade = %v, want perfect", history[0].Grade())
	}

	stats, err := f.practice.Stats(ctx, ann.ID())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalReviews != 2 || stats.GraduatedItems != 1 || stats.DueItems != 1 {
		t.Errorf("Stats = %+v", *stats)
	}

	reloaded, err := f.learners.FindByID(ctx, ann.ID())
	if err != nil || !reloaded.LastActive().Equal(f.clock.now) {
		t.Errorf("LastActive = %v, want %v", reloaded.LastActive(), f.clock.now)
	}
}

func TestSubmitAnswerErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	facts := f.addFacts(t, "hond", "dog")
	ann := f.addLearner(t, "ann")
	item, err := f.practice.Enroll(ctx, ann.ID(), facts[0].ID())
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	if _, err := f.practice.SubmitAnswer(ctx, item.ID, learning.Grade(6), 0); !errors.Is(err, learning.ErrValidation) {
		t.Errorf("SubmitAnswer(grade 6) = %v, want ErrValidation", err)
	}
	if _, err := f.practice.SubmitRating(ctx, item.ID, learning.Rating(0), 0); !errors.Is(err, learning.ErrValidation) {
		t.Errorf("SubmitRating(0) = %v, want ErrValidation", err)
	}
	if _, err := f.practice.SubmitAnswer(ctx, "missing", learning.GradeGood, 0); !errors.Is(err, learning.ErrItemNotFound) {
		t.Errorf("SubmitAnswer(missing) = %v, want ErrItemNotFound", err)
	}

	stored, err := f.learning.FindItem(ctx, item.ID)
	if err != nil || stored.Schedule.TotalReviews != 0 {
		t.Errorf("rejected answers must not change the item: %+v, %v", stored, err)
	}
}

func TestSubmitAnswerConcurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	facts := f.addFacts(t, "hond", "dog")
	ann := f.addLearner(t, "ann")
	item, err := f.practice.Enroll(ctx, ann.ID(), facts[0].ID())
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	f.clock.Advance(24 * time.Hour)

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.practice.SubmitAnswer(ctx, item.ID, learning.GradeGood, time.Second)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, learning.ErrConcurrentUpdate):
				conflicts++
			default:
				t.Errorf("SubmitAnswer: %v", err)
			}
		}()
	}
	wg.Wait()

	// Every writer read before or after some commit; all successes must be
	// reflected exactly once.
	stored, err := f.learning.FindItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("FindItem: %v", err)
	}
	if succeeded == 0 || succeeded+conflicts != writers {
		t.Errorf("succeeded=%d conflicts=%d", succeeded, conflicts)
	}
	history, _ := f.practice.History(ctx, item.ID)
	if stored.Schedule.TotalReviews != len(history) {
		t.Errorf("TotalReviews = %d, history entries = %d", stored.Schedule.TotalReviews, len(history))
	}
}

func TestSuggestGrade(t *testing.T) {
	slow := 10 * time.Second
	tests := []struct {
		correct bool
		rt      time.Duration
		want    learning.Grade
	}{
		{false, time.Second, learning.GradeIncorrect},
		{true, 5 * time.Second, learning.GradePerfect},
		{true, 8 * time.Second, learning.GradeGood},
		{true, 20 * time.Second, learning.GradeHard},
	}
	for _, tt := range tests {
		if got := SuggestGrade(tt.correct, tt.rt, slow); got != tt.want {
			t.Errorf("SuggestGrade(%v, %v) = %v, want %v", tt.correct, tt.rt, got, tt.want)
		}
	}
}

func TestLearnerUseCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, err := f.learner.GetOrCreateLearner(ctx, "  "); err == nil {
		t.Error("expected error for empty name")
	}

	ann := f.addLearner(t, " ann ")
	if ann.Name() != "ann" {
		t.Errorf("Name = %q, want trimmed", ann.Name())
	}

	f.clock.Advance(time.Hour)
	same := f.addLearner(t, "ann")
	if same.ID() != ann.ID() || !same.LastActive().Equal(f.clock.now) {
		t.Errorf("GetOrCreateLearner returned %s active %v", same.ID(), same.LastActive())
	}

	l, err := f.learner.SetTelegramChat(ctx, "ann", 99)
	if err != nil || !l.CanBeReminded() {
		t.Fatalf("SetTelegramChat = %v, %v", l, err)
	}
	l, err = f.learner.SetRemindersEnabled(ctx, "ann", false)
	if err != nil || l.CanBeReminded() {
		t.Fatalf("SetRemindersEnabled = %v, %v", l, err)
	}

	stored, _ := f.learners.FindByName(ctx, "ann")
	if stored.TelegramChatID() != 99 || stored.RemindersEnabled() {
		t.Errorf("stored learner = %+v", stored)
	}

	if _, err := f.learner.SetTelegramChat(ctx, "bob", 1); !errors.Is(err, ErrLearnerNotFound) {
		t.Errorf("SetTelegramChat(unknown) = %v, want ErrLearnerNotFound", err)
	}
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, chatID int64, text string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, text)
	return nil
}

func TestReminders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	facts := f.addFacts(t, "hond", "dog")
	ann := f.addLearner(t, "ann_b")
	if _, err := f.learner.SetTelegramChat(ctx, "ann_b", 7); err != nil {
		t.Fatalf("SetTelegramChat: %v", err)
	}
	if _, err := f.practice.Enroll(ctx, ann.ID(), facts[0].ID()); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	bob := f.addLearner(t, "bob") // no chat linked
	if _, err := f.practice.Enroll(ctx, bob.ID(), facts[0].ID()); err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	notifier := &fakeNotifier{}
	config := &ReminderConfig{
		CheckInterval:       time.Minute,
		MinReminderInterval: 4 * time.Hour,
		QuietHoursStart:     22,
		QuietHoursEnd:       8,
		MaxRemindersPerDay:  2,
	}
	reminders := NewReminderUseCase(notifier, f.learners, f.learning, config)
	reminders.SetClock(f.clock.Now)

	if n := reminders.CheckAndSendReminders(ctx); n != 0 {
		t.Fatalf("sent %d reminders before anything is due", n)
	}

	f.clock.Advance(24 * time.Hour) // 10:00, item due
	if n := reminders.CheckAndSendReminders(ctx); n != 1 {
		t.Fatalf("sent %d reminders, want 1", n)
	}
	if !strings.Contains(notifier.sent[0], `ann\_b`) || !strings.Contains(notifier.sent[0], "1 card") {
		t.Errorf("message = %q", notifier.sent[0])
	}

	f.clock.Advance(time.Hour) // within min interval
	if n := reminders.CheckAndSendReminders(ctx); n != 0 {
		t.Errorf("sent %d reminders within the minimum interval", n)
	}

	f.clock.Advance(4 * time.Hour) // 15:00
	if n := reminders.CheckAndSendReminders(ctx); n != 1 {
		t.Errorf("sent %d reminders after the interval, want 1", n)
	}

	f.clock.Advance(5 * time.Hour) // 20:00, daily cap reached
	if n := reminders.CheckAndSendReminders(ctx); n != 0 {
		t.Errorf("sent %d reminders past the daily cap", n)
	}
	if got := reminders.RemindersSentToday(); got != 2 {
		t.Errorf("RemindersSentToday = %d, want 2", got)
	}

	f.clock.Advance(3 * time.Hour) // 23:00, quiet
	if n := reminders.CheckAndSendReminders(ctx); n != 0 {
		t.Errorf("sent %d reminders during quiet hours", n)
	}

	f.clock.Advance(10 * time.Hour) // 09:00 next day, counter reset
	if n := reminders.CheckAndSendReminders(ctx); n != 1 {
		t.Errorf("sent %d reminders on a new day, want 1", n)
	}
}

func TestRemindersSkipRecentlyActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	facts := f.addFacts(t, "hond", "dog")
	ann := f.addLearner(t, "ann")
	f.learner.SetTelegramChat(ctx, "ann", 7)
	if _, err := f.practice.Enroll(ctx, ann.ID(), facts[0].ID()); err != nil {
		t.Fatalf("Enroll: %v", err)
	}

	notifier := &fakeNotifier{err: errors.New("network down")}
	reminders := NewReminderUseCase(notifier, f.learners, f.learning, nil)
	reminders.SetClock(f.clock.Now)

	f.clock.Advance(24 * time.Hour)
	f.addLearner(t, "ann") // touches last active
	if n := reminders.CheckAndSendReminders(ctx); n != 0 {
		t.Errorf("reminded a learner active just now")
	}

	f.clock.Advance(2 * time.Hour)
	if n := reminders.CheckAndSendReminders(ctx); n != 0 {
		t.Errorf("failed deliveries must not count, got %d", n)
	}
}

func TestIsQuietTime(t *testing.T) {
	tests := []struct {
		start, end, hour int
		want             bool
	}{
		{22, 8, 23, true},
		{22, 8, 3, true},
		{22, 8, 8, false},
		{22, 8, 12, false},
		{1, 6, 3, true},
		{1, 6, 7, false},
		{5, 5, 5, false},
	}
	for _, tt := range tests {
		uc := NewReminderUseCase(nil, nil, nil, &ReminderConfig{QuietHoursStart: tt.start, QuietHoursEnd: tt.end})
		at := time.Date(2025, 6, 15, tt.hour, 30, 0, 0, time.UTC)
		if got := uc.isQuietTime(at); got != tt.want {
			t.Errorf("isQuietTime(%d-%d at %d) = %v, want %v", tt.start, tt.end, tt.hour, got, tt.want)
		}
	}
}
