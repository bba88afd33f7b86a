package learning

import (
	"math/rand"
	"testing"
	"time"
)

func checkInvariants(t *testing.T, step int, item Item) {
	t.Helper()
	a := item.Algorithm
	if a.EasinessFactor < MinEasinessFactor || a.EasinessFactor > MaxEasinessFactor {
		t.Fatalf("step %d: EasinessFactor = %v out of bounds", step, a.EasinessFactor)
	}
	if a.IntervalDays < 0 || a.IntervalDays > MaxIntervalDays {
		t.Fatalf("step %d: IntervalDays = %d out of bounds", step, a.IntervalDays)
	}
	if a.RepetitionCount < 0 {
		t.Fatalf("step %d: RepetitionCount = %d", step, a.RepetitionCount)
	}
	if err := Validate(item); err != nil {
		t.Fatalf("step %d: Validate: %v", step, err)
	}
}

// TestRandomReviewSequences drives items through seeded random grade
// sequences and checks the invariants after every answer.
func TestRandomReviewSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for seq := 0; seq < 200; seq++ {
		item := newTestItem()
		now := t0
		lapses := 0
		for step := 0; step < 60; step++ {
			g := Grade(rng.Intn(6))
			now = now.Add(time.Duration(rng.Intn(400)) * time.Hour)
			prev := item
			item = mustRecord(t, item, g, time.Duration(rng.Intn(20000))*time.Millisecond, now)
			checkInvariants(t, step, item)

			if item.Schedule.TotalReviews != prev.Schedule.TotalReviews+1 {
				t.Fatalf("TotalReviews did not advance by one")
			}
			if !g.Passed() {
				lapses++
			}
			if item.Lapses.LapseCount != lapses {
				t.Fatalf("LapseCount = %d, want %d", item.Lapses.LapseCount, lapses)
			}
			if item.Lapses.Graduated != (item.Algorithm.RepetitionCount >= 2) {
				t.Fatalf("Graduated = %v with %d repetitions", item.Lapses.Graduated, item.Algorithm.RepetitionCount)
			}
		}
	}
}

func FuzzRecordAnswer(f *testing.F) {
	f.Add([]byte{4, 4, 4}, 1.35)
	f.Add([]byte{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}, 2.5)
	f.Add([]byte{0, 3, 1, 5, 2, 4}, 1.3)
	f.Fuzz(func(t *testing.T, grades []byte, ease float64) {
		if !(ease >= MinEasinessFactor && ease <= MaxEasinessFactor) {
			t.Skip()
		}
		item := newTestItem()
		item.Algorithm.EasinessFactor = ease
		now := t0
		for i, b := range grades {
			now = now.Add(Day)
			item = mustRecord(t, item, Grade(b%6), time.Duration(b)*time.Millisecond, now)
			checkInvariants(t, i, item)
		}
	})
}
