package learning

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestNewItemIDUnique(t *testing.T) {
	a, b := NewItemID(), NewItemID()
	if a == "" || a == b {
		t.Errorf("NewItemID() = %q, %q; want distinct non-empty IDs", a, b)
	}
}

func TestItemJSONRoundTrip(t *testing.T) {
	reviewed := graduatedItem(t)
	reviewed.LearnerID = "learner-1"
	reviewed = mustRecord(t, reviewed, GradeIncorrect, 1234567*time.Microsecond, t0.Add(9*Day+123456789))

	for name, item := range map[string]Item{"new": newTestItem(), "reviewed": reviewed} {
		data, err := json.Marshal(item)
		if err != nil {
			t.Fatalf("%s: Marshal: %v", name, err)
		}
		var got Item
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("%s: Unmarshal: %v", name, err)
		}
		if !reflect.DeepEqual(got, item) {
			t.Errorf("%s: round trip mismatch\n got: %+v\nwant: %+v", name, got, item)
		}
	}
}

func TestItemJSONNeverReviewed(t *testing.T) {
	data, err := json.Marshal(newTestItem())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"last_reviewed_at":null`) {
		t.Errorf("new item JSON should carry a null last_reviewed_at: %s", data)
	}
}

func TestItemJSONNormalizesToUTC(t *testing.T) {
	raw := mustItemJSON(t, newTestItem(), func(m map[string]any) {
		m["created_at"] = "2025-06-15T12:00:00+02:00"
	})
	var got Item
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got.CreatedAt.Location() != time.UTC || !got.CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, t0)
	}
}

func TestItemJSONRejectsCorruptState(t *testing.T) {
	tests := []struct {
		name  string
		field string
		edit  func(map[string]any)
	}{
		{"ease too high", "easiness_factor", func(m map[string]any) {
			m["algorithm_state"].(map[string]any)["easiness_factor"] = 3.0
		}},
		{"ease too low", "easiness_factor", func(m map[string]any) {
			m["algorithm_state"].(map[string]any)["easiness_factor"] = 1.0
		}},
		{"interval too long", "interval_days", func(m map[string]any) {
			m["algorithm_state"].(map[string]any)["interval_days"] = 400
		}},
		{"accuracy", "average_accuracy", func(m map[string]any) {
			m["performance_stats"].(map[string]any)["average_accuracy"] = 101
		}},
		{"missing id", "id", func(m map[string]any) {
			m["id"] = ""
		}},
	}
	for _, tt := range tests {
		raw := mustItemJSON(t, newTestItem(), tt.edit)
		var got Item
		err := json.Unmarshal(raw, &got)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("%s: err = %v, want ErrValidation", tt.name, err)
			continue
		}
		var verr *ValidationError
		if errors.As(err, &verr) && verr.Field != tt.field {
			t.Errorf("%s: Field = %q, want %q", tt.name, verr.Field, tt.field)
		}
	}
}

func TestItemJSONMalformed(t *testing.T) {
	var got Item
	err := json.Unmarshal([]byte(`{"id": 7}`), &got)
	if err == nil {
		t.Fatal("expected an error for a malformed item")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("decode errors should not be reported as validation errors")
	}
}

func TestValidate(t *testing.T) {
	reviewed := graduatedItem(t)
	tests := []struct {
		name  string
		field string
		edit  func(*Item)
	}{
		{"negative interval", "interval_days", func(it *Item) { it.Algorithm.IntervalDays = -1 }},
		{"interval over cap", "interval_days", func(it *Item) { it.Algorithm.IntervalDays = 366 }},
		{"negative repetitions", "repetition_count", func(it *Item) { it.Algorithm.RepetitionCount = -1 }},
		{"ease below floor", "easiness_factor", func(it *Item) { it.Algorithm.EasinessFactor = 1.29 }},
		{"ease above ceiling", "easiness_factor", func(it *Item) { it.Algorithm.EasinessFactor = 2.51 }},
		{"missing fact", "fact_id", func(it *Item) { it.FactID = "" }},
		{"zero next review", "next_review_at", func(it *Item) { it.Schedule.NextReviewAt = time.Time{} }},
		{"reviewed without timestamp", "last_reviewed_at", func(it *Item) { it.Schedule.LastReviewedAt = nil }},
		{"consecutive above total", "consecutive_correct", func(it *Item) { it.Schedule.ConsecutiveCorrect = 99 }},
		{"negative response time", "average_response_time_ms", func(it *Item) { it.Performance.AverageResponseTimeMs = -1 }},
		{"difficulty zero", "difficulty_rating", func(it *Item) { it.Performance.DifficultyRating = 0 }},
		{"difficulty six", "difficulty_rating", func(it *Item) { it.Performance.DifficultyRating = 6 }},
		{"last grade", "last_grade", func(it *Item) { it.Performance.LastGrade = 9 }},
		{"negative lapses", "lapse_count", func(it *Item) { it.Lapses.LapseCount = -1 }},
		{"graduated too early", "graduated", func(it *Item) { it.Algorithm.RepetitionCount = 1 }},
	}
	if err := Validate(reviewed); err != nil {
		t.Fatalf("Validate(reviewed) = %v", err)
	}
	for _, tt := range tests {
		item := reviewed
		tt.edit(&item)
		err := Validate(item)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: err = %v, want *ValidationError", tt.name, err)
			continue
		}
		if verr.Field != tt.field {
			t.Errorf("%s: Field = %q, want %q", tt.name, verr.Field, tt.field)
		}
	}
}

func TestValidateBoundaries(t *testing.T) {
	item := graduatedItem(t)
	item.Algorithm.EasinessFactor = MinEasinessFactor
	item.Algorithm.IntervalDays = 0
	if err := Validate(item); err != nil {
		t.Errorf("lower bounds: %v", err)
	}
	item.Algorithm.EasinessFactor = MaxEasinessFactor
	item.Algorithm.IntervalDays = MaxIntervalDays
	if err := Validate(item); err != nil {
		t.Errorf("upper bounds: %v", err)
	}
}

func TestRestore(t *testing.T) {
	item := graduatedItem(t)
	item.CreatedAt = item.CreatedAt.In(time.FixedZone("EST", -5*60*60))

	got, err := Restore(item)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt location = %v, want UTC", got.CreatedAt.Location())
	}

	item.Algorithm.EasinessFactor = 9
	if _, err := Restore(item); !errors.Is(err, ErrValidation) {
		t.Errorf("Restore(corrupt) err = %v, want ErrValidation", err)
	}
}

func mustItemJSON(t *testing.T, item Item, edit func(map[string]any)) []byte {
	t.Helper()
	data, err := json.Marshal(item)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	edit(m)
	out, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	return out
}
