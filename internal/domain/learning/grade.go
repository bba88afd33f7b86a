package learning

import (
	"fmt"
	"strconv"
	"strings"
)

// Grade is the 0-5 recall quality of a single review.
type Grade int

const (
	GradeBlackout      Grade = iota // Complete failure to recall.
	GradeIncorrect                  // Wrong; the answer felt familiar once shown.
	GradeIncorrectEasy              // Wrong; the answer seemed easy once shown.
	GradeHard                       // Correct with serious difficulty.
	GradeGood                       // Correct after a hesitation.
	GradePerfect                    // Perfect, instant recall.
)

// PassingGrade is the lowest grade that counts as a successful review.
const PassingGrade = GradeHard

var gradeNames = [...]string{
	GradeBlackout:      "blackout",
	GradeIncorrect:     "incorrect",
	GradeIncorrectEasy: "incorrect-easy",
	GradeHard:          "hard",
	GradeGood:          "good",
	GradePerfect:       "perfect",
}

// IsValid reports whether g is within 0..5.
func (g Grade) IsValid() bool {
	return g >= GradeBlackout && g <= GradePerfect
}

// Passed reports whether g is a successful review (grade >= 3).
func (g Grade) Passed() bool {
	return g >= PassingGrade
}

func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// Rating is the four-button answer scale used by most practice screens.
type Rating int

const (
	Again Rating = iota + 1 // Complete blackout
	Hard                    // Recalled with significant difficulty
	Good                    // Recalled after a hesitation
	Easy                    // Perfect response
)

var ratingByName = map[string]Rating{
	"again": Again,
	"hard":  Hard,
	"good":  Good,
	"easy":  Easy,
}

// IsValid reports whether r is one of Again, Hard, Good or Easy.
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

// Grade maps the rating onto the 0-5 scale.
// Again is a lapse; Hard, Good and Easy are passing grades 3, 4 and 5.
func (r Rating) Grade() Grade {
	switch r {
	case Again:
		return GradeIncorrect
	case Hard:
		return GradeHard
	case Good:
		return GradeGood
	case Easy:
		return GradePerfect
	default:
		return Grade(-1)
	}
}

// ParseGrade accepts either a number 0-5 or a rating name
// ("again", "hard", "good", "easy").
func ParseGrade(s string) (Grade, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if r, ok := ratingByName[s]; ok {
		return r.Grade(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: "grade", Value: s, Reason: "expected 0-5 or again/hard/good/easy"}
	}
	g := Grade(n)
	if !g.IsValid() {
		return 0, &ValidationError{Field: "grade", Value: n, Reason: "must be between 0 and 5"}
	}
	return g, nil
}
