package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Grade is the learner's self-reported recall quality for a single review.
//
// Only the four declared constants are meaningful. Go cannot close an
// integer type, so anything that accepts a Grade from outside the package
// must call Valid before using it.
type Grade int

// Possible grade values
const (
	GradeAgain Grade = 1
	GradeHard  Grade = 2
	GradeGood  Grade = 3
	GradeEasy  Grade = 4
)

var gradeNames = map[Grade]string{
	GradeAgain: "again",
	GradeHard:  "hard",
	GradeGood:  "good",
	GradeEasy:  "easy",
}

// Valid reports whether g is one of Again, Hard, Good or Easy.
func (g Grade) Valid() bool {
	return g >= GradeAgain && g <= GradeEasy
}

// IsSuccess reports whether the grade counts as a successful recall.
// Again and Hard are lapses.
func (g Grade) IsSuccess() bool {
	return g >= GradeGood
}

// String returns the lowercase name of the grade, or "grade(n)" for
// values outside the enumeration.
func (g Grade) String() string {
	if name, ok := gradeNames[g]; ok {
		return name
	}
	return fmt.Sprintf("grade(%d)", int(g))
}

// Grades returns all valid grades in ascending order.
func Grades() []Grade {
	return []Grade{GradeAgain, GradeHard, GradeGood, GradeEasy}
}

// ParseGrade converts user input into a Grade. It accepts the grade names
// (case-insensitive) and the numeric forms "1" through "4".
func ParseGrade(s string) (Grade, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for g, name := range gradeNames {
		if s == name {
			return g, nil
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
	g := Grade(n)
	if !g.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidGrade, n)
	}
	return g, nil
}
