package domain

import (
	"errors"
	"fmt"
)

// The shipped curriculum splits the Oxford 3000 list into fixed-size lessons.
const (
	LessonCount    = 112
	WordsPerLesson = 27
	MaxOxfordIndex = 2997
)

// ErrInvalidLesson is returned for lesson numbers outside 1..LessonCount.
var ErrInvalidLesson = errors.New("invalid lesson number")

// Lesson is a contiguous slice of the Oxford 3000 list. Lesson numbers are
// 1-based; WordStart and WordEnd are inclusive zero-based indexes.
type Lesson struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	WordStart int    `json:"word_start"`
	WordEnd   int    `json:"word_end"`
}

// NewLesson returns the lesson with the given number.
func NewLesson(number int) (Lesson, error) {
	start, end, err := LessonRange(number)
	if err != nil {
		return Lesson{}, err
	}
	return Lesson{
		Number:    number,
		Title:     fmt.Sprintf("Lesson %d", number),
		WordStart: start,
		WordEnd:   end,
	}, nil
}

// Size is the number of words in the lesson.
func (l Lesson) Size() int {
	return l.WordEnd - l.WordStart + 1
}

// Contains reports whether the Oxford index falls inside the lesson.
func (l Lesson) Contains(index int) bool {
	return index >= l.WordStart && index <= l.WordEnd
}

// LessonRange returns the inclusive index range of a lesson. The last
// lesson is truncated at MaxOxfordIndex.
func LessonRange(number int) (start, end int, err error) {
	if number < 1 || number > LessonCount {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidLesson, number)
	}
	start = (number - 1) * WordsPerLesson
	end = min(number*WordsPerLesson-1, MaxOxfordIndex)
	return start, end, nil
}

// LessonForIndex returns the lesson number containing the Oxford index.
// Indexes past the end of the list clamp to the final lesson.
func LessonForIndex(index int) int {
	if index < 0 {
		return 1
	}
	return min(index/WordsPerLesson+1, LessonCount)
}

// Lessons returns the whole curriculum in order.
func Lessons() []Lesson {
	lessons := make([]Lesson, 0, LessonCount)
	for n := 1; n <= LessonCount; n++ {
		l, _ := NewLesson(n)
		lessons = append(lessons, l)
	}
	return lessons
}
