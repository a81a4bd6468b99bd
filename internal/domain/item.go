package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category groups vocabulary items for quests and dashboards.
type Category string

// Possible category values
const (
	CategoryVerb    Category = "verb"
	CategoryEmotion Category = "emotion"
	CategoryFood    Category = "food"
	CategoryTheme   Category = "theme"
	CategoryGeneral Category = "general"
)

// Item-specific validation errors
var (
	// ErrItemIDEmpty is returned when an item ID is empty or nil.
	ErrItemIDEmpty = errors.New("item ID cannot be empty")

	// ErrItemTextEmpty is returned when an item has no source text.
	ErrItemTextEmpty = errors.New("item text cannot be empty")

	// ErrItemTranslationEmpty is returned when an item has no translation.
	ErrItemTranslationEmpty = errors.New("item translation cannot be empty")

	// ErrInvalidCategory is returned when a category is not one of the known values.
	ErrInvalidCategory = errors.New("invalid item category")

	// ErrInvalidOxfordIndex is returned when an Oxford index is outside the word list.
	ErrInvalidOxfordIndex = errors.New("oxford index out of range")
)

// Categories returns every known category.
func Categories() []Category {
	return []Category{CategoryVerb, CategoryEmotion, CategoryFood, CategoryTheme, CategoryGeneral}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryVerb, CategoryEmotion, CategoryFood, CategoryTheme, CategoryGeneral:
		return true
	default:
		return false
	}
}

// VocabularyItem is a single word or phrase a learner studies. The scheduler
// never looks at its content; it is indexed by ID only.
//
// OxfordIndex is set for items from the Oxford 3000 catalogue and places
// the item inside a lesson. Generated or custom items leave it nil.
type VocabularyItem struct {
	ID          uuid.UUID `json:"id"`
	Text        string    `json:"text"`
	Translation string    `json:"translation"`
	Category    Category  `json:"category"`
	OxfordIndex *int      `json:"oxford_index,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewVocabularyItem creates a new VocabularyItem with a fresh ID and timestamps.
// Returns an error if validation fails.
func NewVocabularyItem(text, translation string, category Category) (*VocabularyItem, error) {
	now := time.Now().UTC()
	item := &VocabularyItem{
		ID:          uuid.New(),
		Text:        strings.TrimSpace(text),
		Translation: strings.TrimSpace(translation),
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// NewCatalogueItem creates an item that belongs to the Oxford 3000 list at
// the given zero-based index.
func NewCatalogueItem(index int, text, translation string, category Category) (*VocabularyItem, error) {
	item, err := NewVocabularyItem(text, translation, category)
	if err != nil {
		return nil, err
	}

	if index < 0 || index > MaxOxfordIndex {
		return nil, ErrInvalidOxfordIndex
	}
	item.OxfordIndex = &index

	return item, nil
}

// Validate checks if the VocabularyItem has valid data.
func (i *VocabularyItem) Validate() error {
	if i.ID == uuid.Nil {
		return ErrItemIDEmpty
	}

	if i.Text == "" {
		return ErrItemTextEmpty
	}

	if i.Translation == "" {
		return ErrItemTranslationEmpty
	}

	if !i.Category.Valid() {
		return ErrInvalidCategory
	}

	if i.OxfordIndex != nil && (*i.OxfordIndex < 0 || *i.OxfordIndex > MaxOxfordIndex) {
		return ErrInvalidOxfordIndex
	}

	return nil
}

// Lesson returns the lesson number the item belongs to, if any.
func (i *VocabularyItem) Lesson() (int, bool) {
	if i.OxfordIndex == nil {
		return 0, false
	}
	return LessonForIndex(*i.OxfordIndex), true
}
