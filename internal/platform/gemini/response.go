package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/generation"
)

// ResponseSchema is the JSON shape the prompt asks the model to reply with.
type ResponseSchema struct {
	Items []ItemSchema `json:"items"`
}

// ItemSchema is a single generated entry.
type ItemSchema struct {
	Text        string `json:"text"`
	Translation string `json:"translation"`
}

// parseResponse decodes the model reply into items of the given category.
// Models sometimes wrap JSON in a markdown fence, which is stripped first.
// Entries with the same text are kept once.
func parseResponse(raw string, category domain.Category) ([]*domain.VocabularyItem, error) {
	raw = stripFence(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response", generation.ErrInvalidResponse)
	}

	var parsed ResponseSchema
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}

	if len(parsed.Items) == 0 {
		return nil, fmt.Errorf("%w: no items in response", generation.ErrInvalidResponse)
	}

	seen := make(map[string]bool, len(parsed.Items))
	items := make([]*domain.VocabularyItem, 0, len(parsed.Items))
	for i, entry := range parsed.Items {
		item, err := domain.NewVocabularyItem(entry.Text, entry.Translation, category)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", generation.ErrInvalidResponse, i, err)
		}

		key := strings.ToLower(item.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, item)
	}

	return items, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
