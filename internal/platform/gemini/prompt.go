package gemini

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/generation"
)

// DefaultItemCount is how many items a single generation asks for.
const DefaultItemCount = 12

const defaultPromptTemplate = `You are helping an English learner build vocabulary.
Produce {{.Count}} useful English words or short phrases about the theme "{{.Theme}}".
Every entry belongs to the category "{{.Category}}".
Give each entry a short Spanish translation.

Reply with JSON only, in exactly this shape:
{"items": [{"text": "...", "translation": "..."}]}`

// promptData represents the data passed to the prompt template
type promptData struct {
	Theme    string
	Category domain.Category
	Count    int
}

// loadPromptTemplate parses the template at path, or the built-in template
// when path is empty.
func loadPromptTemplate(path string) (*template.Template, error) {
	content := defaultPromptTemplate
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, path, err)
		}
		content = string(raw)
	}

	tmpl, err := template.New("vocabulary").Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", generation.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

func renderPrompt(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
