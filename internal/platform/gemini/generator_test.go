package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phrazzld/vocabweave-api/internal/config"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type reply struct {
	resp *genai.GenerateContentResponse
	err  error
}

// fakeModels returns the queued replies in order and records prompts.
type fakeModels struct {
	replies []reply
	prompts []string
}

func (f *fakeModels) GenerateContent(
	_ context.Context,
	_ string,
	contents []*genai.Content,
	_ *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.prompts = append(f.prompts, contents[0].Parts[0].Text)
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.resp, r.err
}

func textReply(text string) reply {
	return reply{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}}
}

func testGenerator(t *testing.T, models *fakeModels, cfg config.LLMConfig) *GeminiGenerator {
	t.Helper()

	if cfg.ModelName == "" {
		cfg.ModelName = "gemini-test"
	}
	g, err := newGenerator(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg, models)
	require.NoError(t, err)

	g.sleep = func(context.Context, time.Duration) error { return nil }
	return g
}

func TestGenerateItems_Success(t *testing.T) {
	t.Parallel()

	models := &fakeModels{replies: []reply{
		textReply("```json\n" + `{"items":[{"text":"simmer","translation":"hervir a fuego lento"},` +
			`{"text":"Simmer","translation":"cocer"},{"text":"whisk","translation":"batir"}]}` + "\n```"),
	}}
	g := testGenerator(t, models, config.LLMConfig{MaxRetries: 1, RetryDelaySeconds: 1})

	items, err := g.GenerateItems(context.Background(), " cooking ", domain.CategoryFood)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "simmer", items[0].Text)
	assert.Equal(t, domain.CategoryFood, items[1].Category)
	assert.Nil(t, items[0].OxfordIndex)

	require.Len(t, models.prompts, 1)
	assert.Contains(t, models.prompts[0], `"cooking"`)
	assert.Contains(t, models.prompts[0], `"food"`)
}

func TestGenerateItems_Validation(t *testing.T) {
	t.Parallel()

	g := testGenerator(t, &fakeModels{}, config.LLMConfig{RetryDelaySeconds: 1})

	_, err := g.GenerateItems(context.Background(), "   ", domain.CategoryTheme)
	assert.ErrorIs(t, err, ErrEmptyTheme)

	_, err = g.GenerateItems(context.Background(), "travel", "colour")
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)
}

func TestGenerateItems_Retries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		maxRetries int
		replies    []reply
		wantErr    error
		wantCalls  int
	}{
		{
			name:       "recovers after server error",
			maxRetries: 2,
			replies: []reply{
				{err: genai.APIError{Code: 503, Message: "unavailable"}},
				textReply(`{"items":[{"text":"joy","translation":"alegría"}]}`),
			},
			wantCalls: 2,
		},
		{
			name:       "gives up after max retries",
			maxRetries: 1,
			replies: []reply{
				{err: genai.APIError{Code: 429}},
				{err: genai.APIError{Code: 429}},
			},
			wantErr:   generation.ErrTransientFailure,
			wantCalls: 2,
		},
		{
			name:       "client errors are not retried",
			maxRetries: 3,
			replies:    []reply{{err: genai.APIError{Code: 400, Message: "bad request"}}},
			wantErr:    generation.ErrGenerationFailed,
			wantCalls:  1,
		},
		{
			name:       "safety block is not retried",
			maxRetries: 3,
			replies: []reply{{resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			}}},
			wantErr:   generation.ErrContentBlocked,
			wantCalls: 1,
		},
		{
			name:       "malformed json",
			maxRetries: 3,
			replies:    []reply{textReply("not json")},
			wantErr:    generation.ErrInvalidResponse,
			wantCalls:  1,
		},
		{
			name:       "empty item list",
			maxRetries: 3,
			replies:    []reply{textReply(`{"items":[]}`)},
			wantErr:    generation.ErrInvalidResponse,
			wantCalls:  1,
		},
		{
			name:       "item without translation",
			maxRetries: 3,
			replies:    []reply{textReply(`{"items":[{"text":"joy"}]}`)},
			wantErr:    generation.ErrInvalidResponse,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			models := &fakeModels{replies: tt.replies}
			g := testGenerator(t, models, config.LLMConfig{MaxRetries: tt.maxRetries, RetryDelaySeconds: 1})

			_, err := g.GenerateItems(context.Background(), "feelings", domain.CategoryEmotion)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, models.prompts, tt.wantCalls)
		})
	}
}

func TestGenerateItems_CancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	models := &fakeModels{replies: []reply{{err: genai.APIError{Code: 500}}}}
	g := testGenerator(t, models, config.LLMConfig{MaxRetries: 2, RetryDelaySeconds: 1})
	g.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	_, err := g.GenerateItems(context.Background(), "travel", domain.CategoryTheme)
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
}

func TestNewGenerator_Config(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	valid := filepath.Join(dir, "prompt.tmpl")
	require.NoError(t, os.WriteFile(valid, []byte("Words about {{.Theme}} ({{.Count}})"), 0o600))
	invalid := filepath.Join(dir, "broken.tmpl")
	require.NoError(t, os.WriteFile(invalid, []byte("{{.Theme"), 0o600))

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name    string
		logger  *slog.Logger
		cfg     config.LLMConfig
		wantErr error
	}{
		{"custom template", discard, config.LLMConfig{ModelName: "m", PromptTemplate: valid}, nil},
		{"built-in template", discard, config.LLMConfig{ModelName: "m"}, nil},
		{"missing model", discard, config.LLMConfig{}, generation.ErrInvalidConfig},
		{"missing template file", discard, config.LLMConfig{ModelName: "m", PromptTemplate: filepath.Join(dir, "nope")}, generation.ErrInvalidConfig},
		{"unparseable template", discard, config.LLMConfig{ModelName: "m", PromptTemplate: invalid}, generation.ErrInvalidConfig},
		{"nil logger", nil, config.LLMConfig{ModelName: "m"}, errors.New("logger cannot be nil")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g, err := newGenerator(tt.logger, tt.cfg, &fakeModels{})
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, 2, g.config.RetryDelaySeconds)
				return
			}
			require.Error(t, err)
			assert.Nil(t, g)
			if errors.Is(tt.wantErr, generation.ErrInvalidConfig) {
				assert.ErrorIs(t, err, generation.ErrInvalidConfig)
			} else {
				assert.EqualError(t, err, tt.wantErr.Error())
			}
		})
	}
}

func TestNewGeminiGenerator_RequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewGeminiGenerator(context.Background(), slog.Default(), config.LLMConfig{ModelName: "m"})
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}
