package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/phrazzld/vocabweave-api/internal/config"
	"github.com/phrazzld/vocabweave-api/internal/domain"
	"github.com/phrazzld/vocabweave-api/internal/generation"
	"github.com/phrazzld/vocabweave-api/internal/platform/logger"
	"google.golang.org/genai"
)

// contentGenerator is the subset of *genai.Models the generator calls.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API.
type GeminiGenerator struct {
	logger         *slog.Logger
	config         config.LLMConfig
	promptTemplate *template.Template
	models         contentGenerator
	itemCount      int

	// sleep waits between retries; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
	rng   *rand.Rand
}

var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a generator backed by a genai client.
func NewGeminiGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiGenerator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newGenerator(logger, cfg, client.Models)
}

func newGenerator(logger *slog.Logger, cfg config.LLMConfig, models contentGenerator) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	tmpl, err := loadPromptTemplate(cfg.PromptTemplate)
	if err != nil {
		return nil, err
	}

	if cfg.MaxRetries < 0 {
		logger.Warn("invalid max retries value, using default", slog.Int("max_retries", 3))
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelaySeconds < 1 {
		logger.Warn("invalid retry delay value, using default", slog.Int("retry_delay_seconds", 2))
		cfg.RetryDelaySeconds = 2
	}

	return &GeminiGenerator{
		logger:         logger.With(slog.String("component", "gemini_generator")),
		config:         cfg,
		promptTemplate: tmpl,
		models:         models,
		itemCount:      DefaultItemCount,
		sleep:          sleepContext,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// GenerateItems implements generation.Generator.
func (g *GeminiGenerator) GenerateItems(
	ctx context.Context,
	theme string,
	category domain.Category,
) ([]*domain.VocabularyItem, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	theme = strings.TrimSpace(theme)
	if theme == "" {
		return nil, ErrEmptyTheme
	}
	if !category.Valid() {
		return nil, domain.ErrInvalidCategory
	}

	prompt, err := renderPrompt(g.promptTemplate, promptData{Theme: theme, Category: category, Count: g.itemCount})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}
	log.DebugContext(ctx, "prompt generated", slog.Int("prompt_length", len(prompt)))

	text, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	items, err := parseResponse(text, category)
	if err != nil {
		log.WarnContext(ctx, "model reply could not be parsed", slog.String("error", err.Error()))
		return nil, err
	}

	log.InfoContext(ctx, "vocabulary generated",
		slog.String("theme", theme),
		slog.String("category", string(category)),
		slog.Int("item_count", len(items)))
	return items, nil
}

// callWithRetry calls the model up to MaxRetries+1 times. Transient errors
// wait baseDelay * 2^attempt * jitter(0.5..1) before the next attempt;
// blocked content and malformed replies are returned immediately.
func (g *GeminiGenerator) callWithRetry(ctx context.Context, prompt string) (string, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}
	genConfig := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	maxRetries := g.config.MaxRetries
	for attempt := 0; ; attempt++ {
		log.InfoContext(ctx, "making Gemini API call",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1))

		resp, err := g.models.GenerateContent(ctx, g.config.ModelName, contents, genConfig)
		if err == nil {
			return responseText(resp)
		}

		if !isTransient(err) {
			log.ErrorContext(ctx, "Gemini API call failed permanently", slog.String("error", err.Error()))
			return "", fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
		}

		if attempt >= maxRetries {
			log.WarnContext(ctx, "maximum retry attempts reached", slog.Int("max_retries", maxRetries))
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, maxRetries, err)
		}

		backoff := float64(g.config.RetryDelaySeconds) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + g.rng.Float64()*0.5) * float64(time.Second))

		log.InfoContext(ctx, "retrying after delay",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		if err := g.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		}
	}
}

// responseText extracts the text of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// isTransient reports whether err is worth retrying. API errors retry on
// rate limits and server errors; other failures retry unless the caller
// cancelled.
func isTransient(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
