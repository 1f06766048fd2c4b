// Package llm implements the AI room-type strategy and the query assistant over an
// OpenAI-compatible chat model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roomfinder/internal/domain"
)

// maxAttempts bounds retries on malformed model output.
const maxAttempts = 2

const systemPrompt = `You are an expert in Indian interior design. You classify image search queries by the room they target.
Reply with JSON only: {"room_type": "<one of the given room types, or null>", "confidence": <number between 0 and 1>}.
Answer null when the query names no room or a room that is not in the list.`

// Config holds the chat model settings.
type Config struct {
	BaseURL string
	Token   string
	Model   string
	Timeout time.Duration // per classification; 0 means the caller's deadline only
	Logger  *zap.Logger
}

// Classifier asks a chat model which known room type a query targets.
type Classifier struct {
	model   llms.Model
	timeout time.Duration
	logger  *zap.Logger
}

type answer struct {
	RoomType   *string `json:"room_type"`
	Confidence float64 `json:"confidence"`
}

// NewChatModel connects to an OpenAI-compatible chat endpoint.
func NewChatModel(cfg Config) (llms.Model, error) {
	opts := []openai.Option{openai.WithModel(cfg.Model), openai.WithToken(cfg.Token)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create chat client: %w", err)
	}
	return m, nil
}

// New creates a classifier backed by an OpenAI-compatible endpoint.
func New(cfg Config) (*Classifier, error) {
	m, err := NewChatModel(cfg)
	if err != nil {
		return nil, err
	}
	c := NewWithModel(m, cfg.Logger)
	c.timeout = cfg.Timeout
	return c, nil
}

// NewWithModel wraps an existing model.
func NewWithModel(m llms.Model, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{model: m, logger: logger}
}

// Classify returns the room type among roomTypes, or "" when the model names none.
// Transport failures wrap domain.ErrClassifierUnavailable; cancellation passes through.
func (c *Classifier) Classify(ctx context.Context, query string, roomTypes []string) (string, float64, error) {
	if len(roomTypes) == 0 {
		return "", 0, nil
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf("Room types: %s\nQuery: %q",
			strings.Join(roomTypes, ", "), query)),
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.model.GenerateContent(callCtx, content, llms.WithTemperature(0), llms.WithJSONMode())
		if err != nil {
			// Only the caller's cancellation passes through; our own deadline degrades.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", 0, fmt.Errorf("classify: %w", ctxErr)
			}
			return "", 0, fmt.Errorf("classify: %w: %w", domain.ErrClassifierUnavailable, err)
		}
		if len(resp.Choices) == 0 {
			return "", 0, nil
		}

		a, err := parseAnswer(resp.Choices[0].Content)
		if err != nil {
			lastErr = err
			c.logger.Warn("Unparseable classifier response", zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		label, ok := pick(a, roomTypes)
		if !ok {
			return "", 0, nil
		}
		return label, clamp(a.Confidence), nil
	}
	return "", 0, fmt.Errorf("classify: %w: %w", domain.ErrClassifierUnavailable, lastErr)
}

// parseAnswer decodes the model reply, tolerating markdown code fences.
func parseAnswer(text string) (answer, error) {
	var a answer
	if err := json.Unmarshal([]byte(stripFences(text)), &a); err != nil {
		return answer{}, errors.Join(errors.New("malformed classifier output"), err)
	}
	return a, nil
}

// pick maps the model label onto a known room type, case-insensitively.
func pick(a answer, roomTypes []string) (string, bool) {
	if a.RoomType == nil {
		return "", false
	}
	want := strings.ToLower(strings.TrimSpace(*a.RoomType))
	for _, rt := range roomTypes {
		if strings.ToLower(rt) == want {
			return rt, true
		}
	}
	return "", false
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func clamp(f float64) float64 {
	return max(0, min(1, f))
}
