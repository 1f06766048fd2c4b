package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roomfinder/internal/domain"
	"github.com/kailas-cloud/roomfinder/internal/domain/image"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/enhance"
)

// maxCompletions caps the autocomplete list.
const maxCompletions = 10

const enhancePrompt = `You are an expert in Indian interior design. Enhance search queries for an interior image database.
Reply with JSON only:
{
  "enhanced_query": {
    "primary_search": "query for room type, theme and regional style",
    "semantic_desc": "query for detailed descriptions and cultural context",
    "object_focus": "query for furniture, materials and objects",
    "intent": "room_type|design_theme|objects|materials|style|color|budget",
    "detected_elements": {
      "room_type": "", "design_theme": "", "objects": [], "materials": [], "colors": [], "indian_context": ""
    }
  },
  "expanded_terms": {"synonyms": [], "related_terms": [], "indian_equivalents": [], "style_variations": []}
}
Examples: "kitchen" adds "modular kitchen", "granite countertop", "chimney"; "sofa" adds "diwan", "L-shaped sofa".
Prefer Indian interior terms, regional styles and culturally relevant furniture.`

const completePrompt = `You complete partial search queries for an Indian interior design image search.
Suggest up to 10 completions covering room types common in Indian homes, furniture and decor, regional styles and materials.
Reply with a JSON array of strings only.`

// Assistant rewrites queries per named vector and completes partial queries.
type Assistant struct {
	model   llms.Model
	timeout time.Duration
	logger  *zap.Logger
}

// NewAssistant wraps a chat model. timeout bounds each call; 0 leaves it to the caller.
func NewAssistant(m llms.Model, timeout time.Duration, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{model: m, timeout: timeout, logger: logger}
}

type enhanceReply struct {
	EnhancedQuery struct {
		PrimarySearch    string           `json:"primary_search"`
		SemanticDesc     string           `json:"semantic_desc"`
		ObjectFocus      string           `json:"object_focus"`
		Intent           string           `json:"intent"`
		DetectedElements enhance.Elements `json:"detected_elements"`
	} `json:"enhanced_query"`
	ExpandedTerms enhance.Terms `json:"expanded_terms"`
}

// Enhance asks the model for per-vector query texts.
// Failures wrap domain.ErrAssistantUnavailable; the caller's cancellation passes through.
func (a *Assistant) Enhance(ctx context.Context, query string) (enhance.Enhancement, error) {
	text, err := a.generate(ctx, enhancePrompt, fmt.Sprintf("Query: %q", query), 0.3, true)
	if err != nil {
		return enhance.Enhancement{}, fmt.Errorf("enhance query: %w", err)
	}

	var r enhanceReply
	if err := json.Unmarshal([]byte(stripFences(text)), &r); err != nil {
		return enhance.Enhancement{}, fmt.Errorf("enhance query: %w: %w",
			domain.ErrAssistantUnavailable, errors.Join(errors.New("malformed enhancement"), err))
	}
	q := r.EnhancedQuery
	return enhance.New(query, map[string]string{
		image.VectorPrimary:  q.PrimarySearch,
		image.VectorSemantic: q.SemanticDesc,
		image.VectorObject:   q.ObjectFocus,
	}, q.Intent, q.DetectedElements, r.ExpandedTerms), nil
}

// Complete suggests full queries for a partial one, blank and duplicate entries dropped.
func (a *Assistant) Complete(ctx context.Context, partial string) ([]string, error) {
	text, err := a.generate(ctx, completePrompt, fmt.Sprintf("Partial query: %q", partial), 0.5, false)
	if err != nil {
		return nil, fmt.Errorf("complete query: %w", err)
	}

	var raw []string
	if err := json.Unmarshal([]byte(stripFences(text)), &raw); err != nil {
		return nil, fmt.Errorf("complete query: %w: %w",
			domain.ErrAssistantUnavailable, errors.Join(errors.New("malformed completions"), err))
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, min(len(raw), maxCompletions))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
		if len(out) == maxCompletions {
			break
		}
	}
	return out, nil
}

func (a *Assistant) generate(
	ctx context.Context, system, human string, temperature float64, jsonMode bool,
) (string, error) {
	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	opts := []llms.CallOption{llms.WithTemperature(temperature)}
	if jsonMode {
		opts = append(opts, llms.WithJSONMode())
	}
	resp, err := a.model.GenerateContent(callCtx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, human),
	}, opts...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %w", domain.ErrAssistantUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", domain.ErrAssistantUnavailable)
	}
	a.logger.Debug("Assistant answered", zap.Int("chars", len(resp.Choices[0].Content)))
	return resp.Choices[0].Content, nil
}
