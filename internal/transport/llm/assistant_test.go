package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/kailas-cloud/roomfinder/internal/domain"
	"github.com/kailas-cloud/roomfinder/internal/domain/image"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/enhance"
)

const enhanceReplyJSON = "```json\n" + `{
  "enhanced_query": {
    "primary_search": "traditional Indian living room",
    "semantic_desc": "",
    "object_focus": "teak wood sofa and brass lamps",
    "intent": "room_type",
    "detected_elements": {"room_type": "living room", "materials": ["teak"]}
  },
  "expanded_terms": {"synonyms": ["lounge"], "indian_equivalents": ["baithak"]}
}` + "\n```"

func TestEnhance_ParsesPerVectorTexts(t *testing.T) {
	m := &scriptedModel{replies: []string{enhanceReplyJSON}}
	a := NewAssistant(m, 0, nil)

	e, err := a.Enhance(context.Background(), "living room teak")

	require.NoError(t, err)
	assert.Equal(t, enhance.SourceAI, e.Source)
	assert.Equal(t, "traditional Indian living room", e.TextFor(image.VectorPrimary))
	assert.Equal(t, "living room teak", e.TextFor(image.VectorSemantic), "blank text falls back to the query")
	assert.Equal(t, "teak wood sofa and brass lamps", e.TextFor(image.VectorObject))
	assert.Equal(t, enhance.IntentRoomType, e.Intent)
	assert.Equal(t, []string{"teak"}, e.Elements.Materials)
	assert.Equal(t, []string{"baithak"}, e.Expanded.IndianEquivalents)
	assert.InDelta(t, 1.0, e.Confidence, 1e-9)
	require.Len(t, m.prompts, 2)
	assert.Contains(t, m.prompts[1].Parts[0].(llms.TextContent).Text, "living room teak")
}

func TestEnhance_Failures(t *testing.T) {
	tests := []struct {
		name  string
		model *scriptedModel
	}{
		{"transport error", &scriptedModel{err: errors.New("503")}},
		{"malformed reply", &scriptedModel{replies: []string{"a cosy lounge"}}},
		{"no choices", &scriptedModel{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAssistant(tt.model, 0, nil).Enhance(context.Background(), "lounge")
			assert.ErrorIs(t, err, domain.ErrAssistantUnavailable)
		})
	}
}

func TestEnhance_OwnTimeoutIsUnavailable(t *testing.T) {
	a := NewAssistant(&stalledModel{}, 10*time.Millisecond, nil)

	_, err := a.Enhance(context.Background(), "lounge")

	assert.ErrorIs(t, err, domain.ErrAssistantUnavailable)
}

func TestEnhance_CallerCancellationPassesThrough(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAssistant(&scriptedModel{err: errors.New("aborted")}, 0, nil).Enhance(ctx, "lounge")

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrAssistantUnavailable)
}

func TestComplete(t *testing.T) {
	m := &scriptedModel{replies: []string{`["pooja room design", " Pooja Room Design ", "", "pooja unit in teak"]`}}

	got, err := NewAssistant(m, 0, nil).Complete(context.Background(), "poo")

	require.NoError(t, err)
	assert.Equal(t, []string{"pooja room design", "pooja unit in teak"}, got)
}

func TestComplete_CapsAtTen(t *testing.T) {
	m := &scriptedModel{replies: []string{`["a1","a2","a3","a4","a5","a6","a7","a8","a9","a10","a11"]`}}

	got, err := NewAssistant(m, 0, nil).Complete(context.Background(), "a")

	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestComplete_Malformed(t *testing.T) {
	m := &scriptedModel{replies: []string{`{"suggestions": []}`}}

	_, err := NewAssistant(m, 0, nil).Complete(context.Background(), "ki")

	assert.ErrorIs(t, err, domain.ErrAssistantUnavailable)
}
