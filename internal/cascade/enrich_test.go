package cascade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/partscope/partscope/internal/model"
	"github.com/partscope/partscope/pkg/anthropic"
)

func segmentedComponents(n int) []model.Component {
	out := make([]model.Component, n)
	for i := range out {
		out[i] = model.Component{
			ID:       "sam_" + string(rune('0'+i)),
			Name:     "Component",
			Position: [3]float64{0.1 * float64(i), 0.2, 0.01},
			Scale:    [3]float64{0.2, 0.3, 0.02},
			Geometry: "box",
			Source:   model.SourceSegmented,
		}
	}
	return out
}

func textReply(body string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content:    []anthropic.ContentBlock{{Type: "text", Text: body}},
		StopReason: "end_turn",
	}
}

func TestEnrichAppliesAttributes(t *testing.T) {
	mc := new(anthropic.MockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textReply(`Here you go:
{
  "sam_0": {"name": "Logic Board", "geometry": "roundedBox", "material": "pcb", "color": "#064e3b"},
  "sam_1": {"name": "Battery", "geometry": "box", "material": "battery", "color": "#0f172a", "rotation": [0, 0.5, 0]}
}`), nil)

	comps := segmentedComponents(2)
	e := NewEnricher(mc, "claude-haiku-4-5-20251001", 20, 10)
	err := e.Enrich(context.Background(), comps, model.ProductInfo{Brand: "Acme", Model: "X1", Category: "smartphone"})
	require.NoError(t, err)

	assert.Equal(t, "Logic Board", comps[0].Name)
	assert.Equal(t, "roundedBox", comps[0].Geometry)
	assert.Equal(t, "pcb", comps[0].Material)
	assert.Equal(t, "#064e3b", comps[0].Color)
	assert.Equal(t, [3]float64{0, 0.5, 0}, comps[1].Rotation)

	// segmentation-derived placement is never touched
	assert.Equal(t, [3]float64{0, 0.2, 0.01}, comps[0].Position)
	assert.Equal(t, [3]float64{0.2, 0.3, 0.02}, comps[0].Scale)
}

func TestEnrichMissingKeysLeaveDefaults(t *testing.T) {
	mc := new(anthropic.MockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textReply(`{"sam_0": {"name": "Camera Lens"}}`), nil)

	comps := segmentedComponents(2)
	e := NewEnricher(mc, "claude-haiku-4-5-20251001", 20, 10)
	err := e.Enrich(context.Background(), comps, model.ProductInfo{})
	require.NoError(t, err)

	assert.Equal(t, "Camera Lens", comps[0].Name)
	assert.Equal(t, "box", comps[0].Geometry)
	// sam_1 absent from the reply: untouched
	assert.Equal(t, "Component", comps[1].Name)
}

func TestEnrichWheelRotationFixup(t *testing.T) {
	mc := new(anthropic.MockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textReply(`{
  "sam_0": {"name": "Front Left Tire", "geometry": "cylinder", "rotation": [0, 0, 0]},
  "sam_1": {"name": "Speaker Grill", "geometry": "torus"}
}`), nil)

	comps := segmentedComponents(2)
	e := NewEnricher(mc, "claude-haiku-4-5-20251001", 20, 10)
	err := e.Enrich(context.Background(), comps, model.ProductInfo{Category: "automotive"})
	require.NoError(t, err)

	assert.Equal(t, [3]float64{0, 0, 1.5708}, comps[0].Rotation)
	assert.Equal(t, [3]float64{1.5708, 0, 0}, comps[1].Rotation)
}

func TestEnrichAllBatchesFailed(t *testing.T) {
	mc := new(anthropic.MockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textReply("I cannot identify these components."), nil)

	comps := segmentedComponents(2)
	e := NewEnricher(mc, "claude-haiku-4-5-20251001", 20, 10)
	err := e.Enrich(context.Background(), comps, model.ProductInfo{})

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDescribeService)
	// defaults survive
	assert.Equal(t, "Component", comps[0].Name)
}

func TestEnrichPartialBatchFailureIsNotAnError(t *testing.T) {
	mc := new(anthropic.MockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textReply(`{"sam_0": {"name": "Display"}}`), nil).Once()
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textReply("garbled"), nil).Once()

	comps := segmentedComponents(2)
	e := NewEnricher(mc, "claude-haiku-4-5-20251001", 1, 1)
	err := e.Enrich(context.Background(), comps, model.ProductInfo{})
	require.NoError(t, err)
}

func TestEnrichSendsCachedInstructions(t *testing.T) {
	mc := new(anthropic.MockClient)
	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.System) == 1 &&
			req.System[0].Text == enrichSystemPrompt &&
			req.System[0].CacheControl != nil &&
			req.System[0].CacheControl.TTL == "1h"
	})).Return(textReply(`{"sam_0": {"name": "Display"}}`), nil)

	comps := segmentedComponents(1)
	e := NewEnricher(mc, "claude-haiku-4-5-20251001", 20, 10)
	require.NoError(t, e.Enrich(context.Background(), comps, model.ProductInfo{}))
	mc.AssertExpectations(t)
}

func TestEnrichEmptyInput(t *testing.T) {
	mc := new(anthropic.MockClient)
	e := NewEnricher(mc, "claude-haiku-4-5-20251001", 20, 10)
	require.NoError(t, e.Enrich(context.Background(), nil, model.ProductInfo{}))
	mc.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}
