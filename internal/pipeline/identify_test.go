package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/partscope/partscope/internal/model"
	"github.com/partscope/partscope/pkg/anthropic"
)

const identifyReply = `Here is the identification:
{
  "brand": "Acme",
  "model": "X1 Pro",
  "category": "smartphone",
  "year": "2024",
  "confidence": 88,
  "components": [
    {"id": "cpu", "name": "Octa-core SoC", "manufacturer": "FooFab"}
  ]
}`

func identifyReplyMessage() *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content:    []anthropic.ContentBlock{{Type: "text", Text: identifyReply}},
		StopReason: "end_turn",
	}
}

func TestIdentifyHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	img := []byte("jpeg")

	f.store.On("GetIdentification", mock.Anything, imgID).Return(nil, nil)
	f.imgs.On("Load", imgID).Return(img, nil)

	var captured anthropic.MessageRequest
	f.llm.On("CreateMessage", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(anthropic.MessageRequest)
		}).
		Return(identifyReplyMessage(), nil)
	f.store.On("SetIdentification", mock.Anything, imgID, mock.Anything, mock.Anything).Return(nil)

	ident, err := f.p.Identify(ctx, imgID)
	require.NoError(t, err)

	assert.Equal(t, "Acme", ident.Brand)
	assert.Equal(t, "smartphone", ident.Category)
	assert.InDelta(t, 88, ident.Confidence, 1e-9)
	require.Len(t, ident.Components, 1)
	assert.Equal(t, "FooFab", ident.Components[0].Manufacturer)
	assert.False(t, ident.Cached)

	require.Len(t, captured.Messages, 1)
	assert.Equal(t, img, captured.Messages[0].Image)
	assert.Equal(t, "image/jpeg", captured.Messages[0].ImageMediaType)
	f.store.AssertExpectations(t)
}

func TestIdentifyCacheHit(t *testing.T) {
	f := newFixture(t)
	cached := model.Identification{Brand: "Acme", Category: "smartphone"}

	f.store.On("GetIdentification", mock.Anything, imgID).Return(&cached, nil)

	ident, err := f.p.Identify(context.Background(), imgID)
	require.NoError(t, err)
	assert.True(t, ident.Cached)
	f.llm.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestIdentifyUnreadableImage(t *testing.T) {
	f := newFixture(t)

	f.store.On("GetIdentification", mock.Anything, "bogus").Return(nil, nil)
	f.imgs.On("Load", "bogus").Return(nil, eris.Wrap(model.ErrImageUnreadable, "imagestore: read"))

	_, err := f.p.Identify(context.Background(), "bogus")
	assert.ErrorIs(t, err, model.ErrImageUnreadable)
}

func TestIdentifyUnparseableReply(t *testing.T) {
	f := newFixture(t)

	f.store.On("GetIdentification", mock.Anything, imgID).Return(nil, nil)
	f.imgs.On("Load", imgID).Return([]byte("jpeg"), nil)
	f.llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(&anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: "I cannot tell."}}}, nil)

	_, err := f.p.Identify(context.Background(), imgID)
	require.Error(t, err)
	f.store.AssertNotCalled(t, "SetIdentification", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestParseIdentification(t *testing.T) {
	ident, err := parseIdentification(identifyReply)
	require.NoError(t, err)
	assert.Equal(t, "X1 Pro", ident.Model)

	_, err = parseIdentification("no braces here")
	assert.Error(t, err)

	_, err = parseIdentification(`{"brand": `)
	assert.Error(t, err)
}
