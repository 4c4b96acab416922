package supplychain

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/partscope/partscope/internal/model"
	"github.com/partscope/partscope/pkg/anthropic"
	"github.com/partscope/partscope/pkg/geocode"
)

// fakeGeo resolves places from a fixed table and records lookups.
type fakeGeo struct {
	coords map[string][2]float64
	calls  []string
	err    error
}

func (f *fakeGeo) Geocode(ctx context.Context, place string) (*geocode.Result, error) {
	f.calls = append(f.calls, place)
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.coords[place]
	if !ok {
		return &geocode.Result{Matched: false, Source: "nominatim"}, nil
	}
	return &geocode.Result{Latitude: c[0], Longitude: c[1], Matched: true, Source: "nominatim"}, nil
}

func textReply(body string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content:    []anthropic.ContentBlock{{Type: "text", Text: body}},
		StopReason: "end_turn",
	}
}

const chainReply = `Here is the researched data:
{
  "component_id": "cpu",
  "component_name": "A17 Pro Processor",
  "manufacturer": "TSMC",
  "manufacturing_locations": [
    {"facility": "TSMC Fab 18", "city": "Tainan", "country": "Taiwan", "type": "chip_fabrication"}
  ],
  "suppliers": [
    {"name": "ASML", "provides": "EUV Lithography", "country": "Netherlands"}
  ],
  "raw_materials": [
    {"material": "Silicon", "source_country": "Taiwan"}
  ],
  "certifications": ["ISO 14001"]
}`

func testInfo() model.ProductInfo {
	return model.ProductInfo{Brand: "Apple", Model: "iPhone 15 Pro", Category: "smartphone"}
}

func TestResearch_GeocodesLocations(t *testing.T) {
	mc := new(anthropic.MockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textReply(chainReply), nil).Once()

	geo := &fakeGeo{coords: map[string][2]float64{
		"Tainan, Taiwan": {22.9908, 120.2133},
		"Taiwan":         {23.6978, 120.9605},
	}}

	r := NewResearcher(mc, geo, "claude-sonnet-4-5-20250929")
	report, err := r.Research(context.Background(), testInfo(), []model.KnownPart{
		{ID: "cpu", Name: "A17 Pro Processor", Manufacturer: "TSMC"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Apple iPhone 15 Pro", report.Product)
	require.Len(t, report.SupplyChain, 1)

	chain := report.SupplyChain[0]
	require.Len(t, chain.ManufacturingLocations, 1)
	assert.InDelta(t, 22.9908, chain.ManufacturingLocations[0].Lat, 1e-6)
	require.Len(t, chain.RawMaterials, 1)
	assert.InDelta(t, 23.6978, chain.RawMaterials[0].Lat, 1e-6)

	assert.Equal(t, []string{"Tainan, Taiwan", "Taiwan"}, geo.calls)
	assert.Equal(t, 1, report.TotalCountries)
	assert.NotEmpty(t, report.Globe.Nodes)
	mc.AssertExpectations(t)
}

func TestResearch_ComponentLimit(t *testing.T) {
	mc := new(anthropic.MockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textReply(chainReply), nil)

	r := NewResearcher(mc, &fakeGeo{}, "claude-sonnet-4-5-20250929")
	parts := make([]model.KnownPart, 8)
	for i := range parts {
		parts[i] = model.KnownPart{ID: "p", Name: "Part"}
	}

	report, err := r.Research(context.Background(), testInfo(), parts)
	require.NoError(t, err)
	assert.Len(t, report.SupplyChain, maxComponents)
	mc.AssertNumberOfCalls(t, "CreateMessage", maxComponents)
}

func TestResearch_FailedComponentKeepsOthers(t *testing.T) {
	mc := new(anthropic.MockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, eris.New("api timeout")).Once()
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textReply(chainReply), nil).Once()

	r := NewResearcher(mc, &fakeGeo{}, "claude-sonnet-4-5-20250929")
	report, err := r.Research(context.Background(), testInfo(), []model.KnownPart{
		{ID: "display", Name: "OLED Display"},
		{ID: "cpu", Name: "A17 Pro Processor"},
	})
	require.NoError(t, err)
	require.Len(t, report.SupplyChain, 2)

	assert.Equal(t, "display", report.SupplyChain[0].ComponentID)
	assert.NotEmpty(t, report.SupplyChain[0].Error)
	assert.Equal(t, "cpu", report.SupplyChain[1].ComponentID)
	assert.Empty(t, report.SupplyChain[1].Error)
}

func TestResearch_UnparseableReply(t *testing.T) {
	mc := new(anthropic.MockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textReply("I cannot research that."), nil)

	r := NewResearcher(mc, &fakeGeo{}, "claude-sonnet-4-5-20250929")
	report, err := r.Research(context.Background(), testInfo(), []model.KnownPart{
		{ID: "cpu", Name: "Processor"},
	})
	require.NoError(t, err)
	require.Len(t, report.SupplyChain, 1)
	assert.Equal(t, "cpu", report.SupplyChain[0].ComponentID)
	assert.Equal(t, "Processor", report.SupplyChain[0].ComponentName)
	assert.NotEmpty(t, report.SupplyChain[0].Error)
}

func TestResearch_GeocodeFailureSkipsCoordinates(t *testing.T) {
	mc := new(anthropic.MockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textReply(chainReply), nil)

	geo := &fakeGeo{err: eris.New("service unavailable")}
	r := NewResearcher(mc, geo, "claude-sonnet-4-5-20250929")

	report, err := r.Research(context.Background(), testInfo(), []model.KnownPart{
		{ID: "cpu", Name: "Processor"},
	})
	require.NoError(t, err)
	assert.False(t, report.SupplyChain[0].ManufacturingLocations[0].Located())
}

func TestResearchPrompt(t *testing.T) {
	p := researchPrompt(model.KnownPart{ID: "cpu", Name: "A17 Pro Processor", Manufacturer: "TSMC"}, "Apple iPhone 15 Pro")
	assert.Contains(t, p, "Component: A17 Pro Processor")
	assert.Contains(t, p, "Manufacturer: TSMC")
	assert.Contains(t, p, "Used in: Apple iPhone 15 Pro")
	assert.Contains(t, p, `"component_id": "cpu"`)
	assert.True(t, strings.Contains(p, "Return ONLY valid JSON"))
}

func TestProductKey(t *testing.T) {
	key := ProductKey(model.ProductInfo{Brand: "Apple", Model: "iPhone 15 Pro"})
	assert.Equal(t, "apple_iphone_15_pro", key)

	assert.Equal(t, "_", ProductKey(model.ProductInfo{}))
}
