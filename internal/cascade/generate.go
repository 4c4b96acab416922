package cascade

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/partscope/partscope/internal/model"
	"github.com/partscope/partscope/pkg/anthropic"
)

// Generator produces a component layout from the product photo alone, used
// when segmentation found too little to work with.
type Generator struct {
	llm   anthropic.Client
	model string
}

func NewGenerator(llm anthropic.Client, modelID string) *Generator {
	return &Generator{llm: llm, model: modelID}
}

type generatedDoc struct {
	DeviceType string         `json:"device_type"`
	Components []generatedOne `json:"components"`
}

type generatedOne struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Position [3]float64 `json:"position"`
	Scale    [3]float64 `json:"scale"`
	Geometry string     `json:"geometry"`
	Material string     `json:"material"`
	Type     string     `json:"type"`
	Color    string     `json:"color"`
	Rotation [3]float64 `json:"rotation"`
}

// Generate asks the vision model for a teardown-style component list. A
// reply that cannot be parsed is model.ErrGenerateParse so callers fall
// through to the placeholder tier.
func (g *Generator) Generate(ctx context.Context, imageJPEG []byte, info model.ProductInfo) ([]model.Component, error) {
	category := info.CategoryOrDefault("smartphone")

	resp, err := g.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: 8192,
		System:    anthropic.BuildCachedSystemBlocks(generateSystemPrompt),
		Messages: []anthropic.Message{
			{
				Role:           "user",
				Content:        generatePrompt(info.Brand, info.Model, category),
				Image:          imageJPEG,
				ImageMediaType: "image/jpeg",
			},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "cascade: generate request")
	}
	resp.Usage.LogCost(g.model, "generate")

	raw, ok := extractJSON(resp.Text())
	if !ok {
		return nil, eris.Wrap(model.ErrGenerateParse, "cascade: no JSON object in generate reply")
	}
	var doc generatedDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, eris.Wrapf(model.ErrGenerateParse, "cascade: decode generate reply: %v", err)
	}
	if len(doc.Components) == 0 {
		return nil, eris.Wrap(model.ErrGenerateParse, "cascade: generate reply has no components")
	}

	out := make([]model.Component, len(doc.Components))
	for i, gc := range doc.Components {
		id := gc.ID
		if id == "" {
			id = fmt.Sprintf("gen_%d", i)
		}
		out[i] = model.Component{
			ID:       id,
			Name:     gc.Name,
			Position: gc.Position,
			Scale:    gc.Scale,
			Geometry: gc.Geometry,
			Material: gc.Material,
			Type:     gc.Type,
			Color:    gc.Color,
			Rotation: gc.Rotation,
			Source:   model.SourceGenerated,
		}
	}
	return out, nil
}
