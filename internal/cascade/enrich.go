package cascade

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/partscope/partscope/internal/model"
	"github.com/partscope/partscope/pkg/anthropic"
)

// Enricher assigns names, geometry, and materials to segmented components by
// describing their layout to a language model. It never moves a component:
// position and scale come from segmentation and stay untouched.
type Enricher struct {
	llm         anthropic.Client
	model       string
	batchSize   int
	maxInFlight int
}

func NewEnricher(llm anthropic.Client, modelID string, batchSize, maxInFlight int) *Enricher {
	if batchSize <= 0 {
		batchSize = 20
	}
	if maxInFlight <= 0 {
		maxInFlight = 10
	}
	return &Enricher{llm: llm, model: modelID, batchSize: batchSize, maxInFlight: maxInFlight}
}

type enrichItem struct {
	ID        string  `json:"id"`
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

// enrichAttrs uses pointers so an absent key leaves the component's current
// value alone.
type enrichAttrs struct {
	Name     *string     `json:"name"`
	Geometry *string     `json:"geometry"`
	Material *string     `json:"material"`
	Color    *string     `json:"color"`
	Rotation *[3]float64 `json:"rotation"`
}

// Enrich annotates components in place. Batches fan out over a bounded pool;
// a failed batch leaves its components with their defaults. The error is
// model.ErrDescribeService only when every batch failed.
func (e *Enricher) Enrich(ctx context.Context, components []model.Component, info model.ProductInfo) error {
	if len(components) == 0 {
		return nil
	}
	category := info.CategoryOrDefault("device")

	var failed atomic.Int64
	batches := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxInFlight)
	for start := 0; start < len(components); start += e.batchSize {
		end := start + e.batchSize
		if end > len(components) {
			end = len(components)
		}
		batch := components[start:end]
		batches++

		g.Go(func() error {
			if err := e.enrichBatch(gctx, batch, info.Brand, info.Model, category); err != nil {
				failed.Add(1)
				zap.L().Warn("cascade: enrich batch failed",
					zap.Int("size", len(batch)),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	if int(failed.Load()) == batches {
		return eris.Wrap(model.ErrDescribeService, "cascade: enrich")
	}
	return nil
}

func (e *Enricher) enrichBatch(ctx context.Context, batch []model.Component, brand, productModel, category string) error {
	items := make([]enrichItem, len(batch))
	for i, c := range batch {
		items[i] = enrichItem{
			ID:        c.ID,
			PositionX: round2(c.Position[0]),
			PositionY: round2(c.Position[1]),
			Width:     round2(c.Scale[0]),
			Height:    round2(c.Scale[1]),
		}
	}
	itemJSON, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return eris.Wrap(err, "cascade: marshal enrich batch")
	}

	resp, err := e.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: 4096,
		System:    anthropic.BuildCachedSystemBlocks(enrichSystemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: enrichPrompt(brand, productModel, category, string(itemJSON), len(batch))},
		},
	})
	if err != nil {
		return eris.Wrap(err, "cascade: enrich request")
	}
	resp.Usage.LogCost(e.model, "enrich")

	doc, ok := extractJSON(resp.Text())
	if !ok {
		return eris.New("cascade: no JSON object in enrich reply")
	}
	var attrsByID map[string]enrichAttrs
	if err := json.Unmarshal([]byte(doc), &attrsByID); err != nil {
		return eris.Wrap(err, "cascade: decode enrich reply")
	}

	for i := range batch {
		attrs, ok := attrsByID[batch[i].ID]
		if !ok {
			continue
		}
		applyAttrs(&batch[i], attrs)
	}
	return nil
}

func applyAttrs(c *model.Component, attrs enrichAttrs) {
	if attrs.Name != nil {
		c.Name = *attrs.Name
	}
	if attrs.Geometry != nil {
		c.Geometry = *attrs.Geometry
	}
	if attrs.Material != nil {
		c.Material = *attrs.Material
	}
	if attrs.Color != nil {
		c.Color = *attrs.Color
	}
	if attrs.Rotation != nil {
		c.Rotation = *attrs.Rotation
	}

	// Orientation fixups so round parts face the right way in the viewer.
	name := strings.ToLower(c.Name)
	switch {
	case c.Geometry == "cylinder" && (strings.Contains(name, "wheel") || strings.Contains(name, "tire")):
		c.Rotation = [3]float64{0, 0, 1.5708}
	case c.Geometry == "torus":
		c.Rotation = [3]float64{1.5708, 0, 0}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
