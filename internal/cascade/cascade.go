// Package cascade turns discovery output into a guaranteed component set.
// Three tiers: enriched segmentation, vision-model generation, and canned
// placeholders. The last tier cannot fail, so callers always get something
// to render.
package cascade

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/partscope/partscope/internal/model"
)

// Controller runs the tier logic.
type Controller struct {
	enricher  *Enricher
	generator *Generator
}

func NewController(enricher *Enricher, generator *Generator) *Controller {
	return &Controller{enricher: enricher, generator: generator}
}

// Run builds a ComponentSet from whatever discovery produced. A non-empty
// discovered slice with enough components takes the segmented tier; anything
// else falls to generation and then to placeholders. Tier failures are
// logged and absorbed, never returned.
func (c *Controller) Run(ctx context.Context, imageJPEG []byte, info model.ProductInfo, discovered []model.Component, discoveryOK bool) model.ComponentSet {
	category := info.CategoryOrDefault("device")

	if discoveryOK {
		set := model.ComponentSet{
			Components: discovered,
			DeviceType: category,
			Method:     model.MethodSegmented,
		}
		if err := c.enricher.Enrich(ctx, discovered, info); err != nil {
			zap.L().Warn("cascade: enrichment failed, keeping default attributes", zap.Error(err))
			set.Note = "Component descriptions unavailable; showing segmented parts with default attributes."
		}
		return set
	}

	generated, err := c.generator.Generate(ctx, imageJPEG, info)
	if err == nil {
		return model.ComponentSet{
			Components: generated,
			DeviceType: category,
			Method:     model.MethodGenerated,
		}
	}
	zap.L().Warn("cascade: generation failed, using placeholder", zap.Error(err))

	placeholderCategory := info.CategoryOrDefault("smartphone")
	return model.ComponentSet{
		Components: PlaceholderComponents(placeholderCategory),
		DeviceType: placeholderCategory,
		Method:     model.MethodPlaceholder,
		Note:       fmt.Sprintf("Using placeholder model for %s due to generation error.", DisplayCategory(placeholderCategory)),
	}
}
