package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/partscope/partscope/internal/model"
	"github.com/partscope/partscope/pkg/anthropic"
)

const identifyPrompt = `Analyze this product image carefully and identify:

1. Brand name (e.g., Apple, Samsung, Sony)
2. Model name/number (e.g., iPhone 15 Pro, Galaxy S24)
3. Product category (smartphone, laptop, tablet, headphones, camera, automotive, footwear, etc.)
4. Approximate release year
5. List of known internal components for this specific product

Return ONLY valid JSON in this exact format:
{
    "brand": "Apple",
    "model": "iPhone 15 Pro",
    "category": "smartphone",
    "year": "2023",
    "confidence": 95,
    "components": [
        {"id": "cpu", "name": "A17 Pro Processor", "manufacturer": "TSMC"},
        {"id": "display", "name": "Super Retina XDR OLED Display", "manufacturer": "Samsung/LG"},
        {"id": "battery", "name": "Lithium-ion Battery 3274mAh", "manufacturer": "ATL/BYD"}
    ]
}

Be specific about component manufacturers when known. If unsure, provide your best estimate.`

// Identify names the product in a stored image using the vision model.
// Results are cached per image id; confidence is the model's 0-100
// self-estimate.
func (p *Pipeline) Identify(ctx context.Context, imageID string) (model.Identification, error) {
	cached, err := p.store.GetIdentification(ctx, imageID)
	if err != nil {
		zap.L().Warn("pipeline: identification cache read failed", zap.Error(err))
	} else if cached != nil {
		cached.Cached = true
		return *cached, nil
	}

	imageJPEG, err := p.images.Load(imageID)
	if err != nil {
		return model.Identification{}, eris.Wrap(err, "pipeline: load image")
	}

	resp, err := p.llm.CreateMessage(ctx, buildIdentifyRequest(p.cfg.Anthropic.SonnetModel, imageJPEG))
	if err != nil {
		return model.Identification{}, eris.Wrap(err, "pipeline: identify request")
	}
	resp.Usage.LogCost(p.cfg.Anthropic.SonnetModel, "identify")

	ident, err := parseIdentification(resp.Text())
	if err != nil {
		return model.Identification{}, err
	}

	if cacheErr := p.store.SetIdentification(ctx, imageID, ident, p.cfg.Store.ResultTTL()); cacheErr != nil {
		zap.L().Warn("pipeline: identification cache write failed", zap.Error(cacheErr))
	}
	return ident, nil
}

func buildIdentifyRequest(modelID string, imageJPEG []byte) anthropic.MessageRequest {
	return anthropic.MessageRequest{
		Model:     modelID,
		MaxTokens: 2048,
		Messages: []anthropic.Message{{
			Role:           "user",
			Content:        identifyPrompt,
			Image:          imageJPEG,
			ImageMediaType: "image/jpeg",
		}},
	}
}

func parseIdentification(text string) (model.Identification, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return model.Identification{}, eris.New("pipeline: no JSON object in identify reply")
	}

	var ident model.Identification
	if err := json.Unmarshal([]byte(text[start:end+1]), &ident); err != nil {
		return model.Identification{}, eris.Wrap(err, "pipeline: decode identification")
	}
	return ident, nil
}
