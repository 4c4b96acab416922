// Package supplychain researches where a product's components are made.
// The language model drafts manufacturing sites, suppliers, and raw
// materials per component, and a geocoder pins them to coordinates for the
// globe visualization.
package supplychain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/partscope/partscope/internal/model"
	"github.com/partscope/partscope/pkg/anthropic"
	"github.com/partscope/partscope/pkg/geocode"
)

// maxComponents caps how many components are researched per request.
const maxComponents = 5

// defaultAssembly stands in when the model reports no assembly site.
var defaultAssembly = model.Facility{
	Facility: "Main Assembly",
	City:     "Zhengzhou",
	Country:  "China",
	Lat:      34.7466,
	Lng:      113.6253,
	Type:     "final_assembly",
}

// Researcher builds supply chain reports for identified products.
type Researcher struct {
	llm     anthropic.Client
	geo     geocode.Client
	modelID string
}

func NewResearcher(llm anthropic.Client, geo geocode.Client, modelID string) *Researcher {
	return &Researcher{llm: llm, geo: geo, modelID: modelID}
}

// Research produces a report for up to maxComponents of the given parts.
// A component whose research fails is kept in the report with its Error set
// so one bad answer does not sink the rest.
func (r *Researcher) Research(ctx context.Context, info model.ProductInfo, parts []model.KnownPart) (model.SupplyChainReport, error) {
	if len(parts) > maxComponents {
		parts = parts[:maxComponents]
	}

	product := strings.TrimSpace(info.Brand + " " + info.Model)
	report := model.SupplyChainReport{
		Product:          product,
		AssemblyLocation: defaultAssembly,
	}

	for _, part := range parts {
		chain, err := r.researchComponent(ctx, part, product)
		if err != nil {
			if ctx.Err() != nil {
				return model.SupplyChainReport{}, eris.Wrap(err, "supplychain: research")
			}
			zap.L().Warn("supplychain: component research failed",
				zap.String("component", part.Name),
				zap.Error(err),
			)
			chain = model.ComponentChain{
				ComponentID:   part.ID,
				ComponentName: part.Name,
				Error:         "could not research supply chain data",
			}
		}
		r.geocodeChain(ctx, &chain)
		report.SupplyChain = append(report.SupplyChain, chain)
	}

	report.TotalCountries = countCountries(report.SupplyChain)
	report.Globe = BuildGlobe(report)
	return report, nil
}

func (r *Researcher) researchComponent(ctx context.Context, part model.KnownPart, product string) (model.ComponentChain, error) {
	resp, err := r.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     r.modelID,
		MaxTokens: 4096,
		Messages: []anthropic.Message{
			{Role: "user", Content: researchPrompt(part, product)},
		},
	})
	if err != nil {
		return model.ComponentChain{}, eris.Wrap(err, "supplychain: research request")
	}
	resp.Usage.LogCost(r.modelID, "supplychain")

	doc, ok := extractJSON(resp.Text())
	if !ok {
		return model.ComponentChain{}, eris.New("supplychain: no JSON object in reply")
	}

	var chain model.ComponentChain
	if err := json.Unmarshal([]byte(doc), &chain); err != nil {
		return model.ComponentChain{}, eris.Wrap(err, "supplychain: parse reply")
	}
	if chain.ComponentID == "" {
		chain.ComponentID = part.ID
	}
	if chain.ComponentName == "" {
		chain.ComponentName = part.Name
	}
	return chain, nil
}

// geocodeChain fills in coordinates for locations the model left unresolved.
// Geocoding failures are logged and skipped; the globe simply omits those
// nodes.
func (r *Researcher) geocodeChain(ctx context.Context, chain *model.ComponentChain) {
	for i := range chain.ManufacturingLocations {
		loc := &chain.ManufacturingLocations[i]
		if loc.Located() {
			continue
		}
		place := strings.Trim(loc.City+", "+loc.Country, ", ")
		if place == "" {
			continue
		}
		if res := r.lookup(ctx, place); res != nil {
			loc.Lat, loc.Lng = res.Latitude, res.Longitude
		}
	}

	for i := range chain.RawMaterials {
		mat := &chain.RawMaterials[i]
		if mat.Located() || mat.SourceCountry == "" {
			continue
		}
		if res := r.lookup(ctx, mat.SourceCountry); res != nil {
			mat.Lat, mat.Lng = res.Latitude, res.Longitude
		}
	}
}

func (r *Researcher) lookup(ctx context.Context, place string) *geocode.Result {
	res, err := r.geo.Geocode(ctx, place)
	if err != nil {
		zap.L().Warn("supplychain: geocode failed", zap.String("place", place), zap.Error(err))
		return nil
	}
	if !res.Matched {
		return nil
	}
	return res
}

func countCountries(chains []model.ComponentChain) int {
	countries := make(map[string]struct{})
	for _, chain := range chains {
		for _, loc := range chain.ManufacturingLocations {
			if loc.Country != "" {
				countries[loc.Country] = struct{}{}
			}
		}
		for _, mat := range chain.RawMaterials {
			if mat.SourceCountry != "" {
				countries[mat.SourceCountry] = struct{}{}
			}
		}
	}
	return len(countries)
}

// ProductKey normalizes brand and model into the cache key for a report.
func ProductKey(info model.ProductInfo) string {
	key := strings.ToLower(info.Brand + "_" + info.Model)
	return strings.ReplaceAll(key, " ", "_")
}

func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

func researchPrompt(part model.KnownPart, product string) string {
	manufacturer := part.Manufacturer
	if manufacturer == "" {
		manufacturer = "Unknown"
	}

	var b strings.Builder
	b.WriteString("Research the supply chain for this electronic component:\n\n")
	fmt.Fprintf(&b, "Component: %s\nManufacturer: %s\nUsed in: %s\n\n", part.Name, manufacturer, product)
	b.WriteString(`Find and return:
1. Primary manufacturing locations (factory name, city, country)
2. Key suppliers in the supply chain
3. Raw materials required and their source countries
4. Any sustainability certifications (ISO 14001, RoHS, etc.)

Focus on verifiable information from company sustainability reports, industry analysis, and official company statements.

Return ONLY valid JSON:
{
`)
	fmt.Fprintf(&b, "    %q: %q,\n", "component_id", part.ID)
	fmt.Fprintf(&b, "    %q: %q,\n", "component_name", part.Name)
	fmt.Fprintf(&b, "    %q: %q,\n", "manufacturer", manufacturer)
	b.WriteString(`    "manufacturing_locations": [
        {"facility": "TSMC Fab 18", "city": "Tainan", "country": "Taiwan", "type": "chip_fabrication"}
    ],
    "suppliers": [
        {"name": "ASML", "provides": "EUV Lithography Machines", "country": "Netherlands"}
    ],
    "raw_materials": [
        {"material": "Silicon", "source_country": "China", "source_region": "Xinjiang"},
        {"material": "Rare Earth Elements", "source_country": "China", "source_region": "Inner Mongolia"}
    ],
    "certifications": ["ISO 14001", "RoHS"],
    "sustainability_notes": "Brief notes about sustainability practices"
}`)
	return b.String()
}
