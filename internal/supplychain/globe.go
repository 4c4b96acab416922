package supplychain

import (
	"fmt"
	"strings"

	"github.com/partscope/partscope/internal/model"
)

// Node and arc colors match the frontend globe legend.
const (
	colorAssembly      = "#ef4444"
	colorManufacturing = "#3b82f6"
	colorRawMaterial   = "#10b981"
)

// BuildGlobe flattens a report into globe nodes and arcs. Only located
// entries appear; arcs flow material -> first manufacturing site -> assembly.
func BuildGlobe(report model.SupplyChainReport) model.GlobeData {
	var globe model.GlobeData
	seen := make(map[string]struct{})

	addNode := func(n model.GlobeNode) bool {
		if _, ok := seen[n.ID]; ok {
			return false
		}
		seen[n.ID] = struct{}{}
		globe.Nodes = append(globe.Nodes, n)
		return true
	}

	assembly := report.AssemblyLocation
	if assembly.Located() {
		name := assembly.Facility
		if name == "" {
			name = "Final Assembly"
		}
		city := assembly.City
		if city == "" {
			city = "main"
		}
		addNode(model.GlobeNode{
			ID:    nodeID("assembly", city),
			Name:  name,
			Lat:   assembly.Lat,
			Lng:   assembly.Lng,
			Type:  "assembly",
			Size:  1.5,
			Color: colorAssembly,
		})
	}

	for _, chain := range report.SupplyChain {
		for _, loc := range chain.ManufacturingLocations {
			if !loc.Located() {
				continue
			}
			name := loc.Facility
			if name == "" {
				name = loc.City
			}
			addNode(model.GlobeNode{
				ID:        nodeID("mfg", name),
				Name:      name,
				Lat:       loc.Lat,
				Lng:       loc.Lng,
				Type:      "manufacturing",
				Size:      1.0,
				Color:     colorManufacturing,
				Component: chain.ComponentID,
			})

			if assembly.Located() {
				globe.Arcs = append(globe.Arcs, model.GlobeArc{
					StartLat: loc.Lat,
					StartLng: loc.Lng,
					EndLat:   assembly.Lat,
					EndLng:   assembly.Lng,
					Color:    colorManufacturing,
					Weight:   2,
					Label:    chain.ComponentName,
					Type:     "component_to_assembly",
				})
			}
		}

		for _, mat := range chain.RawMaterials {
			if !mat.Located() {
				continue
			}
			addNode(model.GlobeNode{
				ID:            nodeID("mat", mat.Material+"_"+mat.SourceCountry),
				Name:          mat.Material,
				Lat:           mat.Lat,
				Lng:           mat.Lng,
				Type:          "raw_material",
				Size:          0.6,
				Color:         colorRawMaterial,
				SourceCountry: mat.SourceCountry,
			})

			// Materials flow into the component's first located factory.
			if first, ok := firstLocated(chain.ManufacturingLocations); ok {
				globe.Arcs = append(globe.Arcs, model.GlobeArc{
					StartLat: mat.Lat,
					StartLng: mat.Lng,
					EndLat:   first.Lat,
					EndLng:   first.Lng,
					Color:    colorRawMaterial,
					Weight:   1,
					Label:    mat.Material,
					Type:     "material_to_manufacturing",
				})
			}
		}
	}

	for _, n := range globe.Nodes {
		switch n.Type {
		case "manufacturing":
			globe.Stats.ManufacturingSites++
		case "raw_material":
			globe.Stats.MaterialSources++
		}
	}
	globe.Stats.TotalNodes = len(globe.Nodes)
	globe.Stats.TotalArcs = len(globe.Arcs)

	return globe
}

func firstLocated(locs []model.Facility) (model.Facility, bool) {
	for _, loc := range locs {
		if loc.Located() {
			return loc, true
		}
	}
	return model.Facility{}, false
}

func nodeID(prefix, name string) string {
	return strings.ToLower(strings.ReplaceAll(fmt.Sprintf("%s_%s", prefix, name), " ", "_"))
}
