package cascade

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/partscope/partscope/internal/model"
)

var titleCaser = cases.Title(language.English)

// DisplayCategory renders a category slug for user-facing text.
func DisplayCategory(category string) string {
	return titleCaser.String(category)
}

// placeholderCatalogs holds the canned layouts returned when both
// segmentation and generation came up empty. Positions match the viewer's
// neutral framing for each device class.
var placeholderCatalogs = map[string][]model.Component{
	"smartphone": {
		{ID: "display", Name: "Display Screen", Position: [3]float64{0, 0.3, 0.04}, Scale: [3]float64{0.35, 0.7, 0.01}, Geometry: "box", Material: "glass", Type: "display", Color: "#1a1a2e"},
		{ID: "cpu", Name: "Processor", Position: [3]float64{0, 0.1, 0}, Scale: [3]float64{0.08, 0.08, 0.02}, Geometry: "roundedBox", Material: "silicon", Type: "chip", Color: "#4a5568"},
		{ID: "battery", Name: "Battery", Position: [3]float64{0, -0.15, 0}, Scale: [3]float64{0.3, 0.35, 0.03}, Geometry: "box", Material: "battery", Type: "power", Color: "#2d3748"},
		{ID: "camera", Name: "Camera Module", Position: [3]float64{-0.12, 0.55, 0.03}, Scale: [3]float64{0.12, 0.12, 0.02}, Geometry: "cylinder", Material: "glass", Type: "optics", Color: "#1a202c", Rotation: [3]float64{1.5708, 0, 0}},
		{ID: "memory", Name: "RAM Module", Position: [3]float64{0.08, 0.15, 0}, Scale: [3]float64{0.06, 0.04, 0.01}, Geometry: "box", Material: "silicon", Type: "chip", Color: "#718096"},
	},
	"laptop": {
		{ID: "lid", Name: "Display Lid", Position: [3]float64{0, 0.35, -0.02}, Scale: [3]float64{0.7, 0.45, 0.01}, Geometry: "box", Material: "glass", Type: "display", Color: "#1a1a2e"},
		{ID: "keyboard", Name: "Keyboard Deck", Position: [3]float64{0, -0.1, 0.02}, Scale: [3]float64{0.7, 0.3, 0.01}, Geometry: "roundedBox", Material: "plastic", Type: "input", Color: "#2d3748"},
		{ID: "mainboard", Name: "Logic Board", Position: [3]float64{0, -0.25, 0}, Scale: [3]float64{0.4, 0.15, 0.01}, Geometry: "roundedBox", Material: "pcb", Type: "board", Color: "#064e3b"},
		{ID: "battery", Name: "Battery Pack", Position: [3]float64{0, -0.45, 0}, Scale: [3]float64{0.5, 0.12, 0.02}, Geometry: "box", Material: "battery", Type: "power", Color: "#0f172a"},
		{ID: "fan", Name: "Cooling Fan", Position: [3]float64{0.25, -0.25, 0}, Scale: [3]float64{0.1, 0.1, 0.02}, Geometry: "cylinder", Material: "metal", Type: "thermal", Color: "#64748b"},
	},
	"automotive": {
		{ID: "chassis", Name: "Chassis", Position: [3]float64{0, 0, 0}, Scale: [3]float64{0.8, 0.25, 0.06}, Geometry: "roundedBox", Material: "metal", Type: "frame", Color: "#334155"},
		{ID: "engine", Name: "Engine Block", Position: [3]float64{0.25, 0.05, 0}, Scale: [3]float64{0.2, 0.15, 0.04}, Geometry: "box", Material: "metal", Type: "drivetrain", Color: "#475569"},
		{ID: "wheel_fl", Name: "Front Left Wheel", Position: [3]float64{0.3, -0.2, 0.03}, Scale: [3]float64{0.12, 0.12, 0.03}, Geometry: "cylinder", Material: "plastic", Type: "wheel", Color: "#111827", Rotation: [3]float64{0, 0, 1.5708}},
		{ID: "wheel_fr", Name: "Front Right Wheel", Position: [3]float64{0.3, -0.2, -0.03}, Scale: [3]float64{0.12, 0.12, 0.03}, Geometry: "cylinder", Material: "plastic", Type: "wheel", Color: "#111827", Rotation: [3]float64{0, 0, 1.5708}},
		{ID: "wheel_rl", Name: "Rear Left Wheel", Position: [3]float64{-0.3, -0.2, 0.03}, Scale: [3]float64{0.12, 0.12, 0.03}, Geometry: "cylinder", Material: "plastic", Type: "wheel", Color: "#111827", Rotation: [3]float64{0, 0, 1.5708}},
		{ID: "wheel_rr", Name: "Rear Right Wheel", Position: [3]float64{-0.3, -0.2, -0.03}, Scale: [3]float64{0.12, 0.12, 0.03}, Geometry: "cylinder", Material: "plastic", Type: "wheel", Color: "#111827", Rotation: [3]float64{0, 0, 1.5708}},
		{ID: "steering", Name: "Steering Wheel", Position: [3]float64{0.1, 0.15, 0.02}, Scale: [3]float64{0.08, 0.08, 0.02}, Geometry: "torus", Material: "plastic", Type: "control", Color: "#1e293b", Rotation: [3]float64{1.5708, 0, 0}},
	},
	"footwear": {
		{ID: "upper", Name: "Upper", Position: [3]float64{0, 0.1, 0}, Scale: [3]float64{0.5, 0.3, 0.04}, Geometry: "capsule", Material: "plastic", Type: "body", Color: "#7c2d12"},
		{ID: "sole", Name: "Sole", Position: [3]float64{0, -0.15, 0}, Scale: [3]float64{0.55, 0.08, 0.04}, Geometry: "roundedBox", Material: "plastic", Type: "base", Color: "#fafaf9"},
		{ID: "laces", Name: "Laces", Position: [3]float64{0, 0.25, 0.03}, Scale: [3]float64{0.25, 0.04, 0.01}, Geometry: "cylinder", Material: "plastic", Type: "fastening", Color: "#f5f5f4"},
		{ID: "insole", Name: "Insole", Position: [3]float64{0, -0.05, 0}, Scale: [3]float64{0.45, 0.02, 0.03}, Geometry: "box", Material: "plastic", Type: "comfort", Color: "#d6d3d1"},
		{ID: "heel", Name: "Heel Counter", Position: [3]float64{-0.2, 0.05, 0}, Scale: [3]float64{0.1, 0.15, 0.04}, Geometry: "roundedBox", Material: "plastic", Type: "support", Color: "#92400e"},
	},
}

// PlaceholderComponents returns the canned layout for the category, falling
// back to the smartphone catalog for unknown categories. The slice is a
// fresh copy; callers may annotate it freely.
func PlaceholderComponents(category string) []model.Component {
	catalog, ok := placeholderCatalogs[category]
	if !ok {
		catalog = placeholderCatalogs["smartphone"]
	}
	out := make([]model.Component, len(catalog))
	copy(out, catalog)
	for i := range out {
		out[i].Source = model.SourcePlaceholder
	}
	return out
}
