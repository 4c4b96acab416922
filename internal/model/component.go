// Package model defines the domain types shared across the discovery pipeline.
package model

// Source identifies which pipeline stage produced a component.
type Source string

const (
	SourceSegmented   Source = "segmented"
	SourceGenerated   Source = "generated"
	SourcePlaceholder Source = "placeholder"
)

// Method identifies the cascade tier that produced a ComponentSet.
type Method string

const (
	MethodSegmented   Method = "segmented+enriched"
	MethodGenerated   Method = "generated"
	MethodPlaceholder Method = "placeholder"
)

// Component is one discovered or generated internal part of a product,
// positioned in normalized scene space (x/y in [-1,1], heuristic z).
type Component struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Position   [3]float64 `json:"position"`
	Scale      [3]float64 `json:"scale"`
	Geometry   string     `json:"geometry,omitempty"`
	Material   string     `json:"material,omitempty"`
	Type       string     `json:"type,omitempty"`
	Color      string     `json:"color,omitempty"`
	Rotation   [3]float64 `json:"rotation"`
	Confidence float64    `json:"confidence,omitempty"`
	Source     Source     `json:"source"`
}

// ImageCenter returns the component center in normalized [0,1] image space,
// inverting the scene-space mapping (x,y) = ((cx-0.5)*2, (0.5-cy)*2).
func (c Component) ImageCenter() (x, y float64) {
	return c.Position[0]/2 + 0.5, 0.5 - c.Position[1]/2
}

// ComponentSet is the finalized, ordered result of one discovery request.
// It is immutable once returned and is persisted verbatim as the cached
// artifact.
type ComponentSet struct {
	Components       []Component `json:"components"`
	DeviceType       string      `json:"device_type"`
	Method           Method      `json:"method"`
	ProcessingTimeMs int64       `json:"processing_time_ms"`
	Cached           bool        `json:"cached"`
	Note             string      `json:"note,omitempty"`
}

// ProductInfo carries the product metadata supplied with a request.
type ProductInfo struct {
	Brand    string `json:"brand,omitempty"`
	Model    string `json:"model,omitempty"`
	Category string `json:"category,omitempty"`
}

// CategoryOrDefault returns the product category, falling back to the
// given default when empty.
func (p ProductInfo) CategoryOrDefault(def string) string {
	if p.Category == "" {
		return def
	}
	return p.Category
}

// Identification is the product identification result from the vision model.
type Identification struct {
	Brand      string      `json:"brand"`
	Model      string      `json:"model"`
	Category   string      `json:"category"`
	Year       string      `json:"year,omitempty"`
	Confidence float64     `json:"confidence"`
	Components []KnownPart `json:"components,omitempty"`
	Cached     bool        `json:"cached"`
}

// KnownPart is a catalog entry for a product's known internal component.
type KnownPart struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Description  string `json:"description,omitempty"`
}
