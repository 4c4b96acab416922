package model

// Facility is a named manufacturing or assembly site. Coordinates are zero
// until geocoding resolves the place.
type Facility struct {
	Facility string  `json:"facility,omitempty"`
	City     string  `json:"city,omitempty"`
	Country  string  `json:"country,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
	Type     string  `json:"type,omitempty"`
}

// Located reports whether the facility has resolved coordinates.
func (f Facility) Located() bool {
	return f.Lat != 0 || f.Lng != 0
}

// Supplier is one upstream vendor in a component's supply chain.
type Supplier struct {
	Name     string `json:"name"`
	Provides string `json:"provides,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Material is a raw material input and its source location.
type Material struct {
	Material      string  `json:"material"`
	SourceCountry string  `json:"source_country,omitempty"`
	SourceRegion  string  `json:"source_region,omitempty"`
	Lat           float64 `json:"lat,omitempty"`
	Lng           float64 `json:"lng,omitempty"`
}

// Located reports whether the material source has resolved coordinates.
func (m Material) Located() bool {
	return m.Lat != 0 || m.Lng != 0
}

// ComponentChain is the researched supply chain for one component.
type ComponentChain struct {
	ComponentID            string     `json:"component_id"`
	ComponentName          string     `json:"component_name"`
	Manufacturer           string     `json:"manufacturer,omitempty"`
	ManufacturingLocations []Facility `json:"manufacturing_locations,omitempty"`
	Suppliers              []Supplier `json:"suppliers,omitempty"`
	RawMaterials           []Material `json:"raw_materials,omitempty"`
	Certifications         []string   `json:"certifications,omitempty"`
	SustainabilityNotes    string     `json:"sustainability_notes,omitempty"`
	Error                  string     `json:"error,omitempty"`
}

// GlobeNode is one point rendered on the supply chain globe.
type GlobeNode struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	Type          string  `json:"type"`
	Size          float64 `json:"size"`
	Color         string  `json:"color"`
	Component     string  `json:"component,omitempty"`
	SourceCountry string  `json:"source_country,omitempty"`
}

// GlobeArc is one flow line between globe nodes.
type GlobeArc struct {
	StartLat float64 `json:"startLat"`
	StartLng float64 `json:"startLng"`
	EndLat   float64 `json:"endLat"`
	EndLng   float64 `json:"endLng"`
	Color    string  `json:"color"`
	Weight   int     `json:"weight"`
	Label    string  `json:"label,omitempty"`
	Type     string  `json:"type"`
}

// GlobeStats summarizes the globe payload.
type GlobeStats struct {
	TotalNodes         int `json:"total_nodes"`
	TotalArcs          int `json:"total_arcs"`
	ManufacturingSites int `json:"manufacturing_sites"`
	MaterialSources    int `json:"material_sources"`
}

// GlobeData is the visualization payload derived from a supply chain report.
type GlobeData struct {
	Nodes []GlobeNode `json:"nodes"`
	Arcs  []GlobeArc  `json:"arcs"`
	Stats GlobeStats  `json:"stats"`
}

// SupplyChainReport is the full researched supply chain for one product.
type SupplyChainReport struct {
	Product             string           `json:"product"`
	SupplyChain         []ComponentChain `json:"supply_chain"`
	AssemblyLocation    Facility         `json:"assembly_location"`
	TotalCountries      int              `json:"total_countries"`
	SustainabilityScore int              `json:"sustainability_score,omitempty"`
	Globe               GlobeData        `json:"globe_data"`
	Demo                bool             `json:"demo,omitempty"`
	Cached              bool             `json:"cached"`
}
