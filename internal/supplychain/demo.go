package supplychain

import "github.com/partscope/partscope/internal/model"

// DemoReport returns canned supply chain data for an iPhone 15 Pro. It backs
// demo requests and keeps the globe usable when no API key is configured.
func DemoReport() model.SupplyChainReport {
	report := model.SupplyChainReport{
		Product: "Apple iPhone 15 Pro",
		SupplyChain: []model.ComponentChain{
			{
				ComponentID:   "cpu",
				ComponentName: "A17 Pro Processor",
				Manufacturer:  "TSMC",
				ManufacturingLocations: []model.Facility{
					{Facility: "TSMC Fab 18", City: "Tainan", Country: "Taiwan", Lat: 22.9908, Lng: 120.2133, Type: "chip_fabrication"},
				},
				Suppliers: []model.Supplier{
					{Name: "ASML", Provides: "EUV Lithography", Country: "Netherlands"},
					{Name: "Applied Materials", Provides: "Chip Manufacturing Equipment", Country: "USA"},
				},
				RawMaterials: []model.Material{
					{Material: "Silicon Wafers", SourceCountry: "Taiwan", Lat: 25.0330, Lng: 121.5654},
					{Material: "Rare Earth Elements", SourceCountry: "China", Lat: 40.8516, Lng: 111.5246},
				},
				Certifications: []string{"ISO 14001", "IECQ QC 080000"},
			},
			{
				ComponentID:   "display",
				ComponentName: "Super Retina XDR OLED Display",
				Manufacturer:  "Samsung Display",
				ManufacturingLocations: []model.Facility{
					{Facility: "Samsung Display Asan", City: "Asan", Country: "South Korea", Lat: 36.7898, Lng: 127.0045, Type: "display_manufacturing"},
				},
				Suppliers: []model.Supplier{
					{Name: "Corning", Provides: "Cover Glass", Country: "USA"},
					{Name: "Universal Display", Provides: "OLED Materials", Country: "USA"},
				},
				RawMaterials: []model.Material{
					{Material: "Indium", SourceCountry: "China", Lat: 31.2304, Lng: 121.4737},
					{Material: "Glass Substrates", SourceCountry: "Japan", Lat: 35.6762, Lng: 139.6503},
				},
				Certifications: []string{"ISO 14001", "RoHS"},
			},
			{
				ComponentID:   "battery",
				ComponentName: "Lithium-ion Battery",
				Manufacturer:  "ATL/BYD",
				ManufacturingLocations: []model.Facility{
					{Facility: "ATL Ningde Factory", City: "Ningde", Country: "China", Lat: 26.6617, Lng: 119.5283, Type: "battery_manufacturing"},
					{Facility: "BYD Shenzhen", City: "Shenzhen", Country: "China", Lat: 22.5431, Lng: 114.0579, Type: "battery_manufacturing"},
				},
				Suppliers: []model.Supplier{
					{Name: "Ganfeng Lithium", Provides: "Lithium Compounds", Country: "China"},
					{Name: "CATL", Provides: "Battery Cells", Country: "China"},
				},
				RawMaterials: []model.Material{
					{Material: "Lithium", SourceCountry: "Australia", Lat: -31.9505, Lng: 115.8605},
					{Material: "Cobalt", SourceCountry: "DR Congo", Lat: -4.4419, Lng: 15.2663},
					{Material: "Nickel", SourceCountry: "Indonesia", Lat: -0.7893, Lng: 113.9213},
				},
				Certifications: []string{"ISO 14001", "UL 2054"},
			},
			{
				ComponentID:   "camera_main",
				ComponentName: "48MP Main Camera Sensor",
				Manufacturer:  "Sony",
				ManufacturingLocations: []model.Facility{
					{Facility: "Sony Kumamoto Factory", City: "Kumamoto", Country: "Japan", Lat: 32.7898, Lng: 130.7417, Type: "sensor_fabrication"},
				},
				Suppliers: []model.Supplier{
					{Name: "Canon", Provides: "Lens Elements", Country: "Japan"},
				},
				RawMaterials: []model.Material{
					{Material: "Silicon", SourceCountry: "Japan", Lat: 35.6762, Lng: 139.6503},
					{Material: "Optical Glass", SourceCountry: "Germany", Lat: 50.9375, Lng: 6.9603},
				},
				Certifications: []string{"ISO 14001"},
			},
			{
				ComponentID:   "memory",
				ComponentName: "8GB LPDDR5 RAM",
				Manufacturer:  "SK Hynix",
				ManufacturingLocations: []model.Facility{
					{Facility: "SK Hynix Icheon", City: "Icheon", Country: "South Korea", Lat: 37.2792, Lng: 127.4425, Type: "memory_fabrication"},
				},
				Suppliers: []model.Supplier{
					{Name: "Lam Research", Provides: "Etch Equipment", Country: "USA"},
				},
				RawMaterials: []model.Material{
					{Material: "Silicon Wafers", SourceCountry: "South Korea", Lat: 37.5665, Lng: 126.9780},
					{Material: "Copper", SourceCountry: "Chile", Lat: -33.4489, Lng: -70.6693},
				},
				Certifications: []string{"ISO 14001", "ISO 50001"},
			},
		},
		AssemblyLocation: model.Facility{
			Facility: "Foxconn Zhengzhou",
			City:     "Zhengzhou",
			Country:  "China",
			Lat:      34.7466,
			Lng:      113.6253,
			Type:     "final_assembly",
		},
		TotalCountries:      9,
		SustainabilityScore: 72,
		Demo:                true,
	}
	report.Globe = BuildGlobe(report)
	return report
}
