package cascade

import (
	"fmt"
	"strings"
)

// extractJSON pulls the JSON document out of a model reply, tolerating prose
// or markdown fences around it. The document spans the first '{' to the
// last '}'.
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// enrichSystemPrompt is the fixed instruction set for the enrichment tier.
// It is identical across batches and runs, so it is sent as a cached system
// block and only the component list travels in the user turn.
const enrichSystemPrompt = `You identify the internal components of consumer products from their positions and sizes, and assign each a 3D geometry type.

CRITICAL VISUAL RULES (INDUSTRIAL DESIGN):
1. NO GENERIC BOXES: unless it is a screen or battery, do not use "box".
2. USE "roundedBox" for chips, boards, modules, and cases.
3. USE "cylinder" for ANY circular part (wheels, fans, capacitors, screws, lenses).
4. USE "torus" for tires, rings, gaskets, or circular frames.
5. USE "capsule" for tanks, handles, or organic shapes.

ACCURACY RULES:
1. ROTATION IS KEY:
   - Wheels/Tires MUST be rotated [0, 0, 1.5708] (90 deg on Z) to face outward.
   - Steering wheels/Rings MUST be rotated [1.5708, 0, 0] (90 deg on X) to face up/forward.
2. NAMING: use specific, technical names (e.g., "A15 Bionic", "Li-Ion Cell", "V8 Block", "Brembo Caliper").
3. MATERIALS: assign "metal", "glass", "plastic", "silicon", "battery", "pcb" correctly.

GEOMETRY & MATERIAL MAPPING:
- Wheels -> "cylinder" (rotated) OR "torus" (for the tire part), material: "plastic" (rubber)
- Chips -> "roundedBox", material: "silicon", color: "#111827"
- PCB -> "roundedBox", material: "pcb", color: "#064e3b"
- Battery -> "box", material: "battery", color: "#0f172a"
- Lens -> "cylinder", material: "glass", color: "#e2e8f0"
- Frame -> "roundedBox" or "capsule", material: "metal", color: "#64748b"

Return a JSON object mapping component IDs to their new attributes:
{
    "sam_0": { "name": "...", "geometry": "...", "material": "...", "color": "...", "rotation": [x, y, z] },
    "sam_1": { ... }
}
`

func enrichPrompt(brand, productModel, category, componentJSON string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I have analyzed an image of a %s %s (%s) and detected %d internal components using AI segmentation.\n\n", brand, productModel, category, count)
	fmt.Fprintf(&b, "Here is the list of detected components with their normalized 2D positions (x, y from -1 to 1) and sizes (width, height from 0 to 1):\n%s\n\n", componentJSON)
	fmt.Fprintf(&b, "Your task is to IDENTIFY what each component likely is based on its position and size in a typical %s, and assign it a 3D geometry type.\n", category)
	return b.String()
}

// generateSystemPrompt holds the fixed rules of the generative tier. Like
// the enrichment instructions it never varies, so it rides in a cached
// system block.
const generateSystemPrompt = `You generate photorealistic 3D component layouts of consumer products based on actual teardown data.

CRITICAL RULES:
1. DO NOT use the original product image/appearance for internal components
2. Generate components based on REAL teardown data
3. Use varied geometry types - NOT just boxes/cubes
4. Only the OUTER SHELL should represent the actual device appearance
5. Internal components should look like ACTUAL parts with proper materials

POSITIONING COORDINATE SYSTEM:
- X: -0.4 to +0.4 (left to right, 0 is center)
- Y: -0.6 to +0.6 (bottom to top, 0 is center)
- Z: -0.06 (rear/bottom) -> 0.00 (center) -> +0.04 (front/top)

CRITICAL POSITIONING RULES:
1. Components MUST NOT overlap - space them appropriately
2. Use the FULL coordinate range - don't cluster everything in the center
3. Position based on ACTUAL device layout from teardowns

REQUIRED COMPONENTS (30-60 parts) with ACCURATE proportions and GEOMETRY.

MANDATORY: include a "Shell", "Body", "Chassis", or "Frame" component that represents the EXTERIOR of the object.

IF AUTOMOTIVE/CAR:
- Chassis/Body: geometry "box" or "roundedBox", large scale (this is the SHELL)
- Wheels: geometry "cylinder", rotation [0, 0, 1.5708], 4 positions
- Engine Block: geometry "box", detailed, front/rear position
- Seats: geometry "roundedBox" or "capsule"
- Steering Wheel: geometry "torus"

IF ELECTRONICS (Phone/Laptop):
- Main Housing/Shell: geometry "roundedBox", large scale (this is the SHELL)
- Display Assembly: geometry "box", thin
- Logic Board: geometry "box", green/blue PCB
- Battery: geometry "box", black/grey
- Chips: geometry "roundedBox", black

IF CLOTHING/FOOTWEAR:
- Main Body/Upper: geometry "roundedBox" or "capsule" (this is the SHELL)
- Sole: geometry "roundedBox", bottom
- Laces: geometry "cylinder", thin

Use REALISTIC DEVICE-SPECIFIC COLORS.

GEOMETRY TYPES (choose the appropriate shape for each part):
- "box" - rectangular (display, battery, PCB, frame segments, chassis)
- "cylinder" - round (wheels, camera lens, screws, ports, buttons, exhaust)
- "sphere" - ball-shaped (smaller chips, connectors, joints)
- "capsule" - rounded cylinder (speakers, microphones, battery cells, seats)
- "roundedBox" - smooth edges (main processor, larger chips, body panels)
- "torus" - ring-shaped (speaker grills, camera rings, steering wheels, tires)
`

func generatePrompt(brand, productModel, category string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this %s %s (%s) and generate a PHOTOREALISTIC 3D component layout based on ACTUAL TEARDOWNS.\n\n", brand, productModel, category)
	fmt.Fprintf(&b, "IMPORTANT: adjust component types based on the category '%s'.\n\n", category)
	b.WriteString("Output ONLY valid JSON (no markdown):\n")
	fmt.Fprintf(&b, `{
    "device_type": "%s",
    "components": [
        {
            "id": "unique_id",
            "name": "Specific Part (e.g. 'V6 Engine Block', 'Front Left Tire')",
            "position": [x, y, z],
            "scale": [w, h, d],
            "geometry": "box|cylinder|sphere|capsule|roundedBox|torus",
            "material": "type",
            "type": "category",
            "color": "#hex",
            "rotation": [rx, ry, rz]
        }
    ]
}
`, category)
	return b.String()
}
