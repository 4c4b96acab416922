package segment

import (
	"fmt"
	"math"

	"github.com/partscope/partscope/internal/model"
)

// Merger collapses spatially close candidates into one component, preferring
// higher confidence. Candidates must be fed in prompt-point order: component
// ids are dense (`sam_<n>`) and depend on acceptance order, which is part of
// the reproducibility contract.
//
// Distances are measured in raw normalized [0,1] image space regardless of
// aspect ratio.
type Merger struct {
	radius     float64
	fixedDepth float64
	accepted   []model.Component
}

// NewMerger creates a Merger with the given merge radius.
func NewMerger(radius, fixedDepth float64) *Merger {
	return &Merger{radius: radius, fixedDepth: fixedDepth}
}

// Add feeds one candidate into the merge. If the nearest accepted component
// lies within the merge radius the candidate is treated as a duplicate: a
// higher-confidence duplicate overwrites the existing component's x/y
// position, scale and confidence (depth is retained), a lower-confidence one
// is discarded. Otherwise the candidate is appended as a new component.
func (m *Merger) Add(c Candidate) {
	nearest := -1
	nearestDist := math.MaxFloat64
	for i := range m.accepted {
		ex, ey := m.accepted[i].ImageCenter()
		if d := math.Hypot(c.CenterX-ex, c.CenterY-ey); d < nearestDist {
			nearest = i
			nearestDist = d
		}
	}

	if nearest >= 0 && nearestDist < m.radius {
		existing := &m.accepted[nearest]
		if c.Confidence > existing.Confidence {
			existing.Position[0] = (c.CenterX - 0.5) * 2
			existing.Position[1] = (0.5 - c.CenterY) * 2
			existing.Scale = [3]float64{c.Width, c.Height, m.fixedDepth}
			existing.Confidence = c.Confidence
		}
		return
	}

	comp := c.Component(m.fixedDepth)
	comp.ID = fmt.Sprintf("sam_%d", len(m.accepted))
	comp.Name = fmt.Sprintf("Component %d", len(m.accepted)+1)
	m.accepted = append(m.accepted, comp)
}

// Components returns the accepted components in acceptance order.
func (m *Merger) Components() []model.Component {
	return m.accepted
}
