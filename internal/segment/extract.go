package segment

import (
	"github.com/partscope/partscope/internal/model"
	"github.com/partscope/partscope/pkg/sam"
)

// Params tunes the discovery pass. The values are part of the observable
// contract: they participate in cache keys and reproducibility guarantees.
type Params struct {
	GridSize      int
	QualityFloor  float64
	MinBoxExtent  float64
	MaxBoxExtent  float64
	MergeRadius   float64
	MinComponents int
	FixedDepth    float64
	BatchSizeGPU  int
	BatchSizeCPU  int
}

// DefaultParams returns the stock discovery parameters.
func DefaultParams() Params {
	return Params{
		GridSize:      6,
		QualityFloor:  0.70,
		MinBoxExtent:  0.05,
		MaxBoxExtent:  0.9,
		MergeRadius:   0.1,
		MinComponents: 5,
		FixedDepth:    0.02,
		BatchSizeGPU:  12,
		BatchSizeCPU:  4,
	}
}

// Candidate is a filtered detection awaiting dedup, expressed in normalized
// [0,1] image space.
type Candidate struct {
	CenterX    float64
	CenterY    float64
	Width      float64
	Height     float64
	Confidence float64
}

// Component maps the candidate into scene space: x/y in [-1,1] with the
// image's downward Y becoming the scene's upward Y, and a heuristic depth
// of half the normalized bbox area.
func (c Candidate) Component(fixedDepth float64) model.Component {
	return model.Component{
		Position:   [3]float64{(c.CenterX - 0.5) * 2, (0.5 - c.CenterY) * 2, 0.5 * c.Width * c.Height},
		Scale:      [3]float64{c.Width, c.Height, fixedDepth},
		Confidence: c.Confidence,
		Source:     model.SourceSegmented,
	}
}

// extractCandidate selects the highest-scoring mask for one prompt point and
// converts it to a Candidate. It returns false when the point produces
// nothing usable: no masks, a score under the quality floor, a mask covering
// essentially the whole image, or a sliver too small to be a real part.
func extractCandidate(pr sam.PointResult, imgWidth, imgHeight int, p Params) (Candidate, bool) {
	best := -1
	for i, m := range pr.Masks {
		if best < 0 || m.Score > pr.Masks[best].Score {
			best = i
		}
	}
	if best < 0 {
		return Candidate{}, false
	}

	m := pr.Masks[best]
	if m.Score < p.QualityFloor {
		return Candidate{}, false
	}

	b, ok := maskBounds(m.Counts, imgWidth, imgHeight)
	if !ok {
		return Candidate{}, false
	}

	w := float64(b.XMax-b.XMin) / float64(imgWidth)
	h := float64(b.YMax-b.YMin) / float64(imgHeight)

	// Whole-image masks are the object itself, not a sub-component.
	if w > p.MaxBoxExtent && h > p.MaxBoxExtent {
		return Candidate{}, false
	}
	// Acceptance requires strictly exceeding the noise floor on both axes.
	if w <= p.MinBoxExtent || h <= p.MinBoxExtent {
		return Candidate{}, false
	}

	return Candidate{
		CenterX:    (float64(b.XMin+b.XMax) / 2) / float64(imgWidth),
		CenterY:    (float64(b.YMin+b.YMax) / 2) / float64(imgHeight),
		Width:      w,
		Height:     h,
		Confidence: m.Score,
	}, true
}
