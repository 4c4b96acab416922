package segment

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/partscope/partscope/internal/model"
	"github.com/partscope/partscope/pkg/sam"
)

// State tracks a discovery run's progress. Runs only move forward; a
// failed run never produces partial output and a done run never loses it.
type State string

const (
	StateIdle         State = "idle"
	StateModelLoading State = "model_loading"
	StateSampling     State = "sampling"
	StateMerging      State = "merging"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Result is the outcome of one discovery run. Success means the run found
// enough distinct regions to stand on its own; callers with a Success=false
// result fall back to generated or placeholder components.
type Result struct {
	Components []model.Component
	Success    bool
	State      State
	Device     string
	PointsUsed int
	Elapsed    time.Duration
}

// Discoverer runs point-prompted segmentation over an image and distills
// the raw masks into a deduplicated component list.
type Discoverer struct {
	manager *Manager
	params  Params
}

func NewDiscoverer(manager *Manager, params Params) *Discoverer {
	return &Discoverer{manager: manager, params: params}
}

// Discover probes the image with a regular point grid, extracts one best
// candidate per point, and merges nearby candidates. Batch failures are
// logged and skipped so one bad batch cannot sink the run; only a failed
// model load fails the whole run.
func (d *Discoverer) Discover(ctx context.Context, imageJPEG []byte, width, height int) (Result, error) {
	start := time.Now()
	res := Result{State: StateModelLoading}

	handle, err := d.manager.Acquire(ctx)
	if err != nil {
		res.State = StateFailed
		return res, eris.Wrap(err, "segment: discover")
	}
	defer handle.Release()

	res.Device = handle.Device()
	batchSize := d.params.BatchSizeCPU
	if handle.GPUClass() {
		batchSize = d.params.BatchSizeGPU
	}

	points := GridPoints(width, height, d.params.GridSize)
	res.PointsUsed = len(points)
	res.State = StateSampling

	var candidates []Candidate
	for i := 0; i < len(points); i += batchSize {
		end := i + batchSize
		if end > len(points) {
			end = len(points)
		}
		batch := points[i:end]

		resp, err := handle.Segment(ctx, sam.SegmentRequest{ImageJPEG: imageJPEG, Points: batch})
		if err != nil {
			if ctx.Err() != nil {
				res.State = StateFailed
				return res, eris.Wrap(ctx.Err(), "segment: discover canceled")
			}
			zap.L().Warn("segment: batch failed, skipping",
				zap.Int("offset", i),
				zap.Int("size", len(batch)),
				zap.Error(err),
			)
			continue
		}

		for _, pr := range resp.Results {
			if c, ok := extractCandidate(pr, resp.Width, resp.Height, d.params); ok {
				candidates = append(candidates, c)
			}
		}
	}

	res.State = StateMerging
	merger := NewMerger(d.params.MergeRadius, d.params.FixedDepth)
	for _, c := range candidates {
		merger.Add(c)
	}
	res.Components = merger.Components()

	res.Success = len(res.Components) >= d.params.MinComponents
	res.State = StateDone
	res.Elapsed = time.Since(start)

	zap.L().Info("segment: discovery complete",
		zap.Int("points", res.PointsUsed),
		zap.Int("candidates", len(candidates)),
		zap.Int("components", len(res.Components)),
		zap.Bool("success", res.Success),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}
