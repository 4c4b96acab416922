package segment

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/partscope/partscope/internal/model"
	"github.com/partscope/partscope/internal/resilience"
	"github.com/partscope/partscope/pkg/sam"
)

// Manager owns the segmentation model's residency. At most one model is
// resident process-wide; concurrent discovery runs share it through
// refcounted handles, and the last release unloads it so memory stays
// bounded between requests.
type Manager struct {
	client  sam.Client
	modelID string
	breaker *resilience.CircuitBreaker

	mu     sync.Mutex
	refs   int
	device string

	// inferMu serializes inference: the sidecar runs a single model
	// instance and interleaved batches would queue there anyway.
	inferMu sync.Mutex
}

// NewManager creates a lifecycle manager for the given sidecar client.
func NewManager(client sam.Client, modelID string) *Manager {
	return &Manager{
		client:  client,
		modelID: modelID,
		breaker: resilience.NewCircuitBreaker(3, 30*time.Second),
	}
}

// Handle is a refcounted lease on the resident model.
type Handle struct {
	m        *Manager
	released bool
	relMu    sync.Mutex
}

// Acquire makes the model resident if it is not already and returns a
// handle. Load failures are reported as model.ErrModelUnavailable; callers
// treat that as "discovery unavailable" and fall through to the cascade.
func (m *Manager) Acquire(ctx context.Context) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refs > 0 {
		m.refs++
		return &Handle{m: m}, nil
	}

	if err := m.breaker.Allow(); err != nil {
		return nil, eris.Wrap(model.ErrModelUnavailable, "segment: load circuit open")
	}

	err := m.load(ctx)
	m.breaker.Record(err)
	if err != nil {
		zap.L().Warn("segment: model load failed", zap.String("model", m.modelID), zap.Error(err))
		return nil, eris.Wrapf(model.ErrModelUnavailable, "segment: load %s", m.modelID)
	}

	m.refs = 1
	return &Handle{m: m}, nil
}

// load must be called with m.mu held.
func (m *Manager) load(ctx context.Context) error {
	health, err := m.client.Health(ctx)
	if err != nil {
		return err
	}
	if !health.ModelAvailable {
		return eris.Errorf("model %s not available on sidecar", m.modelID)
	}

	precision := sam.PrecisionFP32
	if health.GPUClass() {
		precision = sam.PrecisionFP16
	}
	m.device = health.Device

	if err := m.client.Load(ctx, sam.LoadRequest{ModelID: m.modelID, Precision: precision}); err != nil {
		return err
	}

	zap.L().Info("segment: model loaded",
		zap.String("model", m.modelID),
		zap.String("device", health.Device),
		zap.String("precision", string(precision)),
	)
	return nil
}

// Available reports whether a discovery run could currently load the model.
// It is the basis of the service's status endpoint.
func (m *Manager) Available(ctx context.Context) bool {
	if m.breaker.State() == resilience.CircuitOpen {
		return false
	}
	health, err := m.client.Health(ctx)
	if err != nil {
		return false
	}
	return health.ModelAvailable
}

// Device returns the accelerator the model was loaded on.
func (h *Handle) Device() string {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	return h.m.device
}

// GPUClass reports whether the resident model runs on a GPU-class device.
func (h *Handle) GPUClass() bool {
	d := h.Device()
	return d == "cuda" || d == "mps"
}

// Segment runs one batch through the resident model. The model is used
// exclusively for the duration of the call.
func (h *Handle) Segment(ctx context.Context, req sam.SegmentRequest) (*sam.SegmentResponse, error) {
	h.m.inferMu.Lock()
	defer h.m.inferMu.Unlock()
	return h.m.client.Segment(ctx, req)
}

// Release drops the lease. The last release unloads the model and is safe
// to call more than once; unload errors are logged, not returned, because
// the discovery result is already decided by then.
func (h *Handle) Release() {
	h.relMu.Lock()
	defer h.relMu.Unlock()
	if h.released {
		return
	}
	h.released = true

	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	h.m.refs--
	if h.m.refs > 0 {
		return
	}
	h.m.refs = 0

	if err := h.m.client.Unload(context.Background()); err != nil {
		zap.L().Warn("segment: model unload failed", zap.Error(err))
		return
	}
	zap.L().Info("segment: model unloaded")
}
