// Package sam provides a typed client for the segmentation sidecar, which
// hosts the point-promptable mask model behind a small HTTP API.
package sam

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/partscope/partscope/internal/resilience"
)

// Precision selects the numeric precision the sidecar loads the model with.
type Precision string

const (
	PrecisionFP16 Precision = "fp16"
	PrecisionFP32 Precision = "fp32"
)

// Client is the sidecar API used by the model lifecycle manager and the
// batch inference runner.
type Client interface {
	// Health reports sidecar reachability, its accelerator device
	// ("cuda", "mps" or "cpu") and whether a model is currently resident.
	Health(ctx context.Context) (*Health, error)

	// Load makes the model resident. Idempotent on the sidecar side.
	Load(ctx context.Context, req LoadRequest) error

	// Unload frees the model and forces accelerator cache cleanup.
	// Safe to call when nothing is loaded.
	Unload(ctx context.Context) error

	// Segment runs one batch of prompt points through the resident model.
	Segment(ctx context.Context, req SegmentRequest) (*SegmentResponse, error)
}

// Health is the sidecar health report. ModelAvailable reflects whether the
// configured weights are present on disk; ModelLoaded whether they are
// currently resident in memory.
type Health struct {
	Status         string `json:"status"`
	Device         string `json:"device"`
	ModelAvailable bool   `json:"model_available"`
	ModelLoaded    bool   `json:"model_loaded"`
}

// GPUClass reports whether the device benefits from reduced precision.
func (h *Health) GPUClass() bool {
	return h.Device == "cuda" || h.Device == "mps"
}

// LoadRequest asks the sidecar to load a model.
type LoadRequest struct {
	ModelID   string    `json:"model_id"`
	Precision Precision `json:"precision"`
}

// SegmentRequest carries one inference batch. Points are pixel coordinates
// in the supplied image.
type SegmentRequest struct {
	ImageJPEG []byte   `json:"-"`
	Points    [][2]int `json:"points"`
}

// segmentWire is the JSON shape actually sent to the sidecar.
type segmentWire struct {
	Image  string   `json:"image"`
	Points [][2]int `json:"points"`
}

// CandidateMask is one mask proposal for a prompt point. Counts is a
// row-major run-length encoding over the full image grid, alternating runs
// of background and foreground pixels and starting with background.
type CandidateMask struct {
	Score  float64 `json:"score"`
	Counts []int   `json:"counts"`
}

// PointResult holds the candidate masks for one prompt point, in the order
// the point appeared in the request.
type PointResult struct {
	Masks []CandidateMask `json:"masks"`
}

// SegmentResponse is the sidecar's answer for one batch.
type SegmentResponse struct {
	Width   int           `json:"width"`
	Height  int           `json:"height"`
	Results []PointResult `json:"results"`
}

// Option configures the client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.httpClient = hc }
}

// WithRateLimit caps segment requests per second to avoid overrunning the
// sidecar's single inference queue.
func WithRateLimit(rps float64) Option {
	return func(c *client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithRetry overrides the retry policy for transient sidecar failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *client) { c.retry = cfg }
}

type client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// NewClient creates a sidecar client for the given base URL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		limiter:    rate.NewLimiter(4, 1),
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, eris.Wrap(err, "sam: health")
	}
	return &h, nil
}

func (c *client) Load(ctx context.Context, req LoadRequest) error {
	err := resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		return c.doJSON(ctx, http.MethodPost, "/model/load", req, nil)
	})
	return eris.Wrap(err, "sam: load model")
}

func (c *client) Unload(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/model/unload", nil, nil); err != nil {
		return eris.Wrap(err, "sam: unload model")
	}
	return nil
}

func (c *client) Segment(ctx context.Context, req SegmentRequest) (*SegmentResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "sam: rate limit wait")
	}

	wire := segmentWire{
		Image:  base64.StdEncoding.EncodeToString(req.ImageJPEG),
		Points: req.Points,
	}

	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*SegmentResponse, error) {
		var sr SegmentResponse
		if err := c.doJSON(ctx, http.MethodPost, "/segment", wire, &sr); err != nil {
			return nil, err
		}
		return &sr, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "sam: segment")
	}
	if len(resp.Results) != len(req.Points) {
		return nil, eris.Errorf("sam: result count %d does not match point count %d",
			len(resp.Results), len(req.Points))
	}
	return resp, nil
}

// doJSON performs one request/response cycle. Server-side failures are
// classified as transient so the retry layer can act on them.
func (c *client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := eris.Errorf("sidecar returned %d: %s", resp.StatusCode, string(data))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}
