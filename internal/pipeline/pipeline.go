// Package pipeline wires image storage, segmentation, the cascade, and the
// result cache into the operations the CLI and HTTP server expose.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/partscope/partscope/internal/cascade"
	"github.com/partscope/partscope/internal/config"
	"github.com/partscope/partscope/internal/model"
	"github.com/partscope/partscope/internal/segment"
	"github.com/partscope/partscope/internal/store"
	"github.com/partscope/partscope/pkg/anthropic"
)

// discoverer runs one segmentation pass over an image.
type discoverer interface {
	Discover(ctx context.Context, imageJPEG []byte, width, height int) (segment.Result, error)
}

// availability reports whether the segmentation model could be loaded now.
type availability interface {
	Available(ctx context.Context) bool
}

// cascader turns discovery output into a guaranteed component set.
type cascader interface {
	Run(ctx context.Context, imageJPEG []byte, info model.ProductInfo, discovered []model.Component, discoveryOK bool) model.ComponentSet
}

// images is the slice of the upload store the pipeline needs.
type images interface {
	Load(id string) ([]byte, error)
	Dims(id string) (width, height int, err error)
}

// researcher produces supply chain reports for identified products.
type researcher interface {
	Research(ctx context.Context, info model.ProductInfo, parts []model.KnownPart) (model.SupplyChainReport, error)
}

// Pipeline orchestrates component discovery end to end.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	images   images
	discover discoverer
	avail    availability
	cascade  cascader
	research researcher
	llm      anthropic.Client
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	st store.Store,
	imgs images,
	disc discoverer,
	avail availability,
	casc cascader,
	res researcher,
	aiClient anthropic.Client,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		images:   imgs,
		discover: disc,
		avail:    avail,
		cascade:  casc,
		research: res,
		llm:      aiClient,
	}
}

// DiscoverComponents produces the component set for a stored image. The
// result cache is consulted first unless force is set; cache IO failures
// degrade to an uncached answer. The only error a caller can see is an
// unreadable image. Every other failure is absorbed by the cascade.
func (p *Pipeline) DiscoverComponents(ctx context.Context, imageID string, info model.ProductInfo, force bool) (model.ComponentSet, error) {
	log := zap.L().With(zap.String("image_id", imageID), zap.String("category", info.CategoryOrDefault("device")))
	start := time.Now()

	imageJPEG, err := p.images.Load(imageID)
	if err != nil {
		return model.ComponentSet{}, eris.Wrap(err, "pipeline: load image")
	}
	width, height, err := p.images.Dims(imageID)
	if err != nil {
		return model.ComponentSet{}, eris.Wrap(err, "pipeline: image dimensions")
	}

	key := p.cacheKey(imageID, info)
	if !force {
		cached, cacheErr := p.store.GetResult(ctx, key)
		if cacheErr != nil {
			log.Warn("pipeline: cache read failed, proceeding uncached",
				zap.Error(eris.Wrap(model.ErrCacheIO, cacheErr.Error())))
		} else if cached != nil {
			cached.Cached = true
			log.Info("pipeline: cache hit", zap.String("method", string(cached.Method)))
			return *cached, nil
		}
	}

	var discovered []model.Component
	discoveryOK := false
	res, discErr := p.discover.Discover(ctx, imageJPEG, width, height)
	if discErr != nil {
		log.Warn("pipeline: segmentation unavailable, cascading", zap.Error(discErr))
	} else {
		discovered = res.Components
		discoveryOK = res.Success
		if !res.Success {
			log.Info("pipeline: too few segmented components, cascading",
				zap.Int("found", len(res.Components)))
		}
	}

	set := p.cascade.Run(ctx, imageJPEG, info, discovered, discoveryOK)
	set.ProcessingTimeMs = time.Since(start).Milliseconds()
	set.Cached = false

	if cacheErr := p.store.SetResult(ctx, key, set, p.cfg.Store.ResultTTL()); cacheErr != nil {
		log.Warn("pipeline: cache write failed",
			zap.Error(eris.Wrap(model.ErrCacheIO, cacheErr.Error())))
	}

	log.Info("pipeline: discovery finished",
		zap.String("method", string(set.Method)),
		zap.Int("components", len(set.Components)),
		zap.Int64("elapsed_ms", set.ProcessingTimeMs),
	)
	return set, nil
}

// cacheKey binds a cached result to the image content and every parameter
// that changes the output.
func (p *Pipeline) cacheKey(imageID string, info model.ProductInfo) string {
	d := p.cfg.Discovery
	raw := fmt.Sprintf("%s|%s|%s|%s|%d|%.2f|%.2f|%d",
		imageID, info.Brand, info.Model, info.CategoryOrDefault("device"),
		d.GridSize, d.QualityFloor, d.MergeRadius, d.MinComponents,
	)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Status describes what the pipeline can currently do.
type Status struct {
	SegmentationAvailable bool `json:"segmentation_available"`
	CachedResults         int  `json:"cached_results"`
}

// CurrentStatus probes the segmentation sidecar and the result cache. Cache
// errors zero the count rather than failing the probe.
func (p *Pipeline) CurrentStatus(ctx context.Context) Status {
	st := Status{SegmentationAvailable: p.avail.Available(ctx)}
	n, err := p.store.CountResults(ctx)
	if err != nil {
		zap.L().Warn("pipeline: cache count failed", zap.Error(err))
		return st
	}
	st.CachedResults = n
	return st
}

// ClearCache purges all cached results and identifications.
func (p *Pipeline) ClearCache(ctx context.Context) (int, error) {
	n, err := p.store.Purge(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "pipeline: clear cache")
	}
	zap.L().Info("pipeline: cache cleared", zap.Int("deleted", n))
	return n, nil
}

var (
	_ cascader     = (*cascade.Controller)(nil)
	_ discoverer   = (*segment.Discoverer)(nil)
	_ availability = (*segment.Manager)(nil)
)
