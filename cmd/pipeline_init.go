package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/partscope/partscope/internal/cascade"
	"github.com/partscope/partscope/internal/config"
	"github.com/partscope/partscope/internal/imagestore"
	"github.com/partscope/partscope/internal/pipeline"
	"github.com/partscope/partscope/internal/segment"
	"github.com/partscope/partscope/internal/store"
	"github.com/partscope/partscope/internal/supplychain"
	anthropicpkg "github.com/partscope/partscope/pkg/anthropic"
	"github.com/partscope/partscope/pkg/geocode"
	"github.com/partscope/partscope/pkg/sam"
)

// pipelineEnv holds the initialized store, image store, and pipeline needed
// by the serve/discover/status/cache commands.
type pipelineEnv struct {
	Store    store.Store
	Images   *imagestore.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "partscope.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func discoveryParams(dc config.DiscoveryConfig) segment.Params {
	return segment.Params{
		GridSize:      dc.GridSize,
		QualityFloor:  dc.QualityFloor,
		MinBoxExtent:  dc.MinBoxExtent,
		MaxBoxExtent:  dc.MaxBoxExtent,
		MergeRadius:   dc.MergeRadius,
		MinComponents: dc.MinComponents,
		FixedDepth:    dc.FixedDepth,
		BatchSizeGPU:  dc.BatchSizeGPU,
		BatchSizeCPU:  dc.BatchSizeCPU,
	}
}

// initPipeline sets up the store, image store, sidecar client, and cascade,
// and builds the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (PARTSCOPE_ANTHROPIC_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	imgs, err := imagestore.New(cfg.Upload.Dir, cfg.Upload.MaxBytes, cfg.Upload.MaxEdge)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "init image store")
	}

	samClient := sam.NewClient(cfg.SAM.BaseURL,
		sam.WithRateLimit(cfg.SAM.RateLimitRPS),
		sam.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.SAM.TimeoutSecs) * time.Second}),
	)
	manager := segment.NewManager(samClient, cfg.SAM.ModelID)
	discoverer := segment.NewDiscoverer(manager, discoveryParams(cfg.Discovery))

	llm := anthropicpkg.NewClient(cfg.Anthropic.Key)
	enricher := cascade.NewEnricher(llm, cfg.Anthropic.HaikuModel, cfg.Enrich.BatchSize, cfg.Enrich.MaxConcurrent)
	generator := cascade.NewGenerator(llm, cfg.Anthropic.SonnetModel)
	controller := cascade.NewController(enricher, generator)

	geoOpts := []geocode.Option{
		geocode.WithUserAgent(cfg.Geocode.UserAgent),
		geocode.WithRateLimit(cfg.Geocode.RateLimitRPS),
	}
	if cfg.Geocode.GoogleKey != "" {
		geoOpts = append(geoOpts, geocode.WithGoogleAPIKey(cfg.Geocode.GoogleKey))
	}
	researcher := supplychain.NewResearcher(llm, geocode.NewClient(geoOpts...), cfg.Anthropic.SonnetModel)

	p := pipeline.New(cfg, st, imgs, discoverer, manager, controller, researcher, llm)

	return &pipelineEnv{
		Store:    st,
		Images:   imgs,
		Pipeline: p,
	}, nil
}
