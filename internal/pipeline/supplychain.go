package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/partscope/partscope/internal/model"
	"github.com/partscope/partscope/internal/supplychain"
)

// SupplyChain returns the researched supply chain for a product, cached per
// brand+model. useDemo short-circuits to the canned dataset, and force
// bypasses the cache. Cache IO failures degrade to a fresh research pass.
func (p *Pipeline) SupplyChain(ctx context.Context, info model.ProductInfo, parts []model.KnownPart, useDemo, force bool) (model.SupplyChainReport, error) {
	if useDemo {
		return supplychain.DemoReport(), nil
	}

	key := supplychain.ProductKey(info)
	log := zap.L().With(zap.String("product_key", key))

	if !force {
		cached, cacheErr := p.store.GetSupplyChain(ctx, key)
		if cacheErr != nil {
			log.Warn("pipeline: supply chain cache read failed, proceeding uncached",
				zap.Error(eris.Wrap(model.ErrCacheIO, cacheErr.Error())))
		} else if cached != nil {
			cached.Cached = true
			log.Info("pipeline: supply chain cache hit")
			return *cached, nil
		}
	}

	report, err := p.research.Research(ctx, info, parts)
	if err != nil {
		return model.SupplyChainReport{}, eris.Wrap(err, "pipeline: supply chain research")
	}

	if cacheErr := p.store.SetSupplyChain(ctx, key, report, p.cfg.Store.ResultTTL()); cacheErr != nil {
		log.Warn("pipeline: supply chain cache write failed",
			zap.Error(eris.Wrap(model.ErrCacheIO, cacheErr.Error())))
	}

	log.Info("pipeline: supply chain researched",
		zap.Int("components", len(report.SupplyChain)),
		zap.Int("countries", report.TotalCountries),
	)
	return report, nil
}

var _ researcher = (*supplychain.Researcher)(nil)
