package pipeline

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/partscope/partscope/internal/model"
)

func supplyInfo() model.ProductInfo {
	return model.ProductInfo{Brand: "Apple", Model: "iPhone 15 Pro", Category: "smartphone"}
}

func supplyParts() []model.KnownPart {
	return []model.KnownPart{{ID: "cpu", Name: "A17 Pro Processor", Manufacturer: "TSMC"}}
}

func supplyReport() model.SupplyChainReport {
	return model.SupplyChainReport{
		Product: "Apple iPhone 15 Pro",
		SupplyChain: []model.ComponentChain{
			{ComponentID: "cpu", ComponentName: "A17 Pro Processor"},
		},
		TotalCountries: 3,
	}
}

func TestSupplyChainHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.On("GetSupplyChain", mock.Anything, "apple_iphone_15_pro").Return(nil, nil)
	f.research.On("Research", mock.Anything, supplyInfo(), supplyParts()).Return(supplyReport(), nil)
	f.store.On("SetSupplyChain", mock.Anything, "apple_iphone_15_pro", supplyReport(), testConfig().Store.ResultTTL()).Return(nil)

	report, err := f.p.SupplyChain(ctx, supplyInfo(), supplyParts(), false, false)
	require.NoError(t, err)
	assert.Equal(t, "Apple iPhone 15 Pro", report.Product)
	assert.False(t, report.Cached)
	f.store.AssertExpectations(t)
	f.research.AssertExpectations(t)
}

func TestSupplyChainCacheHit(t *testing.T) {
	f := newFixture(t)
	cached := supplyReport()

	f.store.On("GetSupplyChain", mock.Anything, "apple_iphone_15_pro").Return(&cached, nil)

	report, err := f.p.SupplyChain(context.Background(), supplyInfo(), supplyParts(), false, false)
	require.NoError(t, err)
	assert.True(t, report.Cached)
	f.research.AssertNotCalled(t, "Research", mock.Anything, mock.Anything, mock.Anything)
}

func TestSupplyChainForceBypassesCache(t *testing.T) {
	f := newFixture(t)

	f.research.On("Research", mock.Anything, supplyInfo(), supplyParts()).Return(supplyReport(), nil)
	f.store.On("SetSupplyChain", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.p.SupplyChain(context.Background(), supplyInfo(), supplyParts(), false, true)
	require.NoError(t, err)
	f.store.AssertNotCalled(t, "GetSupplyChain", mock.Anything, mock.Anything)
}

func TestSupplyChainDemo(t *testing.T) {
	f := newFixture(t)

	report, err := f.p.SupplyChain(context.Background(), supplyInfo(), nil, true, false)
	require.NoError(t, err)
	assert.True(t, report.Demo)
	assert.Len(t, report.SupplyChain, 5)
	f.store.AssertNotCalled(t, "GetSupplyChain", mock.Anything, mock.Anything)
	f.research.AssertNotCalled(t, "Research", mock.Anything, mock.Anything, mock.Anything)
}

func TestSupplyChainCacheErrorsNonFatal(t *testing.T) {
	f := newFixture(t)

	f.store.On("GetSupplyChain", mock.Anything, mock.Anything).Return(nil, eris.New("disk full"))
	f.research.On("Research", mock.Anything, supplyInfo(), supplyParts()).Return(supplyReport(), nil)
	f.store.On("SetSupplyChain", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(eris.New("disk full"))

	report, err := f.p.SupplyChain(context.Background(), supplyInfo(), supplyParts(), false, false)
	require.NoError(t, err)
	assert.Equal(t, "Apple iPhone 15 Pro", report.Product)
}

func TestSupplyChainResearchError(t *testing.T) {
	f := newFixture(t)

	f.store.On("GetSupplyChain", mock.Anything, mock.Anything).Return(nil, nil)
	f.research.On("Research", mock.Anything, mock.Anything, mock.Anything).
		Return(model.SupplyChainReport{}, eris.New("api down"))

	_, err := f.p.SupplyChain(context.Background(), supplyInfo(), supplyParts(), false, false)
	require.Error(t, err)
	f.store.AssertNotCalled(t, "SetSupplyChain", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
