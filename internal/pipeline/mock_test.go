package pipeline

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/partscope/partscope/internal/config"
	"github.com/partscope/partscope/internal/model"
	"github.com/partscope/partscope/internal/segment"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetResult(ctx context.Context, key string) (*model.ComponentSet, error) {
	args := m.Called(ctx, key)
	if s := args.Get(0); s != nil {
		return s.(*model.ComponentSet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) SetResult(ctx context.Context, key string, set model.ComponentSet, ttl time.Duration) error {
	return m.Called(ctx, key, set, ttl).Error(0)
}

func (m *mockStore) GetIdentification(ctx context.Context, imageID string) (*model.Identification, error) {
	args := m.Called(ctx, imageID)
	if s := args.Get(0); s != nil {
		return s.(*model.Identification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) SetIdentification(ctx context.Context, imageID string, ident model.Identification, ttl time.Duration) error {
	return m.Called(ctx, imageID, ident, ttl).Error(0)
}

func (m *mockStore) GetSupplyChain(ctx context.Context, productKey string) (*model.SupplyChainReport, error) {
	args := m.Called(ctx, productKey)
	if s := args.Get(0); s != nil {
		return s.(*model.SupplyChainReport), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) SetSupplyChain(ctx context.Context, productKey string, report model.SupplyChainReport, ttl time.Duration) error {
	return m.Called(ctx, productKey, report, ttl).Error(0)
}

func (m *mockStore) Purge(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) DeleteExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) CountResults(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

type mockImages struct {
	mock.Mock
}

func (m *mockImages) Load(id string) ([]byte, error) {
	args := m.Called(id)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockImages) Dims(id string) (int, int, error) {
	args := m.Called(id)
	return args.Int(0), args.Int(1), args.Error(2)
}

type mockDiscoverer struct {
	mock.Mock
}

func (m *mockDiscoverer) Discover(ctx context.Context, imageJPEG []byte, width, height int) (segment.Result, error) {
	args := m.Called(ctx, imageJPEG, width, height)
	return args.Get(0).(segment.Result), args.Error(1)
}

type mockAvailability struct {
	mock.Mock
}

func (m *mockAvailability) Available(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

type mockCascader struct {
	mock.Mock
}

func (m *mockCascader) Run(ctx context.Context, imageJPEG []byte, info model.ProductInfo, discovered []model.Component, discoveryOK bool) model.ComponentSet {
	args := m.Called(ctx, imageJPEG, info, discovered, discoveryOK)
	return args.Get(0).(model.ComponentSet)
}

type mockResearcher struct {
	mock.Mock
}

func (m *mockResearcher) Research(ctx context.Context, info model.ProductInfo, parts []model.KnownPart) (model.SupplyChainReport, error) {
	args := m.Called(ctx, info, parts)
	return args.Get(0).(model.SupplyChainReport), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Driver: "sqlite", TTLHours: 720},
		Anthropic: config.AnthropicConfig{
			HaikuModel:  "claude-haiku-4-5-20251001",
			SonnetModel: "claude-sonnet-4-5-20250929",
		},
		Discovery: config.DiscoveryConfig{
			GridSize:      6,
			QualityFloor:  0.70,
			MergeRadius:   0.1,
			MinComponents: 5,
		},
	}
}
