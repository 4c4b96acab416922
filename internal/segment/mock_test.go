package segment

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/partscope/partscope/pkg/sam"
)

type mockSAM struct {
	mock.Mock
}

func (m *mockSAM) Health(ctx context.Context) (*sam.Health, error) {
	args := m.Called(ctx)
	if h := args.Get(0); h != nil {
		return h.(*sam.Health), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSAM) Load(ctx context.Context, req sam.LoadRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockSAM) Unload(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockSAM) Segment(ctx context.Context, req sam.SegmentRequest) (*sam.SegmentResponse, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*sam.SegmentResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func cpuHealth() *sam.Health {
	return &sam.Health{Status: "ok", Device: "cpu", ModelAvailable: true}
}

func gpuHealth() *sam.Health {
	return &sam.Health{Status: "ok", Device: "cuda", ModelAvailable: true}
}
