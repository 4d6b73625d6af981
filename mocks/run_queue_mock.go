package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRunQueuer struct {
	mock.Mock
}

func (m *MockRunQueuer) InsertRun(ctx context.Context, runID string) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

type MockRunFetcher struct {
	mock.Mock
}

func (m *MockRunFetcher) ConsumeRun(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
