package mocks

import (
	"context"

	"resume-analyzer/internal/extract"

	"github.com/stretchr/testify/mock"
)

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, fileURL string, jsonSchema map[string]any) (*extract.Result, error) {
	args := m.Called(ctx, fileURL, jsonSchema)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*extract.Result), args.Error(1)
}
