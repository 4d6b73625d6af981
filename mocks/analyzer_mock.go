package mocks

import (
	"context"

	"resume-analyzer/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) RunWithID(ctx context.Context, runID uuid.UUID, file models.ResumeFile) (*models.ResumeAnalysis, error) {
	args := m.Called(ctx, runID, file)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ResumeAnalysis), args.Error(1)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
