package mocks

import (
	"context"

	"resume-analyzer/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockAnalysisStore struct {
	mock.Mock
}

func (m *MockAnalysisStore) Create(ctx context.Context, record *models.ResumeAnalysis) (*models.ResumeAnalysis, error) {
	args := m.Called(ctx, record)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ResumeAnalysis), args.Error(1)
}

func (m *MockAnalysisStore) Get(ctx context.Context, id uuid.UUID) (*models.ResumeAnalysis, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ResumeAnalysis), args.Error(1)
}

func (m *MockAnalysisStore) List(ctx context.Context, sortKey string) ([]models.ResumeAnalysis, error) {
	args := m.Called(ctx, sortKey)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.ResumeAnalysis), args.Error(1)
}
