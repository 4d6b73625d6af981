package mocks

import (
	"context"

	"resume-analyzer/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockProgressReporter struct {
	mock.Mock
}

func (m *MockProgressReporter) Report(ctx context.Context, runID uuid.UUID, p models.Progress) error {
	args := m.Called(ctx, runID, p)
	return args.Error(0)
}

// Reported returns every progress snapshot passed to Report, in call order.
func (m *MockProgressReporter) Reported() []models.Progress {
	var out []models.Progress
	for _, c := range m.Calls {
		if c.Method == "Report" {
			out = append(out, c.Arguments.Get(2).(models.Progress))
		}
	}
	return out
}

type MockProgressReader struct {
	mock.Mock
}

func (m *MockProgressReader) Progress(ctx context.Context, runID uuid.UUID) (*models.Progress, error) {
	args := m.Called(ctx, runID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Progress), args.Error(1)
}
