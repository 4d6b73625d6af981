package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
)

type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) InvokeLLM(ctx context.Context, prompt string, responseSchema map[string]any) (json.RawMessage, error) {
	args := m.Called(ctx, prompt, responseSchema)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(json.RawMessage), args.Error(1)
}

type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) ExtractText(ctx context.Context, document []byte) (string, error) {
	args := m.Called(ctx, document)
	return args.String(0), args.Error(1)
}
