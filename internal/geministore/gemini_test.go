package geministore

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	apperrors "resume-analyzer/internal/errors"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{
			name:      "bad key",
			err:       genai.APIError{Code: http.StatusUnauthorized, Message: "API key not valid"},
			permanent: true,
		},
		{
			name:      "wrapped forbidden",
			err:       fmt.Errorf("call: %w", genai.APIError{Code: http.StatusForbidden}),
			permanent: true,
		},
		{
			name:      "invalid argument",
			err:       genai.APIError{Code: http.StatusBadRequest, Message: "file too large"},
			permanent: true,
		},
		{
			name:      "server error",
			err:       genai.APIError{Code: http.StatusServiceUnavailable},
			permanent: false,
		},
		{
			name:      "network error",
			err:       errors.New("dial tcp: timeout"),
			permanent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify("analyze resume", tt.err)
			assert.Error(t, got)
			assert.Equal(t, tt.permanent, errors.Is(got, apperrors.ErrPermanentFailure))
		})
	}
}

func TestJSONConfig(t *testing.T) {
	schema := map[string]any{
		"type":     "object",
		"required": []string{"overall_rating"},
		"properties": map[string]any{
			"overall_rating": map[string]any{"type": "number", "minimum": 0, "maximum": 10},
		},
	}

	cfg := jsonConfig(schema)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	assert.Equal(t, schema, cfg.ResponseJsonSchema)

	plain := jsonConfig(nil)
	assert.Equal(t, "application/json", plain.ResponseMIMEType)
	assert.Nil(t, plain.ResponseJsonSchema)
}
