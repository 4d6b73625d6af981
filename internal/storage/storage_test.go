package storage_test

import (
	"testing"

	"resume-analyzer/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "", want: "ORDER BY created_date DESC, id DESC"},
		{key: "-created_date", want: "ORDER BY created_date DESC, id DESC"},
		{key: "created_date", want: "ORDER BY created_date ASC, id ASC"},
		{key: "-overall_rating", want: "ORDER BY overall_rating DESC, id DESC"},
		{key: " filename ", want: "ORDER BY filename ASC, id ASC"},
		{key: "id; DROP TABLE resume_analyses", wantErr: true},
		{key: "--created_date", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			k, err := storage.ParseSortKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, storage.ErrInvalidSortKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, k.OrderBy())
		})
	}
}
