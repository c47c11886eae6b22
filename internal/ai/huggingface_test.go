package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseHuggingFaceEmbedding(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []float32
		wantErr bool
	}{
		{
			name: "flat array",
			body: `[0.1, 0.2, 0.3]`,
			want: []float32{0.1, 0.2, 0.3},
		},
		{
			name: "nested array",
			body: `[[0.5, 0.6]]`,
			want: []float32{0.5, 0.6},
		},
		{
			name:    "loading error object",
			body:    `{"error": "Model BAAI/bge-small-en-v1.5 is currently loading"}`,
			wantErr: true,
		},
		{
			name:    "non-array object",
			body:    `{"embedding": "nope"}`,
			wantErr: true,
		},
		{
			name:    "garbage",
			body:    `not json`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHuggingFaceEmbedding([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewEmbedProviderUnknownName(t *testing.T) {
	_, err := NewEmbedProvider("nope", map[string]interface{}{})
	require.Error(t, err)
}

func TestNewEmbedProviderRegistered(t *testing.T) {
	p, err := NewEmbedProvider("huggingface", map[string]interface{}{"api_key": "k"})
	require.NoError(t, err)
	require.Equal(t, "huggingface", p.Name())
}
