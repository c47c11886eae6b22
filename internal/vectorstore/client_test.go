package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
)

func TestClientQueryDecodesMatches(t *testing.T) {
	var gotBody QueryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/query", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"result": []map[string]interface{}{
				{"id": "parts.csv-0", "score": 0.91, "metadata": map[string]interface{}{"fileName": "parts.csv"}},
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "test-token", srv.Client())
	matches, err := client.Query(context.Background(), QueryRequest{
		Vector:          []float32{0.1, 0.2},
		TopK:            50,
		IncludeMetadata: true,
		Filter:          `model = "450K"`,
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "parts.csv-0", matches[0].ID)
	require.InDelta(t, 0.91, matches[0].Score, 1e-9)
	require.Equal(t, 50, gotBody.TopK)
	require.Equal(t, `model = "450K"`, gotBody.Filter)
}

func TestClientUpsertRequiresPayload(t *testing.T) {
	client := New("http://localhost:0", "tok", nil)
	err := client.Upsert(context.Background(), UpsertRequest{ID: "x"})
	require.Error(t, err)
}

func TestClientSurfacesUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(srv.URL, "tok", srv.Client())
	err := client.Upsert(context.Background(), UpsertRequest{ID: "k", Data: "k"})
	require.Error(t, err)
	require.Equal(t, http.StatusTooManyRequests, appErr.StatusOf(err))
}

func TestClientLexicalQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Empty(t, req.Vector)
		require.Equal(t, "user:u1:2026-08-30", req.Data)
		_ = json.NewEncoder(w).Encode(queryResponse{})
	}))
	defer srv.Close()

	client := New(srv.URL, "tok", srv.Client())
	matches, err := client.Query(context.Background(), QueryRequest{Data: "user:u1:2026-08-30", TopK: 1, IncludeMetadata: true})
	require.NoError(t, err)
	require.Empty(t, matches)
}
