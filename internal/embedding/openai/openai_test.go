package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("TEST_API_KEY", "test-key")
	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: "TEST_API_KEY", Model: "text-embedding-3-small"})
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresKeyAndModel(t *testing.T) {
	t.Setenv("EMPTY_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "EMPTY_KEY", Model: "m"})
	assert.Error(t, err)

	t.Setenv("SOME_KEY", "k")
	_, err = NewClient(Config{APIKeyEnv: "SOME_KEY"})
	assert.Error(t, err)
}

func TestEmbedBatchPreservesInputOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		// answer out of order; the client must reorder by index
		type item struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		items := make([]item, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			items = append(items, item{Index: i, Embedding: []float32{float32(i), 1, 2}})
		}
		json.NewEncoder(w).Encode(map[string]any{"data": items})
	})

	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for i, v := range vecs {
		assert.Equal(t, float32(i), v[0])
	}
	assert.Equal(t, 3, c.Dimension())
}

func TestEmbedBatchDimensionMismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{
			{"index": 0, "embedding": []float32{1, 2, 3}},
			{"index": 1, "embedding": []float32{1, 2}},
		}})
	})

	_, err := c.EmbedBatch(context.Background(), []string{"a", "b"})
	var embErr *domain.EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Contains(t, embErr.Error(), "dimension mismatch")
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{
			{"index": 0, "embedding": []float32{1}},
		}})
	})

	_, err := c.EmbedBatch(context.Background(), []string{"a", "b"})
	var embErr *domain.EmbeddingError
	assert.ErrorAs(t, err, &embErr)
}

func TestEmbedBatchSurfacesServiceError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	_, err := c.EmbedBatch(context.Background(), []string{"a"})
	var embErr *domain.EmbeddingError
	require.ErrorAs(t, err, &embErr)
}

func TestEmbedBatchRetriesOnServerError(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{
			{"index": 0, "embedding": []float32{1, 2}},
		}})
	})

	vecs, err := c.EmbedBatch(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, vecs[0])
	assert.Equal(t, 2, calls)
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty input")
	})
	vecs, err := c.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}
