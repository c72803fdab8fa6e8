package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/chunker"
	"pdfqa/internal/domain"
	"pdfqa/internal/vectorstore/memory"
)

// fakeEmbedder returns deterministic 3-dimensional vectors. Texts present
// in the vectors map get that vector; everything else gets a vector derived
// from the text length. failAfter >= 0 makes the n-th EmbedBatch call fail.
type fakeEmbedder struct {
	vectors   map[string][]float32
	failAfter int
	calls     int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float32{}, failAfter: -1}
}

func (f *fakeEmbedder) Name() string   { return "fake-embedding-model" }
func (f *fakeEmbedder) Dimension() int { return 3 }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.failAfter >= 0 && f.calls >= f.failAfter {
		return nil, &domain.EmbeddingError{Op: "embed batch", Err: errors.New("service unavailable")}
	}
	f.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = []float32{float32(len(t)), 1, 0}
	}
	return out, nil
}

func testDoc(pageSizes ...int) domain.Document {
	doc := domain.Document{Path: "doc.pdf"}
	for i, size := range pageSizes {
		doc.Pages = append(doc.Pages, domain.Page{
			Index:    i,
			Text:     strings.Repeat(string(rune('a'+i)), size),
			Metadata: map[string]string{"source": "doc.pdf", "page": fmt.Sprint(i + 1)},
		})
	}
	return doc
}

func newIngestor(t *testing.T, emb *fakeEmbedder, store domain.VectorStore, doc domain.Document, batchSize int) *Ingestor {
	t.Helper()
	c, err := chunker.New(1000, 150)
	require.NoError(t, err)
	load := func(path string) (domain.Document, error) { return doc, nil }
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewIngestor(load, c, emb, store, batchSize, log)
}

func TestIngestWritesAllChunks(t *testing.T) {
	emb := newFakeEmbedder()
	store := memory.NewStore()
	ing := newIngestor(t, emb, store, testDoc(2500, 800, 0), 32)

	summary, err := ing.Ingest(context.Background(), "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, 4, summary.ChunksWritten)

	results, err := store.Nearest(context.Background(), []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func TestIngestAbortsWhenEmbeddingFails(t *testing.T) {
	emb := newFakeEmbedder()
	emb.failAfter = 1 // first batch embeds, second fails
	store := memory.NewStore()
	ing := newIngestor(t, emb, store, testDoc(2500, 800), 2)

	summary, err := ing.Ingest(context.Background(), "doc.pdf")
	var embErr *domain.EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Zero(t, summary.ChunksWritten)

	// nothing was inserted: the store was never initialized
	_, err = store.Nearest(context.Background(), []float32{1, 0, 0}, 10)
	assert.Error(t, err)
}

func TestIngestPropagatesLoaderError(t *testing.T) {
	emb := newFakeEmbedder()
	store := memory.NewStore()
	c, err := chunker.New(1000, 150)
	require.NoError(t, err)
	load := func(path string) (domain.Document, error) {
		return domain.Document{}, &domain.InputError{Path: path, Err: errors.New("no such file")}
	}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	ing := NewIngestor(load, c, emb, store, 32, log)

	_, err = ing.Ingest(context.Background(), "missing.pdf")
	var inputErr *domain.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "missing.pdf", inputErr.Path)
}

func TestIngestEmptyDocumentWritesNothing(t *testing.T) {
	emb := newFakeEmbedder()
	store := memory.NewStore()
	ing := newIngestor(t, emb, store, domain.Document{}, 32)

	summary, err := ing.Ingest(context.Background(), "doc.pdf")
	require.NoError(t, err)
	assert.Zero(t, summary.ChunksWritten)
	assert.Zero(t, emb.calls)
}

func TestIngestPreservesChunkOrderAcrossBatches(t *testing.T) {
	emb := newFakeEmbedder()
	store := memory.NewStore()
	// batch size 1 forces one request per chunk
	ing := newIngestor(t, emb, store, testDoc(2500, 800), 1)

	summary, err := ing.Ingest(context.Background(), "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, 4, summary.ChunksWritten)
	assert.Equal(t, 4, emb.calls)
}
