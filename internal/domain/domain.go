package domain

import "context"

// Page is a single page of the source document with its native metadata.
type Page struct {
	Index    int
	Text     string
	Metadata map[string]string
}

// Document represents the source PDF loaded into the system.
type Document struct {
	Path  string
	Pages []Page
}

// Chunk is a bounded contiguous span of page text, the unit of embedding
// and retrieval. Start and End are rune offsets into the page text.
type Chunk struct {
	ID       string
	Text     string
	Page     int
	Start    int
	End      int
	Metadata map[string]string
}

// StoredRecord is the tuple persisted in the vector store.
type StoredRecord struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]string
}

// SearchResult is a matching chunk with its similarity score.
// Results are ordered by descending similarity.
type SearchResult struct {
	Text     string
	Metadata map[string]string
	Score    float64
}

// IngestSummary reports the outcome of one ingestion run.
type IngestSummary struct {
	ChunksWritten int
}

// Embedder converts text into fixed-dimension vectors. EmbedBatch is
// order-preserving: vector i corresponds to texts[i]. The same embedder
// instance must be used for ingestion and for queries so that vectors
// stay comparable.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// CompletionModel generates an answer for a fully rendered prompt.
type CompletionModel interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// VectorStore persists records and answers nearest-neighbor queries.
type VectorStore interface {
	Init(ctx context.Context, dimension int) error
	Insert(ctx context.Context, records []StoredRecord) error
	Nearest(ctx context.Context, vector []float32, k int) ([]SearchResult, error)
	Clear(ctx context.Context) error
	Close()
}

// Chunker splits a document into chunks suitable for embedding.
type Chunker interface {
	Chunk(doc Document) []Chunk
}
