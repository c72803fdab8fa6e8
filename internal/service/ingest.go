package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"pdfqa/internal/domain"
)

// Loader reads the source document from disk.
type Loader func(path string) (domain.Document, error)

// Ingestor runs the one-shot ingestion pipeline:
// load -> chunk -> embed -> store. It is not resumable: a failure partway
// leaves the collection partially populated, and the remediation is to
// clear the collection and re-run.
type Ingestor struct {
	load      Loader
	chunker   domain.Chunker
	embedder  domain.Embedder
	store     domain.VectorStore
	batchSize int
	log       *logrus.Logger
}

// NewIngestor wires the pipeline. batchSize bounds how many chunk texts go
// into one embedding request.
func NewIngestor(load Loader, chunker domain.Chunker, embedder domain.Embedder, store domain.VectorStore, batchSize int, log *logrus.Logger) *Ingestor {
	if batchSize <= 0 {
		batchSize = 32
	}
	if log == nil {
		log = logrus.New()
	}
	return &Ingestor{
		load:      load,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
		log:       log,
	}
}

// Ingest populates the vector store from the PDF at path. Any failure
// aborts the run with a zero summary; a success reports how many records
// were written. An empty document is a valid degenerate case and never
// touches the store.
func (ing *Ingestor) Ingest(ctx context.Context, path string) (domain.IngestSummary, error) {
	doc, err := ing.load(path)
	if err != nil {
		return domain.IngestSummary{}, err
	}
	ing.log.WithFields(logrus.Fields{"path": path, "pages": len(doc.Pages)}).Info("document loaded")

	chunks := ing.chunker.Chunk(doc)
	if len(chunks) == 0 {
		ing.log.Warn("document produced no chunks, nothing to ingest")
		return domain.IngestSummary{}, nil
	}
	ing.log.WithField("chunks", len(chunks)).Info("document chunked")

	records := make([]domain.StoredRecord, len(chunks))
	for start := 0; start < len(chunks); start += ing.batchSize {
		end := start + ing.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, end-start)
		for i, ch := range chunks[start:end] {
			texts[i] = ch.Text
		}
		vectors, err := ing.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return domain.IngestSummary{}, err
		}
		for i := range vectors {
			ch := chunks[start+i]
			records[start+i] = domain.StoredRecord{
				ID:        ch.ID,
				Text:      ch.Text,
				Embedding: vectors[i],
				Metadata:  ch.Metadata,
			}
		}
		ing.log.WithFields(logrus.Fields{"from": start, "to": end}).Debug("batch embedded")
	}

	if err := ing.store.Init(ctx, ing.embedder.Dimension()); err != nil {
		return domain.IngestSummary{}, err
	}
	if err := ing.store.Insert(ctx, records); err != nil {
		return domain.IngestSummary{}, err
	}
	ing.log.WithField("records", len(records)).Info("records written")
	return domain.IngestSummary{ChunksWritten: len(records)}, nil
}
