package chunker

import (
	"fmt"

	"pdfqa/internal/domain"
)

// metadataFields is the allow-list of native page metadata copied onto each
// chunk. Empty values are dropped entirely so that stores with strict jsonb
// columns never see null-valued fields.
var metadataFields = []string{"source", "page", "total_pages"}

// PageChunker splits each page into fixed-size character windows with a
// configured overlap. Windows never bridge two pages; losing cross-page
// context is an accepted limitation.
type PageChunker struct {
	maxSize int
	overlap int
}

// New creates a page chunker. Overlap must be positive and strictly
// smaller than the window size.
func New(maxSize, overlap int) (*PageChunker, error) {
	if overlap <= 0 || overlap >= maxSize {
		return nil, fmt.Errorf("invalid chunk geometry: size=%d overlap=%d", maxSize, overlap)
	}
	return &PageChunker{maxSize: maxSize, overlap: overlap}, nil
}

// Chunk splits every page of doc into overlapping windows. Offsets are rune
// offsets into the page text; the trailing overlap runes of a chunk equal
// the leading overlap runes of its successor on the same page. An empty
// document or page yields no chunks.
func (c *PageChunker) Chunk(doc domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	n := 0
	for _, page := range doc.Pages {
		runes := []rune(page.Text)
		for start := 0; start < len(runes); start += c.maxSize - c.overlap {
			end := start + c.maxSize
			if end > len(runes) {
				end = len(runes)
			}
			chunks = append(chunks, domain.Chunk{
				ID:       fmt.Sprintf("doc-enriched-%d", n),
				Text:     string(runes[start:end]),
				Page:     page.Index,
				Start:    start,
				End:      end,
				Metadata: enrich(page.Metadata),
			})
			n++
			if end >= len(runes) {
				break
			}
		}
	}
	return chunks
}

func enrich(native map[string]string) map[string]string {
	md := make(map[string]string, len(metadataFields))
	for _, field := range metadataFields {
		if v := native[field]; v != "" {
			md[field] = v
		}
	}
	return md
}
