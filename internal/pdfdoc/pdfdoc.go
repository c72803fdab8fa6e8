// Package pdfdoc loads a PDF into per-page plain text, one Page per PDF
// page, with the native metadata that later travels with each chunk.
package pdfdoc

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/ledongthuc/pdf"

	"pdfqa/internal/domain"
)

// Load reads the PDF at path and returns one Page per PDF page. Pages
// without extractable text come back with empty text; the chunker skips
// them. A missing or unparsable file is an input error.
func Load(path string) (domain.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return domain.Document{}, &domain.InputError{Path: path, Err: err}
	}
	defer f.Close()

	numPages := r.NumPage()
	doc := domain.Document{Path: path, Pages: make([]domain.Page, 0, numPages)}
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		text := ""
		if !page.V.IsNull() {
			text, err = page.GetPlainText(nil)
			if err != nil {
				return domain.Document{}, &domain.InputError{
					Path: path,
					Err:  fmt.Errorf("extract page %d: %w", i, err),
				}
			}
		}
		doc.Pages = append(doc.Pages, domain.Page{
			Index: i - 1,
			Text:  text,
			Metadata: map[string]string{
				"source":      filepath.Base(path),
				"page":        strconv.Itoa(i),
				"total_pages": strconv.Itoa(numPages),
			},
		})
	}
	return doc, nil
}
