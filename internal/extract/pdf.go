package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// extractPDF concatenates per-page text separated by form feeds. A page
// that cannot be decoded yields an inline marker instead of failing the
// whole document.
func (e *Extractor) extractPDF(path string) (*Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", domain.ErrUnreadable, err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)

	for n := 1; n <= numPages; n++ {
		text, err := pdfPageText(reader, n)
		if err != nil {
			pages = append(pages, fmt.Sprintf("[page %d unreadable]", n))
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	return &Document{Text: strings.Join(pages, "\f"), Pages: numPages}, nil
}

// pdfPageText extracts a single page, converting parser panics into
// errors so one bad page cannot take down the extraction.
func pdfPageText(reader *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", n, r)
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: missing", n)
	}
	return page.GetPlainText(nil)
}
