package extract

import (
	"fmt"
	"image"
	"os"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// extractImageMeta produces a metadata-only text block for images.
// OCR is out of scope.
func (e *Extractor) extractImageMeta(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open image: %v", domain.ErrUnreadable, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", domain.ErrUnreadable, err)
	}

	var b strings.Builder
	b.WriteString("Image metadata:\n")
	fmt.Fprintf(&b, "Format: %s\n", format)
	fmt.Fprintf(&b, "Size: %d x %d pixels", cfg.Width, cfg.Height)

	return &Document{Text: b.String(), Pages: 1}, nil
}

// extractMediaMeta produces a metadata-only text block for audio and
// video files. Transcription is out of scope.
func (e *Extractor) extractMediaMeta(path, label, declaredMIME string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat media: %v", domain.ErrUnreadable, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s file metadata:\n", label)
	if declaredMIME != "" {
		fmt.Fprintf(&b, "MIME: %s\n", declaredMIME)
	}
	fmt.Fprintf(&b, "File size: %d bytes", info.Size())

	return &Document{Text: b.String(), Pages: 1}, nil
}
