// Package extract converts uploaded files into UTF-8 plain text with
// light structural markers, dispatching on the declared MIME type.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// DefaultCSVSampleRows is the number of data rows sampled from
// spreadsheets and CSV files.
const DefaultCSVSampleRows = 5

// Document is the result of text extraction.
type Document struct {
	Text  string
	Pages int
}

// Extractor converts files to plain text. Binary media produce
// metadata-only text blocks; OCR and transcription are out of scope.
type Extractor struct {
	csvSampleRows int
}

// New returns an Extractor. sampleRows <= 0 selects the default.
func New(sampleRows int) *Extractor {
	if sampleRows <= 0 {
		sampleRows = DefaultCSVSampleRows
	}
	return &Extractor{csvSampleRows: sampleRows}
}

type formatKind int

const (
	kindUnknown formatKind = iota
	kindText
	kindPDF
	kindDocx
	kindXlsx
	kindPptx
	kindCSV
	kindImage
	kindAudio
	kindVideo
)

// Extract reads the file at path and returns its text representation.
// Unknown formats fail with domain.ErrUnsupportedFormat; undecodable
// content fails with domain.ErrUnreadable.
func (e *Extractor) Extract(ctx context.Context, path, declaredMIME string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kind := classify(declaredMIME, filepath.Ext(path))

	switch kind {
	case kindText:
		return e.extractText(path)
	case kindPDF:
		return e.extractPDF(path)
	case kindDocx:
		return e.extractDocx(path)
	case kindXlsx:
		return e.extractXlsx(path)
	case kindPptx:
		return e.extractPptx(path)
	case kindCSV:
		return e.extractCSV(path)
	case kindImage:
		return e.extractImageMeta(path)
	case kindAudio:
		return e.extractMediaMeta(path, "Audio", declaredMIME)
	case kindVideo:
		return e.extractMediaMeta(path, "Video", declaredMIME)
	default:
		return nil, fmt.Errorf("%w: mime %q", domain.ErrUnsupportedFormat, declaredMIME)
	}
}

var mimeKinds = map[string]formatKind{
	"application/pdf": kindPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   kindDocx,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         kindXlsx,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": kindPptx,
	"text/csv":                kindCSV,
	"application/json":        kindText,
	"application/xml":         kindText,
	"application/x-yaml":      kindText,
	"application/javascript":  kindText,
	"application/x-sh":        kindText,
	"application/sql":         kindText,
	"application/toml":        kindText,
	"application/x-httpd-php": kindText,
}

var extKinds = map[string]formatKind{
	".txt": kindText, ".md": kindText, ".markdown": kindText,
	".json": kindText, ".xml": kindText, ".yaml": kindText, ".yml": kindText,
	".go": kindText, ".py": kindText, ".js": kindText, ".ts": kindText,
	".java": kindText, ".c": kindText, ".h": kindText, ".cpp": kindText,
	".rb": kindText, ".rs": kindText, ".sh": kindText, ".sql": kindText,
	".html": kindText, ".css": kindText, ".log": kindText, ".toml": kindText,
	".pdf":  kindPDF,
	".docx": kindDocx,
	".xlsx": kindXlsx,
	".pptx": kindPptx,
	".csv":  kindCSV,
	".png":  kindImage, ".jpg": kindImage, ".jpeg": kindImage, ".gif": kindImage,
	".mp3": kindAudio, ".wav": kindAudio, ".ogg": kindAudio, ".flac": kindAudio,
	".mp4": kindVideo, ".avi": kindVideo, ".mov": kindVideo, ".mkv": kindVideo,
	".webm": kindVideo,
}

// classify maps a declared MIME type to an extraction strategy, falling
// back to the file extension when the MIME is missing or generic.
func classify(declaredMIME, ext string) formatKind {
	mime := strings.ToLower(strings.TrimSpace(declaredMIME))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}

	if kind, ok := mimeKinds[mime]; ok {
		return kind
	}

	switch {
	case strings.HasPrefix(mime, "text/"):
		return kindText
	case strings.HasPrefix(mime, "image/"):
		return kindImage
	case strings.HasPrefix(mime, "audio/"):
		return kindAudio
	case strings.HasPrefix(mime, "video/"):
		return kindVideo
	}

	if kind, ok := extKinds[strings.ToLower(ext)]; ok {
		return kind
	}
	return kindUnknown
}

// extractText reads plain text as UTF-8, falling back to latin-1 for
// byte sequences that are not valid UTF-8.
func (e *Extractor) extractText(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadable, err)
	}

	text := decodeText(data)
	return &Document{Text: text, Pages: 1}, nil
}

func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}

	// latin-1: each byte maps to the code point of the same value
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}
