package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/ragcore/internal/domain"
)

// extractDocx pulls paragraph text out of word/document.xml, one
// newline between paragraphs.
func (e *Extractor) extractDocx(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open docx: %v", domain.ErrUnreadable, err)
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: docx missing word/document.xml", domain.ErrUnreadable)
	}

	rc, err := doc.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open document.xml: %v", domain.ErrUnreadable, err)
	}
	defer rc.Close()

	text, err := wordXMLText(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: parse docx: %v", domain.ErrUnreadable, err)
	}

	return &Document{Text: strings.TrimSpace(text), Pages: 1}, nil
}

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPptx emits "Slide N:" followed by the slide's shape text and a
// blank line, for each slide in document order.
func (e *Extractor) extractPptx(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pptx: %v", domain.ErrUnreadable, err)
	}
	defer zr.Close()

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		m := slideNameRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slide{num: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var b strings.Builder
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			fmt.Fprintf(&b, "Slide %d:\n[slide unreadable]\n\n", s.num)
			continue
		}

		text, err := wordXMLText(rc)
		rc.Close()
		if err != nil {
			fmt.Fprintf(&b, "Slide %d:\n[slide unreadable]\n\n", s.num)
			continue
		}

		fmt.Fprintf(&b, "Slide %d:\n%s\n\n", s.num, strings.TrimSpace(text))
	}

	return &Document{Text: strings.TrimSpace(b.String()), Pages: len(slides)}, nil
}

// wordXMLText collects the character data of every <t> element in an
// OOXML part. Closing a <p> element appends a newline, which covers
// docx paragraphs and pptx text-frame paragraphs alike.
func wordXMLText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var b strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
			if t.Name.Local == "p" {
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return b.String(), nil
}
