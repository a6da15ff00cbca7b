// Package docx extracts pages from Word (.docx) documents.
//
// Pages follow explicit page breaks and the page boundaries Word records
// when it last rendered the document.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.PageSource = (*Source)(nil)

const documentPart = "word/document.xml"

// maxPartSize bounds the decompressed document part.
const maxPartSize = 64 << 20

// Source handles DOCX documents.
type Source struct{}

// New creates a new DOCX source.
func New() *Source {
	return &Source{}
}

// Extensions returns the file extensions this source handles.
func (s *Source) Extensions() []string {
	return []string{".docx"}
}

// Pages reads word/document.xml and splits it at page breaks.
func (s *Source) Pages(ctx context.Context, name string, content []byte) ([]domain.PageText, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, domain.InputError("read "+name, "not a DOCX archive")
	}

	for _, file := range reader.File {
		if file.Name != documentPart {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, domain.InputError("read "+name, err.Error())
		}
		defer rc.Close()

		pages, err := parseDocument(ctx, io.LimitReader(rc, maxPartSize))
		if err != nil {
			return nil, domain.InputError("read "+name, err.Error())
		}
		return pages, nil
	}
	return nil, domain.InputError("read "+name, "missing "+documentPart)
}

// parseDocument streams the WordprocessingML body. Only local element
// names are matched so any namespace prefix works.
func parseDocument(ctx context.Context, r io.Reader) ([]domain.PageText, error) {
	dec := xml.NewDecoder(r)

	var (
		pages    []domain.PageText
		current  strings.Builder
		inText   bool
		breakNow bool // a page break was just emitted
	)
	flush := func() {
		pages = append(pages, domain.PageText{Number: len(pages) + 1, Text: strings.TrimSpace(current.String())})
		current.Reset()
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				if attr(t, "type") == "page" {
					flush()
					breakNow = true
				} else {
					current.WriteByte('\n')
				}
			case "lastRenderedPageBreak":
				if !breakNow {
					flush()
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				current.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				current.Write(t)
				breakNow = false
			}
		}
	}
	flush()
	return pages, nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
