// Package eml extracts a single page from RFC 822 email files.
package eml

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/kbase/internal/core/domain"
	"github.com/custodia-labs/kbase/internal/core/ports/driven"
	"github.com/custodia-labs/kbase/internal/normalisers/html"
)

// Ensure Source implements the interface.
var _ driven.PageSource = (*Source)(nil)

// Source handles EML documents.
type Source struct {
	html *html.Source
}

// New creates a new EML source.
func New() *Source {
	return &Source{html: html.New()}
}

// Extensions returns the file extensions this source handles.
func (s *Source) Extensions() []string {
	return []string{".eml"}
}

// Pages renders the headers and body of the message as one page.
// Plain text parts are preferred over HTML parts.
func (s *Source) Pages(_ context.Context, name string, content []byte) ([]domain.PageText, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(content))
	if err != nil {
		return nil, domain.InputError("read "+name, err.Error())
	}

	body, err := s.body(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
	if err != nil {
		return nil, domain.InputError("read "+name, err.Error())
	}

	var b strings.Builder
	for _, h := range []string{"From", "To", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(h)); v != "" {
			b.WriteString(h + ": " + v + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(body)

	return []domain.PageText{{Number: 1, Text: strings.TrimSpace(b.String())}}, nil
}

func (s *Source) body(contentType, encoding string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return s.multipart(r, params["boundary"])
	}

	if strings.EqualFold(encoding, "quoted-printable") {
		r = quotedprintable.NewReader(r)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if mediaType == "text/html" {
		return s.html.ToText(raw)
	}
	return string(raw), nil
}

func (s *Source) multipart(r io.Reader, boundary string) (string, error) {
	if boundary == "" {
		return "", errors.New("multipart message without boundary")
	}

	mr := multipart.NewReader(r, boundary)
	var textParts, htmlParts []string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		mediaType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if mediaType != "text/plain" && mediaType != "text/html" && !strings.HasPrefix(mediaType, "multipart/") {
			continue
		}

		// multipart.Part decodes quoted-printable itself.
		text, err := s.body(part.Header.Get("Content-Type"), "", part)
		if err != nil {
			continue
		}
		if mediaType == "text/html" {
			htmlParts = append(htmlParts, text)
		} else {
			textParts = append(textParts, text)
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n"), nil
	}
	return strings.Join(htmlParts, "\n"), nil
}

// decodeHeader decodes RFC 2047 encoded words, returning the raw header on failure.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}
