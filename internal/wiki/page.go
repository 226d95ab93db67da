package wiki

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/kalambet/dwiki/internal/docconv"
	"github.com/kalambet/dwiki/internal/store"
)

// pdfSignature is the magic prefix of a PDF file.
var pdfSignature = []byte("%PDF")

// Page is the resolved content of one article, ready for serialization.
// Kind is "md" (Markdown holds the body, converted from a rich document if
// needed) or "pdf" (PDFBase64 holds the raw bytes).
type Page struct {
	Kind            string `json:"kind"`
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	Markdown        string `json:"md,omitempty"`
	PDFBase64       string `json:"pdfBase64,omitempty"`
	PDFPages        int    `json:"pdfPages,omitempty"`
	UpdatedISO      string `json:"updatedISO"`
	UpdatedBy       string `json:"updatedBy"`
	UpdatedByPhoto  string `json:"updatedByPhoto"`
	UpdatedBySource string `json:"updatedBySource"`
}

// Page resolves a slug to its content. The lookup runs against a fresh
// listing of the root folder; read or conversion failures are fatal for
// this call only. A slug with no matching article returns ErrNotFound.
func (s *Service) Page(ctx context.Context, slug string) (*Page, error) {
	articles, err := s.enumerate(ctx)
	if err != nil {
		return nil, err
	}

	var found *Article
	for i := range articles {
		if articles[i].Slug == slug {
			found = &articles[i]
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}

	meta := s.meta.Resolve(ctx, found.ID)
	page := &Page{
		Slug:            found.Slug,
		Title:           found.Title,
		UpdatedBy:       meta.UpdatedBy,
		UpdatedByPhoto:  meta.UpdatedByPhoto,
		UpdatedBySource: meta.Source,
	}
	if !meta.Updated.IsZero() {
		page.UpdatedISO = meta.Updated.UTC().Format(time.RFC3339)
	}

	if found.MimeType == store.MimeRichDoc {
		elements, err := s.store.DocTree(ctx, found.ID)
		if err != nil {
			return nil, fmt.Errorf("converting document %q: %w", slug, err)
		}
		page.Kind = "md"
		page.Markdown = docconv.ToMarkdown(elements)
		return page, nil
	}

	data, mimeType, err := s.store.ReadFile(ctx, found.ID)
	if err != nil {
		return nil, fmt.Errorf("reading page %q: %w", slug, err)
	}

	if mimeType == store.MimePDF || bytes.HasPrefix(data, pdfSignature) {
		page.Kind = "pdf"
		page.PDFBase64 = base64.StdEncoding.EncodeToString(data)
		if n, err := pdfPageCount(data); err == nil {
			page.PDFPages = n
		}
		return page, nil
	}

	page.Kind = "md"
	page.Markdown = string(data)
	return page, nil
}

// articleText resolves an article's body as plain markdown-ish text for the
// word-frequency pass. PDFs contribute their extracted plain text.
func (s *Service) articleText(ctx context.Context, a Article) (string, error) {
	if a.MimeType == store.MimeRichDoc {
		elements, err := s.store.DocTree(ctx, a.ID)
		if err != nil {
			return "", fmt.Errorf("converting document: %w", err)
		}
		return docconv.ToMarkdown(elements), nil
	}

	data, mimeType, err := s.store.ReadFile(ctx, a.ID)
	if err != nil {
		return "", fmt.Errorf("reading article: %w", err)
	}
	if mimeType == store.MimePDF || bytes.HasPrefix(data, pdfSignature) {
		return pdfText(data)
	}
	return string(data), nil
}

// pdfText extracts the plain text of all pages. The parser is unforgiving
// with malformed files and may panic, so the recover keeps a single bad PDF
// from sinking a whole corpus pass.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extracting pdf text: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func pdfPageCount(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("counting pdf pages: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return reader.NumPage(), nil
}
