package services

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log"
	"regexp"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/jovanglig/aigeniusresume/internal/config"
)

const (
	MIMEPDF  = "application/pdf"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

type DocumentExtractor interface {
	ExtractText(ctx context.Context, data []byte, mimeType string) (*DocumentContent, error)
}

type DocumentContent struct {
	Text      string
	Pages     []string
	PageCount int
}

// pageExtractor turns one document format into ordered page texts.
type pageExtractor interface {
	Name() string
	ExtractPages(ctx context.Context, data []byte) ([]string, error)
}

type documentExtractor struct {
	backends map[string]pageExtractor
}

// NewDocumentExtractor routes PDFs to the configured backend and DOCX files
// to the docx reader, unless Affinda is configured, which takes both.
func NewDocumentExtractor(cfg config.ExtractorConfig) DocumentExtractor {
	var pdfBackend pageExtractor
	docxBackend := pageExtractor(&docxExtractor{})

	switch cfg.Backend {
	case "fitz":
		pdfBackend = &fitzExtractor{}
	case "affinda":
		affinda := newAffindaExtractor(affindaBaseURL(cfg.AffindaRegion), cfg.AffindaAPIKey)
		pdfBackend = affinda
		docxBackend = affinda
	default:
		pdfBackend = &pdfExtractor{}
	}

	log.Printf("📄 Document extractor: pdf=%s docx=%s\n", pdfBackend.Name(), docxBackend.Name())

	return &documentExtractor{
		backends: map[string]pageExtractor{
			MIMEPDF:  pdfBackend,
			MIMEDocx: docxBackend,
		},
	}
}

// ExtractText implements DocumentExtractor. Pages are joined with a newline
// and the result is normalized with CleanText.
func (d *documentExtractor) ExtractText(ctx context.Context, data []byte, mimeType string) (*DocumentContent, error) {
	backend, ok := d.backends[mimeType]
	if !ok {
		return nil, &DocumentParseError{Reason: mimeType, Cause: ErrUnsupportedFileType}
	}

	if len(data) == 0 {
		return nil, &DocumentParseError{Reason: "empty upload", Cause: ErrEmptyDocument}
	}

	pages, err := backend.ExtractPages(ctx, data)
	if err != nil {
		return nil, &DocumentParseError{Reason: backend.Name(), Cause: err}
	}

	text := CleanText(strings.Join(pages, "\n"))
	if text == "" {
		return nil, &DocumentParseError{Reason: backend.Name(), Cause: ErrEmptyDocument}
	}

	return &DocumentContent{
		Text:      text,
		Pages:     pages,
		PageCount: len(pages),
	}, nil
}

type pdfExtractor struct{}

func (p *pdfExtractor) Name() string { return "pdf" }

func (p *pdfExtractor) ExtractPages(_ context.Context, data []byte) (pages []string, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to open PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	totalPage := r.NumPage()
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("⚠️ Skipping PDF page %d: %v\n", pageIndex, err)
			continue
		}

		pages = append(pages, text)
	}

	return pages, nil
}

type fitzExtractor struct{}

func (f *fitzExtractor) Name() string { return "fitz" }

func (f *fitzExtractor) ExtractPages(_ context.Context, data []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			log.Printf("⚠️ Skipping PDF page %d: %v\n", n+1, err)
			continue
		}
		pages = append(pages, text)
	}

	return pages, nil
}

type docxExtractor struct{}

func (d *docxExtractor) Name() string { return "docx" }

var (
	docxBreaks = strings.NewReplacer("</w:p>", "\n", "<w:br/>", "\n", "<w:tab/>", "\t")
	xmlTags    = regexp.MustCompile(`<[^>]+>`)
)

func (d *docxExtractor) ExtractPages(_ context.Context, data []byte) ([]string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return []string{docxPlainText(doc.Editable().GetContent())}, nil
}

// docxPlainText turns WordprocessingML into text, one paragraph per line.
func docxPlainText(content string) string {
	text := docxBreaks.Replace(content)
	text = xmlTags.ReplaceAllString(text, "")
	return html.UnescapeString(text)
}

var (
	trailingSpace = regexp.MustCompile(`[ \t\f\v]+\n`)
	extraNewlines = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes extracted text: invalid UTF-8 and NUL bytes are
// replaced, line endings become \n, trailing whitespace is dropped and runs
// of blank lines collapse to a single blank line.
func CleanText(text string) string {
	text = strings.ToValidUTF8(text, "�")
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = trailingSpace.ReplaceAllString(text, "\n")
	text = extraNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
