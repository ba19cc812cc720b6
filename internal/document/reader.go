package document

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Reader reads accreditation-scope PDF documents into per-page text and
// recovered table rows. Any failure to open or walk the file is fatal for
// the whole read; failures on individual pages are tolerated.
type Reader struct {
	maxFileSize int64
	logger      *log.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used for per-page warnings.
func WithLogger(logger *log.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReader creates a document reader with the given file size cap.
func NewReader(maxFileSize int64, opts ...Option) *Reader {
	r := &Reader{
		maxFileSize: maxFileSize,
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read opens, validates, and extracts a PDF document. It returns a
// *ReadError when the file cannot be processed at all; it never returns a
// partially extracted document alongside an error.
func (r *Reader) Read(path string) (*Document, error) {
	if path == "" {
		return nil, &ReadError{Path: path, Err: fmt.Errorf("path cannot be empty")}
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &ReadError{Path: path, Err: fmt.Errorf("file does not exist")}
	}
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	if err := r.validateFile(path, fileInfo); err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	if err := r.validateStructure(path); err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: fmt.Errorf("failed to open PDF: %w", err)}
	}
	defer f.Close()

	doc := &Document{Path: path}
	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page contributes no text but does not
			// abort the document.
			r.logger.Printf("warning: page %d of %s unreadable: %v", pageNum, path, err)
			text = ""
		}

		doc.Pages = append(doc.Pages, Page{
			Number: pageNum,
			Text:   text,
			Tables: r.recoverRows(page, pageNum, path),
		})
	}

	return doc, nil
}

// validateFile checks that the path refers to a plausible PDF file.
func (r *Reader) validateFile(path string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file")
	}
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return fmt.Errorf("file is not a PDF")
	}
	if r.maxFileSize > 0 && fileInfo.Size() > r.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", fileInfo.Size(), r.maxFileSize)
	}
	return nil
}

// validateStructure walks the PDF cross-reference structure with pdfcpu in
// relaxed mode. A file that fails here cannot be meaningfully extracted.
func (r *Reader) validateStructure(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		return fmt.Errorf("failed to read PDF structure: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return fmt.Errorf("failed to resolve page count: %w", err)
	}
	return nil
}

// recoverRows rebuilds table rows from the page's positioned text
// fragments. Fragment decoding can panic on malformed content streams, so
// recovery failures degrade to "no tables on this page".
func (r *Reader) recoverRows(page pdf.Page, pageNum int, path string) (rows [][]string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Printf("warning: table recovery failed on page %d of %s: %v", pageNum, path, rec)
			rows = nil
		}
	}()

	content := page.Content()
	fragments := make([]fragment, 0, len(content.Text))
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		fragments = append(fragments, fragment{x: t.X, y: t.Y, w: t.W, s: t.S})
	}
	return buildRows(fragments)
}
