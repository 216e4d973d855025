// Package pdf wraps the PDF libraries used by the service: pdfcpu for
// validation, page counting and page subsetting, document-context for page
// rasterisation, and ledongthuc/pdf for text extraction.
//
// A Handle belongs to a single request or job. Rendering and text
// extraction may be called from multiple goroutines.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"
	textpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Header is the magic prefix every accepted upload starts with.
const Header = "%PDF-"

type pageSource interface {
	ExtractPage(pageNum int) (document.Page, error)
	io.Closer
}

// Handle is an opened, validated PDF.
type Handle struct {
	data  []byte
	pages int

	mu      sync.Mutex
	closed  bool
	scratch string
	doc     pageSource
	text    *textpdf.Reader
}

// IsPDF reports whether data starts with the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte(Header))
}

// Open validates data and reads its page count.
func Open(data []byte) (*Handle, error) {
	if !IsPDF(data) {
		return nil, fmt.Errorf("%w: missing %s header", ErrCorrupt, Header)
	}

	count, err := api.PageCount(bytes.NewReader(data), configuration())
	if err != nil {
		return nil, classify(data, err)
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: no pages", ErrCorrupt)
	}

	return &Handle{data: data, pages: count}, nil
}

// PageCount returns the number of pages.
func (h *Handle) PageCount() int {
	return h.pages
}

// Bytes returns the source document.
func (h *Handle) Bytes() []byte {
	return h.data
}

// RenderPage rasterises page n to PNG at dpi.
func (h *Handle) RenderPage(n, dpi int) ([]byte, error) {
	if err := h.checkPage(n); err != nil {
		return nil, err
	}

	page, err := h.extractPage(n)
	if err != nil {
		return nil, err
	}

	renderer, err := image.NewImageMagickRenderer(config.ImageConfig{
		Format:  string(document.PNG),
		DPI:     dpi,
		Options: map[string]any{},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	data, err := page.ToImage(renderer, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrRenderFailed, n, err)
	}
	return data, nil
}

// ExtractText returns the plain text content of page n.
func (h *Handle) ExtractText(n int) (string, error) {
	if err := h.checkPage(n); err != nil {
		return "", err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return "", ErrClosed
	}
	if h.text == nil {
		r, err := textpdf.NewReader(bytes.NewReader(h.data), int64(len(h.data)))
		if err != nil {
			return "", classify(h.data, err)
		}
		h.text = r
	}

	page := h.text.Page(n)
	if page.V.IsNull() {
		return "", fmt.Errorf("%w: %d", ErrPageOutOfRange, n)
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extract text page %d: %w", n, err)
	}
	return strings.TrimSpace(text), nil
}

// Subset builds a new PDF containing exactly pages, in ascending order.
// Duplicates are ignored.
func (h *Handle) Subset(pages []int) ([]byte, error) {
	if len(pages) == 0 {
		return nil, ErrEmptySelection
	}

	sorted := slices.Clone(pages)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	selection := make([]string, len(sorted))
	for i, p := range sorted {
		if err := h.checkPage(p); err != nil {
			return nil, err
		}
		selection[i] = strconv.Itoa(p)
	}

	var out bytes.Buffer
	if err := api.Trim(bytes.NewReader(h.data), &out, selection, configuration()); err != nil {
		return nil, fmt.Errorf("trim pages %v: %w", sorted, err)
	}
	return out.Bytes(), nil
}

// Close releases the rendering document and removes the scratch file.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	var errs []error
	if h.doc != nil {
		errs = append(errs, h.doc.Close())
		h.doc = nil
	}
	if h.scratch != "" {
		if err := os.Remove(h.scratch); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
		h.scratch = ""
	}
	return errors.Join(errs...)
}

// extractPage opens the rendering document on first use. document-context
// reads from disk, so the source is written to a scratch file once per handle.
func (h *Handle) extractPage(n int) (document.Page, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	if h.doc == nil {
		f, err := os.CreateTemp("", "delivery-notes-*.pdf")
		if err != nil {
			return nil, fmt.Errorf("create scratch file: %w", err)
		}
		h.scratch = f.Name()

		if _, err := f.Write(h.data); err != nil {
			f.Close()
			return nil, fmt.Errorf("write scratch file: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("close scratch file: %w", err)
		}

		doc, err := document.OpenPDF(h.scratch)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
		}
		h.doc = doc
	}

	page, err := h.doc.ExtractPage(n)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrRenderFailed, n, err)
	}
	return page, nil
}

func (h *Handle) checkPage(n int) error {
	if n < 1 || n > h.pages {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrPageOutOfRange, n, h.pages)
	}
	return nil
}

func configuration() *model.Configuration {
	return model.NewDefaultConfiguration()
}

// classify maps a library read failure to ErrEncrypted or ErrCorrupt.
func classify(data []byte, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "password") ||
		strings.Contains(msg, "encrypt") ||
		bytes.Contains(data, []byte("/Encrypt")) {
		return fmt.Errorf("%w: %v", ErrEncrypted, err)
	}
	return fmt.Errorf("%w: %v", ErrCorrupt, err)
}
