package pdf_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/JaimeStill/delivery-notes/internal/pdf"
	"github.com/JaimeStill/delivery-notes/internal/pdf/pdftest"
)

func open(t *testing.T, data []byte) *pdf.Handle {
	t.Helper()
	h, err := pdf.Open(data)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestOpen_PageCount(t *testing.T) {
	for _, n := range []int{1, 3, 12} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			h := open(t, pdftest.Build(n))
			if h.PageCount() != n {
				t.Errorf("PageCount() = %d, want %d", h.PageCount(), n)
			}
		})
	}
}

func TestOpen_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"no header", []byte("hello world"), pdf.ErrCorrupt},
		{"empty", nil, pdf.ErrCorrupt},
		{"corrupt body", pdftest.Corrupt(), pdf.ErrCorrupt},
		{"encrypted", pdftest.Encrypted(t, 2), pdf.ErrEncrypted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pdf.Open(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("Open() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIsPDF(t *testing.T) {
	if !pdf.IsPDF([]byte("%PDF-1.7")) {
		t.Error("IsPDF(%PDF-1.7) = false, want true")
	}
	if pdf.IsPDF([]byte("%PDX-1.7")) {
		t.Error("IsPDF(%PDX-1.7) = true, want false")
	}
}

func TestExtractText(t *testing.T) {
	h := open(t, pdftest.Build(3))

	for k := 1; k <= 3; k++ {
		text, err := h.ExtractText(k)
		if err != nil {
			t.Fatalf("ExtractText(%d) failed: %v", k, err)
		}
		if want := fmt.Sprintf("Page %d", k); !strings.Contains(text, want) {
			t.Errorf("ExtractText(%d) = %q, want to contain %q", k, text, want)
		}
	}
}

func TestSubset_OrderAndContent(t *testing.T) {
	h := open(t, pdftest.Build(5))

	data, err := h.Subset([]int{4, 2, 2})
	if err != nil {
		t.Fatalf("Subset() failed: %v", err)
	}

	sub := open(t, data)
	if sub.PageCount() != 2 {
		t.Fatalf("subset PageCount() = %d, want 2", sub.PageCount())
	}

	for i, want := range []string{"Page 2", "Page 4"} {
		text, err := sub.ExtractText(i + 1)
		if err != nil {
			t.Fatalf("ExtractText(%d) failed: %v", i+1, err)
		}
		if !strings.Contains(text, want) {
			t.Errorf("subset page %d = %q, want %q", i+1, text, want)
		}
	}
}

func TestSubset_Errors(t *testing.T) {
	h := open(t, pdftest.Build(3))

	if _, err := h.Subset(nil); !errors.Is(err, pdf.ErrEmptySelection) {
		t.Errorf("Subset(nil) error = %v, want ErrEmptySelection", err)
	}
	if _, err := h.Subset([]int{1, 4}); !errors.Is(err, pdf.ErrPageOutOfRange) {
		t.Errorf("Subset([1 4]) error = %v, want ErrPageOutOfRange", err)
	}
	if _, err := h.Subset([]int{0}); !errors.Is(err, pdf.ErrPageOutOfRange) {
		t.Errorf("Subset([0]) error = %v, want ErrPageOutOfRange", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	h, err := pdf.Open(pdftest.Build(1))
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}
	if _, err := h.ExtractText(1); !errors.Is(err, pdf.ErrClosed) {
		t.Errorf("ExtractText() after Close error = %v, want ErrClosed", err)
	}
}
