// Package pdftest generates small, well-formed PDF fixtures for tests. Page k
// of a generated document carries the text "Page k".
package pdftest

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Build returns an uncompressed PDF with n pages.
func Build(n int) []byte {
	var buf bytes.Buffer
	offsets := []int{0}

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets)-1, body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	kids := new(bytes.Buffer)
	for k := range n {
		fmt.Fprintf(kids, "%d 0 R ", 4+2*k)
	}

	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", bytes.TrimSpace(kids.Bytes()), n))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	for k := 1; k <= n; k++ {
		content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (Page %d) Tj ET", k)
		obj(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			5+2*(k-1),
		))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets))
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets[1:] {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets), xref)

	return buf.Bytes()
}

// Encrypted returns an n-page PDF that requires the user password "secret".
func Encrypted(t testing.TB, n int) []byte {
	t.Helper()

	conf := model.NewAESConfiguration("secret", "owner-secret", 256)

	var out bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(Build(n)), &out, conf); err != nil {
		t.Fatalf("encrypt fixture: %v", err)
	}
	return out.Bytes()
}

// Corrupt returns bytes with a valid header and an unreadable body.
func Corrupt() []byte {
	return []byte("%PDF-1.4\nthis is not a pdf body\n%%EOF\n")
}
