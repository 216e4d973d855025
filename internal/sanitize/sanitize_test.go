package sanitize_test

import (
	"strings"
	"testing"

	"github.com/JaimeStill/delivery-notes/internal/sanitize"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "scan-2024_01.pdf", "scan-2024_01.pdf"},
		{"spaces kept", "delivery note.pdf", "delivery note.pdf"},
		{"special chars", "a/b\\c:d*e?.pdf", "a_b_c_d_e_.pdf"},
		{"traversal", "../../etc/passwd", "_._etc_passwd"},
		{"leading dots", "...hidden.pdf", "hidden.pdf"},
		{"dot run", "a....pdf", "a.pdf"},
		{"non ascii", "følgeseddel.pdf", "f_lgeseddel.pdf"},
		{"empty", "", "document.pdf"},
		{"only dots", "....", "document.pdf"},
		{"control chars", "invoice\r\nX-Evil: 1\t.pdf", "invoice__X-Evil_ 1_.pdf"},
		{"vertical whitespace", "a\fb\vc.pdf", "a_b_c.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitize.Filename(tt.input); got != tt.want {
				t.Errorf("Filename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilename_Length(t *testing.T) {
	got := sanitize.Filename(strings.Repeat("a", 300) + ".pdf")
	if len(got) != sanitize.MaxFilenameLength {
		t.Errorf("len(Filename()) = %d, want %d", len(got), sanitize.MaxFilenameLength)
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "  Acme A/S  ", "Acme A/S"},
		{"tags", "<b>Acme</b>", "bAcme/b"},
		{"script protocol", "JavaScript:alert(1)", "alert(1)"},
		{"event handler", "x onClick=steal()", "x steal()"},
		{"danish kept", "Følgeseddel 3", "Følgeseddel 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitize.Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestText_Length(t *testing.T) {
	got := sanitize.Text(strings.Repeat("ø", 250))
	if n := len([]rune(got)); n != sanitize.MaxTextLength {
		t.Errorf("rune length = %d, want %d", n, sanitize.MaxTextLength)
	}
}

func TestOptionalText(t *testing.T) {
	if got := sanitize.OptionalText(nil); got != nil {
		t.Errorf("OptionalText(nil) = %v, want nil", *got)
	}

	blank := "  <> "
	if got := sanitize.OptionalText(&blank); got != nil {
		t.Errorf("OptionalText(%q) = %q, want nil", blank, *got)
	}

	v := " 12345 "
	got := sanitize.OptionalText(&v)
	if got == nil || *got != "12345" {
		t.Errorf("OptionalText(%q) = %v, want 12345", v, got)
	}
}
