package extractor_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/delivery-notes/internal/extractor"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    extractor.Classification
	}{
		{
			name:    "direct json",
			content: `{"role":"start","confidence":0.92,"fields":{"deliveryNoteNumber":"FS-1001","companyName":"Acme A/S"}}`,
			want: extractor.Classification{
				Role:       extractor.RoleStart,
				Confidence: 0.92,
				Fields:     extractor.Fields{DeliveryNoteNumber: "FS-1001", CompanyName: "Acme A/S"},
			},
		},
		{
			name:    "code block with snake case",
			content: "Here you go:\n```json\n{\"role\": \"continuation\", \"confidence\": 0.5, \"fields\": {\"shipping_id\": \"SH-9\"}}\n```",
			want: extractor.Classification{
				Role:       extractor.RoleContinuation,
				Confidence: 0.5,
				Fields:     extractor.Fields{ShippingID: "SH-9"},
			},
		},
		{
			name:    "prose around braces",
			content: `The answer is {"role":"START","confidence":1} as requested.`,
			want:    extractor.Classification{Role: extractor.RoleStart, Confidence: 1},
		},
		{
			name:    "top level fields",
			content: `{"role":"start","customerNumber":"C-77","delivery_date":"2024-03-01"}`,
			want: extractor.Classification{
				Role:   extractor.RoleStart,
				Fields: extractor.Fields{CustomerNumber: "C-77", DeliveryDate: "2024-03-01"},
			},
		},
		{
			name:    "numeric field",
			content: `{"role":"start","fields":{"deliveryNoteNumber":12345}}`,
			want: extractor.Classification{
				Role:   extractor.RoleStart,
				Fields: extractor.Fields{DeliveryNoteNumber: "12345"},
			},
		},
		{
			name:    "clamped confidence and unknown role",
			content: `{"role":"cover-page","confidence":7.5}`,
			want:    extractor.Classification{Role: extractor.RoleUnknown, Confidence: 1},
		},
		{
			name:    "negative confidence",
			content: `{"role":"continuation","confidence":-2}`,
			want:    extractor.Classification{Role: extractor.RoleContinuation, Confidence: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractor.ParseResponse(tt.content)
			if err != nil {
				t.Fatalf("ParseResponse() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseResponse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseResponse_Invalid(t *testing.T) {
	for _, content := range []string{"", "no json here", "[1,2,3]", "```json\nnot json\n```"} {
		_, err := extractor.ParseResponse(content)
		if !errors.Is(err, extractor.ErrParseResponse) {
			t.Errorf("ParseResponse(%q) error = %v, want ErrParseResponse", content, err)
		}
	}
}

func TestFields_Fill(t *testing.T) {
	start := extractor.Fields{DeliveryNoteNumber: "A1"}
	later := extractor.Fields{DeliveryNoteNumber: "B2", CompanyName: "Acme"}

	got := start.Fill(later)
	if got.DeliveryNoteNumber != "A1" {
		t.Errorf("DeliveryNoteNumber = %q, want A1", got.DeliveryNoteNumber)
	}
	if got.CompanyName != "Acme" {
		t.Errorf("CompanyName = %q, want Acme", got.CompanyName)
	}
}
