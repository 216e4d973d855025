package extractor

import "strings"

// Role is the position of a page within a delivery note.
type Role string

const (
	RoleStart        Role = "start"
	RoleContinuation Role = "continuation"
	RoleUnknown      Role = "unknown"
)

// ParseRole normalises a model-supplied role. Anything unrecognised is unknown.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStart:
		return RoleStart
	case RoleContinuation:
		return RoleContinuation
	default:
		return RoleUnknown
	}
}

// Fields holds the metadata a model read from a page. Empty means not found.
type Fields struct {
	DeliveryNoteNumber string `json:"deliveryNoteNumber,omitempty"`
	CompanyName        string `json:"companyName,omitempty"`
	DeliveryDate       string `json:"deliveryDate,omitempty"`
	ShippingID         string `json:"shippingId,omitempty"`
	CustomerNumber     string `json:"customerNumber,omitempty"`
}

// Empty reports whether no field is set.
func (f Fields) Empty() bool {
	return f == Fields{}
}

// Fill copies values from other into fields that are empty in f.
func (f Fields) Fill(other Fields) Fields {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&f.DeliveryNoteNumber, other.DeliveryNoteNumber)
	fill(&f.CompanyName, other.CompanyName)
	fill(&f.DeliveryDate, other.DeliveryDate)
	fill(&f.ShippingID, other.ShippingID)
	fill(&f.CustomerNumber, other.CustomerNumber)
	return f
}

// Classification is the extractor's verdict for one page.
type Classification struct {
	Page       int     `json:"page"`
	Role       Role    `json:"role"`
	Fields     Fields  `json:"fields"`
	Confidence float64 `json:"confidence"`
}

// Unknown returns an unknown classification for page.
func Unknown(page int) Classification {
	return Classification{Page: page, Role: RoleUnknown}
}

// Request identifies a page and carries its payload. Image is set in image
// mode, Text in text mode.
type Request struct {
	DocumentID  string
	ContentHash string
	Page        int
	Image       []byte
	Text        string
}
