package notes

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/JaimeStill/delivery-notes/internal/sanitize"
	"github.com/JaimeStill/delivery-notes/pkg/decode"
)

// Length bounds for note text fields, counted in characters after trimming.
const (
	MinDisplayNameLength = 1
	MinCompanyNameLength = 2
	MaxFieldLength       = sanitize.MaxTextLength
)

// immutableFields may not appear in a patch body.
var immutableFields = []string{"pageNumbers", "documentId", "displayName", "companyName", "origin"}

// ParseCreate decodes a manual create body. Keys may be camelCase or
// snake_case.
func ParseCreate(body []byte) (CreateCommand, error) {
	obj, err := decode.Object(body)
	if err != nil {
		return CreateCommand{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var cmd CreateCommand
	cmd.Origin = OriginManual

	rawID, _, err := obj.String("documentId")
	if err != nil {
		return cmd, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if cmd.DocumentID, err = uuid.Parse(rawID); err != nil {
		return cmd, fmt.Errorf("%w: documentId must be a uuid", ErrValidation)
	}

	if cmd.DisplayName, err = requiredText(obj, "displayName", MinDisplayNameLength); err != nil {
		return cmd, err
	}
	if cmd.CompanyName, err = requiredText(obj, "companyName", MinCompanyNameLength); err != nil {
		return cmd, err
	}

	optional := []struct {
		name string
		dst  **string
	}{
		{"deliveryDate", &cmd.DeliveryDate},
		{"deliveryNoteNumber", &cmd.DeliveryNoteNumber},
		{"shippingId", &cmd.ShippingID},
		{"customerNumber", &cmd.CustomerNumber},
	}
	for _, o := range optional {
		v, _, err := optionalText(obj, o.name)
		if err != nil {
			return cmd, err
		}
		*o.dst = v
	}

	pages, ok, err := obj.Ints("pageNumbers")
	if err != nil {
		return cmd, fmt.Errorf("%w: pageNumbers must be an array of integers", ErrValidation)
	}
	if !ok || len(pages) == 0 {
		return cmd, fmt.Errorf("%w: pageNumbers is required", ErrValidation)
	}
	if cmd.PageNumbers, err = normalizePages(pages); err != nil {
		return cmd, err
	}

	return cmd, nil
}

// ParsePatch decodes a patch body. Only the optional metadata fields may be
// changed.
func ParsePatch(body []byte) (UpdateCommand, error) {
	obj, err := decode.Object(body)
	if err != nil {
		return UpdateCommand{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	for _, name := range immutableFields {
		if obj.Has(name) {
			return UpdateCommand{}, fmt.Errorf("%w: %s cannot be changed", ErrValidation, name)
		}
	}

	var cmd UpdateCommand
	fields := []struct {
		name string
		dst  *FieldUpdate
	}{
		{"deliveryDate", &cmd.DeliveryDate},
		{"deliveryNoteNumber", &cmd.DeliveryNoteNumber},
		{"shippingId", &cmd.ShippingID},
		{"customerNumber", &cmd.CustomerNumber},
	}
	for _, f := range fields {
		v, set, err := optionalText(obj, f.name)
		if err != nil {
			return cmd, err
		}
		*f.dst = FieldUpdate{Set: set, Value: v}
	}

	return cmd, nil
}

func requiredText(obj decode.Fields, name string, minLen int) (string, error) {
	raw, _, err := obj.String(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s must be a string", ErrValidation, name)
	}

	trimmed := strings.TrimSpace(raw)
	if utf8.RuneCountInString(trimmed) > MaxFieldLength {
		return "", fmt.Errorf("%w: %s must be at most %d characters", ErrValidation, name, MaxFieldLength)
	}

	clean := sanitize.Text(trimmed)
	if utf8.RuneCountInString(clean) < minLen {
		return "", fmt.Errorf("%w: %s must be at least %d characters", ErrValidation, name, minLen)
	}
	return clean, nil
}

func optionalText(obj decode.Fields, name string) (*string, bool, error) {
	v, set, err := obj.OptionalString(name)
	if err != nil {
		return nil, set, fmt.Errorf("%w: %s must be a string", ErrValidation, name)
	}
	if v != nil && utf8.RuneCountInString(strings.TrimSpace(*v)) > MaxFieldLength {
		return nil, set, fmt.Errorf("%w: %s must be at most %d characters", ErrValidation, name, MaxFieldLength)
	}
	return sanitize.OptionalText(v), set, nil
}

// normalizePages validates and sorts page numbers. Duplicates are rejected.
func normalizePages(pages []int) ([]int, error) {
	out := slices.Clone(pages)
	slices.Sort(out)

	for i, p := range out {
		if p < 1 {
			return nil, fmt.Errorf("%w: page numbers start at 1, got %d", ErrValidation, p)
		}
		if i > 0 && out[i-1] == p {
			return nil, fmt.Errorf("%w: duplicate page number %d", ErrValidation, p)
		}
	}
	return out, nil
}
