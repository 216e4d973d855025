package extractor

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/JaimeStill/delivery-notes/pkg/decode"
)

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// ParseResponse parses a model reply into a Classification. It first tries
// the reply as JSON, then a fenced code block, then the outermost braces.
// Keys may be camelCase or snake_case; fields may be nested under "fields"
// or given at the top level. Confidence is clamped to [0, 1].
func ParseResponse(content string) (Classification, error) {
	content = strings.TrimSpace(content)

	for _, candidate := range candidates(content) {
		obj, err := decode.Object([]byte(candidate))
		if err != nil {
			continue
		}
		return fromObject(obj)
	}

	return Classification{}, fmt.Errorf("%w: could not parse JSON from response", ErrParseResponse)
}

func candidates(content string) []string {
	out := []string{content}

	if m := jsonBlockRegex.FindStringSubmatch(content); len(m) >= 2 {
		out = append(out, strings.TrimSpace(m[1]))
	}

	if start, end := strings.Index(content, "{"), strings.LastIndex(content, "}"); start >= 0 && end > start {
		out = append(out, content[start:end+1])
	}
	return out
}

func fromObject(obj decode.Fields) (Classification, error) {
	role, _, err := obj.String("role")
	if err != nil {
		return Classification{}, fmt.Errorf("%w: role: %v", ErrParseResponse, err)
	}

	confidence, _, err := decode.Value[float64](obj, "confidence")
	if err != nil {
		confidence = 0
	}

	source := obj
	if raw, ok := obj.Raw("fields"); ok && !isNull(raw) {
		nested, err := decode.Object(raw)
		if err != nil {
			return Classification{}, fmt.Errorf("%w: fields: %v", ErrParseResponse, err)
		}
		source = nested
	}

	fields, err := readFields(source)
	if err != nil {
		return Classification{}, err
	}

	return Classification{
		Role:       ParseRole(role),
		Fields:     fields,
		Confidence: clamp(confidence, 0, 1),
	}, nil
}

func readFields(obj decode.Fields) (Fields, error) {
	var f Fields
	targets := []struct {
		name string
		dst  *string
	}{
		{"deliveryNoteNumber", &f.DeliveryNoteNumber},
		{"companyName", &f.CompanyName},
		{"deliveryDate", &f.DeliveryDate},
		{"shippingId", &f.ShippingID},
		{"customerNumber", &f.CustomerNumber},
	}

	for _, t := range targets {
		raw, ok := obj.Raw(t.name)
		if !ok || isNull(raw) {
			continue
		}

		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return Fields{}, fmt.Errorf("%w: %s: %v", ErrParseResponse, t.name, err)
		}

		switch val := v.(type) {
		case string:
			*t.dst = strings.TrimSpace(val)
		case float64:
			*t.dst = strings.TrimSpace(string(raw))
		}
	}
	return f, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
