// Package decode reads JSON objects whose keys may arrive in either
// camelCase or snake_case. Callers always ask for the camelCase name; the
// snake_case spelling is derived and consulted when the camelCase key is absent.
package decode

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrNotObject is returned when the payload is not a JSON object.
var ErrNotObject = errors.New("payload must be a JSON object")

// Fields is a decoded JSON object keyed by the names as sent.
type Fields map[string]json.RawMessage

// Object decodes data into Fields.
func Object(data []byte) (Fields, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var syntax *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotObject
		}
		if errors.As(err, &syntax) {
			return nil, fmt.Errorf("malformed JSON: %w", err)
		}
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotObject
	}
	return Fields(raw), nil
}

// Snake converts a camelCase name to snake_case.
func Snake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Raw returns the raw value for name and whether either spelling was present.
func (f Fields) Raw(name string) (json.RawMessage, bool) {
	if v, ok := f[name]; ok {
		return v, true
	}
	if v, ok := f[Snake(name)]; ok {
		return v, true
	}
	return nil, false
}

// Has reports whether name was sent in either spelling.
func (f Fields) Has(name string) bool {
	_, ok := f.Raw(name)
	return ok
}

// Value decodes the field into T. The boolean reports presence; an explicit
// null is present and decodes to the zero value.
func Value[T any](f Fields, name string) (T, bool, error) {
	var v T
	raw, ok := f.Raw(name)
	if !ok {
		return v, false, nil
	}
	if isNull(raw) {
		return v, true, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, true, fmt.Errorf("%s: %w", name, err)
	}
	return v, true, nil
}

// String decodes a string field.
func (f Fields) String(name string) (string, bool, error) {
	return Value[string](f, name)
}

// OptionalString decodes a nullable string field. Null and absent both yield
// nil; the boolean distinguishes them.
func (f Fields) OptionalString(name string) (*string, bool, error) {
	raw, ok := f.Raw(name)
	if !ok || isNull(raw) {
		return nil, ok, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, true, fmt.Errorf("%s: %w", name, err)
	}
	return &s, true, nil
}

// Ints decodes an array of integers.
func (f Fields) Ints(name string) ([]int, bool, error) {
	return Value[[]int](f, name)
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
