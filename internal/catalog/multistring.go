package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Separator joins the values of a multi-valued field into one display string.
const Separator = ", "

var errNotStringOrArray = errors.New("expected a string or an array of strings")

// MultiString holds a field the catalog sends either as a bare string or as an
// array of strings. A nil MultiString means the field was absent.
type MultiString []string

// UnmarshalJSON accepts "x" or ["x", "y"]. Empty strings are dropped, so null,
// "", [] and [""] all decode to nil.
func (m *MultiString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*m = nonEmpty([]string{single})
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errNotStringOrArray
	}
	*m = nonEmpty(many)
	return nil
}

func nonEmpty(values []string) MultiString {
	var out MultiString
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// MarshalJSON writes a single value back as a bare string.
func (m MultiString) MarshalJSON() ([]byte, error) {
	switch len(m) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(m[0])
	default:
		return json.Marshal([]string(m))
	}
}

// Collapse joins the values in source order. ok is false when the field was absent.
func (m MultiString) Collapse() (value string, ok bool) {
	if len(m) == 0 {
		return "", false
	}
	return strings.Join(m, Separator), true
}

// String returns the collapsed value, or "" when absent.
func (m MultiString) String() string {
	v, _ := m.Collapse()
	return v
}

// First returns the first value, or "" when absent.
func (m MultiString) First() string {
	if len(m) == 0 {
		return ""
	}
	return m[0]
}
