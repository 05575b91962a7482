package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/jsonc"
)

// JSONC parses JSON extended with // line comments, /* block comments */
// and trailing commas. Plain JSON is a subset.
type JSONC struct{}

// JSONCParser returns a koanf parser for JSONC documents
func JSONCParser() *JSONC {
	return &JSONC{}
}

// Unmarshal strips comments and trailing commas, then decodes the object.
// Integers decode as int64 so they keep their exact value, other numbers as
// float64. No json.Number leaves the parser: it would be indistinguishable
// from a string once the document is encoded for its digest.
func (p *JSONC) Unmarshal(b []byte) (map[string]interface{}, error) {
	stripped := jsonc.ToJSON(b)

	dec := json.NewDecoder(bytes.NewReader(stripped))
	dec.UseNumber()

	var out map[string]interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("parsing jsonc: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parsing jsonc: unexpected data after top-level object")
	}
	if out == nil {
		return nil, fmt.Errorf("parsing jsonc: top-level value must be an object")
	}

	normalized, err := normalizeNumbers(out)
	if err != nil {
		return nil, fmt.Errorf("parsing jsonc: %w", err)
	}
	return normalized.(map[string]interface{}), nil
}

// normalizeNumbers replaces every json.Number in v with an int64 or float64
func normalizeNumbers(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return nil, fmt.Errorf("number %s is out of range", t)
		}
		return f, nil
	case map[string]interface{}:
		for k, item := range t {
			n, err := normalizeNumbers(item)
			if err != nil {
				return nil, err
			}
			t[k] = n
		}
		return t, nil
	case []interface{}:
		for i, item := range t {
			n, err := normalizeNumbers(item)
			if err != nil {
				return nil, err
			}
			t[i] = n
		}
		return t, nil
	default:
		return v, nil
	}
}

// Marshal encodes the map as indented JSON
func (p *JSONC) Marshal(o map[string]interface{}) ([]byte, error) {
	return json.MarshalIndent(o, "", "  ")
}
