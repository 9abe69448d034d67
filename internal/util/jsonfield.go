package util

import (
	"fmt"

	"github.com/PaesslerAG/jsonpath"
	"github.com/tidwall/gjson"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ExtractStringField performs a lightweight extraction of a single
// top-level string field from a JSON body, avoiding a full unmarshal on
// the hot path — grounded on the teacher's translator.ExtractModelName.
func ExtractStringField(body []byte, field string) (string, bool) {
	if len(body) == 0 {
		return "", false
	}
	result := gjson.GetBytes(body, field)
	if !result.Exists() || result.Type != gjson.String {
		return "", false
	}
	return result.Str, true
}

// ExtractBoolField extracts a single top-level boolean field, reporting
// false when the field is missing or not a boolean.
func ExtractBoolField(body []byte, field string) bool {
	result := gjson.GetBytes(body, field)
	return result.Exists() && result.Type == gjson.True
}

// DataExtractor pulls the translated text out of an upstream response body
// at a configurable JSON path (default "$.data"); the path string is kept
// and evaluated with jsonpath.Get on every call. This lets an operator point the gateway at an upstream whose translation
// sits at a different JSON path without a code change.
type DataExtractor struct {
	path string
}

func NewDataExtractor(path string) *DataExtractor {
	if path == "" {
		path = "$.data"
	}
	return &DataExtractor{path: path}
}

// Extract returns the value at the configured path as a string: a JSON
// string as-is, any other non-null value formatted with %v. It returns an
// error if the body doesn't parse or the path is missing or null.
func (d *DataExtractor) Extract(body []byte) (string, error) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	result, err := jsonpath.Get(d.path, v)
	if err != nil {
		return "", fmt.Errorf("invalid response format - missing %q field", d.path)
	}

	switch s := result.(type) {
	case string:
		return s, nil
	case nil:
		return "", fmt.Errorf("invalid response format - missing %q field", d.path)
	default:
		return fmt.Sprintf("%v", s), nil
	}
}
