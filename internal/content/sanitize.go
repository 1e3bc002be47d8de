package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.UGCPolicy()

// SanitizeString strips unsafe markup. Plain text without angle brackets is
// returned unchanged so ampersands and quotes survive repeated saves.
func SanitizeString(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}
	return policy.Sanitize(s)
}

// Sanitize walks a JSON document and sanitizes every string leaf.
func Sanitize(raw json.RawMessage) (json.RawMessage, error) {
	raw = normalize(raw)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrInvalidContent)
	}
	cleaned, err := json.Marshal(sanitizeValue(doc))
	if err != nil {
		return nil, fmt.Errorf("sanitize content: %w", err)
	}
	return cleaned, nil
}

func sanitizeValue(v any) any {
	switch t := v.(type) {
	case string:
		return SanitizeString(t)
	case map[string]any:
		for k, item := range t {
			t[k] = sanitizeValue(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = sanitizeValue(item)
		}
		return t
	default:
		return v
	}
}
