package content

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Merge applies patch onto base as an RFC 7386 merge patch: nested objects
// are merged key by key, arrays and scalars replace, null removes a key.
func Merge(base, patch json.RawMessage) (json.RawMessage, error) {
	base = normalize(base)
	if len(patch) == 0 {
		return base, nil
	}
	patch = normalize(patch)
	if !isObject(patch) {
		return nil, fmt.Errorf("%w: patch must be a JSON object", ErrInvalidContent)
	}

	merged, err := jsonpatch.MergePatch(base, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return merged, nil
}

// MergeTyped merges patch into base and validates the result against kind.
func MergeTyped(kind string, base, patch json.RawMessage) (json.RawMessage, error) {
	merged, err := Merge(base, patch)
	if err != nil {
		return nil, err
	}
	if _, err := Decode(kind, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// MergeStyle merges a style patch and sanitizes every string in the result.
func MergeStyle(base, patch json.RawMessage) (json.RawMessage, error) {
	merged, err := Merge(base, patch)
	if err != nil {
		return nil, err
	}
	return Sanitize(merged)
}
