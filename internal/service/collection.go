package service

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// collectionKeys is the fallback order used when the platform wraps a list
// in an object instead of returning a bare array.
var collectionKeys = []string{"elements", "data", "devices"}

// UnwrapCollection returns the JSON array held by raw. raw may be a bare
// array, or an object exposing the array under one of collectionKeys (first
// match wins). Anything else, including null, yields an empty array.
func UnwrapCollection(raw []byte) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return json.RawMessage("[]")
	}

	switch raw[0] {
	case '[':
		return json.RawMessage(raw)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return json.RawMessage("[]")
		}
		for _, key := range collectionKeys {
			v := bytes.TrimSpace(obj[key])
			if len(v) > 0 && v[0] == '[' {
				return json.RawMessage(v)
			}
		}
	}
	return json.RawMessage("[]")
}

// DecodeCollection unwraps raw and decodes the array into out, which must be
// a pointer to a slice.
func DecodeCollection(raw []byte, out any) error {
	if err := json.Unmarshal(UnwrapCollection(raw), out); err != nil {
		return fmt.Errorf("decode collection: %w", err)
	}
	return nil
}
