package casedata

import (
	"encoding/json"
	"fmt"
)

// Record is a parsed pharmacovigilance case document. The raw input may wrap
// the actual payload in an envelope ({"input_json": {"data": ...}} or
// {"data": ...}); Record keeps both the root document and the unwrapped base
// payload that all mapping paths are relative to.
type Record struct {
	root any
	base any
}

// NewRecord wraps an already-decoded JSON value.
func NewRecord(root any) *Record {
	r := &Record{root: root, base: root}

	m, ok := root.(map[string]any)
	if !ok {
		return r
	}
	if inner, ok := m["input_json"].(map[string]any); ok {
		if data, ok := inner["data"]; ok {
			r.base = data
			return r
		}
	}
	if data, ok := m["data"]; ok {
		r.base = data
	}
	return r
}

// FromBytes decodes raw JSON into a Record.
func FromBytes(data []byte) (*Record, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode case JSON: %w", err)
	}
	return NewRecord(decoded), nil
}

// Root returns the raw document as decoded, envelope included.
func (r *Record) Root() any { return r.root }

// Base returns the unwrapped case payload.
func (r *Record) Base() any { return r.base }
