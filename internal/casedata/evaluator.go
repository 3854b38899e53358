package casedata

import (
	"regexp"
	"strconv"
	"strings"
)

var indexedSegment = regexp.MustCompile(`^(\w+)\[(\d+)\]$`)

// Evaluator resolves dotted path expressions against a case record. All
// lookup misses (missing key, wrong type, out-of-range index) yield absence,
// reported through the second return value, never an error.
type Evaluator struct {
	rec *Record
}

// NewEvaluator creates an evaluator over the given record. The record is
// referenced, not copied, and must outlive the evaluator.
func NewEvaluator(rec *Record) *Evaluator {
	return &Evaluator{rec: rec}
}

// Resolve walks a dotted path like "pv_case.patient.gender" or
// "pv_case.events[0].name" from the base payload and returns the referenced
// value. The boolean is false when any step of the walk misses.
func (e *Evaluator) Resolve(path string) (any, bool) {
	return e.resolve(path, -1)
}

// ResolveIndexed resolves a path with an explicit array index that is applied
// whenever the walk lands on an array: the index selects the element and the
// current segment is then looked up on that element.
func (e *Evaluator) ResolveIndexed(path string, index int) (any, bool) {
	return e.resolve(path, index)
}

func (e *Evaluator) resolve(path string, index int) (any, bool) {
	if path == "" {
		return nil, false
	}

	current := e.rec.Base()

	for _, part := range strings.Split(path, ".") {
		if current == nil {
			return nil, false
		}

		if m := indexedSegment.FindStringSubmatch(part); m != nil {
			key := m[1]
			idx, _ := strconv.Atoi(m[2])

			obj, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			value, ok := obj[key]
			if !ok {
				return nil, false
			}
			seq, ok := value.([]any)
			if !ok || idx >= len(seq) {
				return nil, false
			}
			current = seq[idx]
			continue
		}

		if obj, ok := current.(map[string]any); ok {
			value, ok := obj[part]
			if !ok {
				return nil, false
			}
			current = value
			continue
		}

		if seq, ok := current.([]any); ok && index >= 0 && index < len(seq) {
			elem, ok := seq[index].(map[string]any)
			if !ok {
				return nil, false
			}
			value, ok := elem[part]
			if !ok {
				return nil, false
			}
			current = value
			continue
		}

		return nil, false
	}

	return current, true
}

// ResolveField resolves arrayPath to a sequence and collects the named field
// from every element that carries it. Elements missing the field are skipped.
func (e *Evaluator) ResolveField(arrayPath, field string) []any {
	value, ok := e.Resolve(arrayPath)
	if !ok {
		return nil
	}
	seq, ok := value.([]any)
	if !ok {
		return nil
	}

	var results []any
	for _, item := range seq {
		if obj, ok := item.(map[string]any); ok {
			if v, ok := obj[field]; ok {
				results = append(results, v)
			}
		}
	}
	return results
}

// LengthOf returns the element count of the sequence at arrayPath, or 0 when
// the path does not resolve to a sequence.
func (e *Evaluator) LengthOf(arrayPath string) int {
	value, ok := e.Resolve(arrayPath)
	if !ok {
		return 0
	}
	if seq, ok := value.([]any); ok {
		return len(seq)
	}
	return 0
}

// Record returns the underlying case record.
func (e *Evaluator) Record() *Record { return e.rec }
