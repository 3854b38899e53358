package icsr

import "strconv"

// stringify renders a decoded JSON scalar as attribute/text content. Nil and
// non-scalar values become the empty string; whole numbers render without a
// fractional part.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

// truthy mirrors the presence rules for optional case fields: nil, false,
// empty strings, zero numbers and empty collections all count as absent.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	return true
}

// getString returns the stringified value of a key, empty when missing.
func getString(obj map[string]any, key string) string {
	value, ok := obj[key]
	if !ok {
		return ""
	}
	return stringify(value)
}

// getOr returns the stringified value of a key, or the fallback when the key
// is missing entirely.
func getOr(obj map[string]any, key, fallback string) string {
	value, ok := obj[key]
	if !ok {
		return fallback
	}
	return stringify(value)
}

// firstOf returns the first key whose value stringifies non-empty.
func firstOf(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := getString(obj, key); s != "" {
			return s
		}
	}
	return ""
}
