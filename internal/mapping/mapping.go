package mapping

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

// Marker used in mapping CSV paths that target one field across every
// element of an array, e.g. "pv_case.events[_ID_].meddra_code".
const repeatMarker = "[_ID_]"

// internalPrefix marks tags that only exist for internal bookkeeping and
// are never written to the output document.
const internalPrefix = "__"

// Category classifies a mapping entry.
type Category int

const (
	Plain Category = iota
	Repeating
	Internal
)

func (c Category) String() string {
	switch c {
	case Plain:
		return "plain"
	case Repeating:
		return "repeating"
	case Internal:
		return "internal"
	}
	return "unknown"
}

// Table holds the E2B tag to JSON path mappings, categorized at load time.
// It is immutable after Load returns.
type Table struct {
	plain     map[string]string
	repeating map[string]string
	internal  map[string]string
}

// Load reads mapping rows from r. Each row is (e2bTag, jsonPath, ...ignored).
// Rows with fewer than two columns, an empty path or a path starting with
// "TBD" are skipped. Tags starting with "__" are internal, paths containing
// the [_ID_] marker are repeating and stored with the marker removed.
func Load(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	t := &Table{
		plain:     make(map[string]string),
		repeating: make(map[string]string),
		internal:  make(map[string]string),
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read mapping row: %w", err)
		}
		if len(row) < 2 {
			continue
		}

		tag := strings.TrimSpace(row[0])
		path := strings.TrimSpace(row[1])

		if path == "" || strings.HasPrefix(path, "TBD") {
			continue
		}

		switch {
		case strings.HasPrefix(tag, internalPrefix):
			t.internal[tag] = path
		case strings.Contains(path, repeatMarker):
			t.repeating[tag] = strings.ReplaceAll(path, repeatMarker, "")
		default:
			t.plain[tag] = path
		}
	}

	return t, nil
}

// LoadFile loads a mapping table from a CSV file on disk.
func LoadFile(path string, log zerolog.Logger) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping file %s: %w", path, err)
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping file %s: %w", path, err)
	}

	log.Debug().
		Str("file", path).
		Int("plain", len(t.plain)).
		Int("repeating", len(t.repeating)).
		Int("internal", len(t.internal)).
		Msg("Loaded mapping table")

	return t, nil
}

// Lookup returns the JSON path for an E2B tag and whether the path repeats
// over an array. Unknown tags yield ("", false).
func (t *Table) Lookup(tag string) (string, bool) {
	if path, ok := t.plain[tag]; ok {
		return path, false
	}
	if path, ok := t.repeating[tag]; ok {
		return path, true
	}
	if path, ok := t.internal[tag]; ok {
		return path, false
	}
	return "", false
}

// CategoryOf returns the category a tag was classified into.
func (t *Table) CategoryOf(tag string) (Category, bool) {
	if _, ok := t.plain[tag]; ok {
		return Plain, true
	}
	if _, ok := t.repeating[tag]; ok {
		return Repeating, true
	}
	if _, ok := t.internal[tag]; ok {
		return Internal, true
	}
	return Plain, false
}

// IsInternal reports whether the tag is an internal bookkeeping entry.
func (t *Table) IsInternal(tag string) bool {
	_, ok := t.internal[tag]
	return ok
}

// PublicMappings returns all plain and repeating mappings, excluding
// internal ones.
func (t *Table) PublicMappings() map[string]string {
	out := make(map[string]string, len(t.plain)+len(t.repeating))
	for tag, path := range t.plain {
		out[tag] = path
	}
	for tag, path := range t.repeating {
		out[tag] = path
	}
	return out
}

// RepeatingTags returns the sorted list of tags whose paths repeat over
// array elements.
func (t *Table) RepeatingTags() []string {
	tags := make([]string, 0, len(t.repeating))
	for tag := range t.repeating {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// Len returns the total number of loaded entries across all categories.
func (t *Table) Len() int {
	return len(t.plain) + len(t.repeating) + len(t.internal)
}

func (t *Table) String() string {
	return fmt.Sprintf("mapping.Table(plain=%d, repeating=%d, internal=%d)",
		len(t.plain), len(t.repeating), len(t.internal))
}
