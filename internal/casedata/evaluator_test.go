package casedata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const caseJSON = `{
  "pv_case": {
    "identifier": "CASE-001",
    "patient": {"gender": "Female", "age": 54},
    "events": [
      {"name": "x", "meddra_code": "10013968"},
      {"name": "y"},
      {"other": true}
    ],
    "empty": []
  }
}`

func newEvaluator(t *testing.T, raw string) *Evaluator {
	t.Helper()
	rec, err := FromBytes([]byte(raw))
	require.NoError(t, err)
	return NewEvaluator(rec)
}

func TestResolveNestedPath(t *testing.T) {
	e := newEvaluator(t, caseJSON)

	value, ok := e.Resolve("pv_case.patient.gender")
	require.True(t, ok)
	assert.Equal(t, "Female", value)

	value, ok = e.Resolve("pv_case.patient.age")
	require.True(t, ok)
	assert.Equal(t, float64(54), value)
}

func TestResolveIndexedSegment(t *testing.T) {
	e := newEvaluator(t, caseJSON)

	value, ok := e.Resolve("pv_case.events[0].name")
	require.True(t, ok)
	assert.Equal(t, "x", value)

	value, ok = e.Resolve("pv_case.events[1].name")
	require.True(t, ok)
	assert.Equal(t, "y", value)
}

func TestResolveMissesAreAbsent(t *testing.T) {
	e := newEvaluator(t, caseJSON)

	cases := []string{
		"pv_case.nonexistent",
		"pv_case.patient.nonexistent",
		"pv_case.events[9].name",
		"pv_case.events[2].name",
		"pv_case.empty[0].name",
		"pv_case.identifier.deeper",
		"pv_case.patient[0]",
		"",
	}
	for _, path := range cases {
		_, ok := e.Resolve(path)
		assert.False(t, ok, "path %q should be absent", path)
	}
}

func TestResolveAgainstEmptyArray(t *testing.T) {
	e := newEvaluator(t, `{"events": []}`)

	_, ok := e.Resolve("events[0].name")
	assert.False(t, ok)
}

func TestResolveIndexedAppliesToArrays(t *testing.T) {
	e := newEvaluator(t, caseJSON)

	value, ok := e.ResolveIndexed("pv_case.events.name", 1)
	require.True(t, ok)
	assert.Equal(t, "y", value)

	// The indexed element does not carry the segment.
	_, ok = e.ResolveIndexed("pv_case.events.name", 2)
	assert.False(t, ok)

	// Out of range.
	_, ok = e.ResolveIndexed("pv_case.events.name", 5)
	assert.False(t, ok)
}

func TestResolveField(t *testing.T) {
	e := newEvaluator(t, caseJSON)

	values := e.ResolveField("pv_case.events", "name")
	assert.Equal(t, []any{"x", "y"}, values)

	assert.Nil(t, e.ResolveField("pv_case.events", "missing"))
	assert.Nil(t, e.ResolveField("pv_case.patient", "gender"))
	assert.Nil(t, e.ResolveField("pv_case.nonexistent", "name"))
}

func TestLengthOf(t *testing.T) {
	e := newEvaluator(t, caseJSON)

	assert.Equal(t, 3, e.LengthOf("pv_case.events"))
	assert.Equal(t, 0, e.LengthOf("pv_case.empty"))
	assert.Equal(t, 0, e.LengthOf("pv_case.patient"))
	assert.Equal(t, 0, e.LengthOf("pv_case.nonexistent"))
}

func TestRecordUnwrapsEnvelopes(t *testing.T) {
	wrapped := `{"input_json": {"data": {"pv_case": {"identifier": "A"}}}}`
	e := newEvaluator(t, wrapped)
	value, ok := e.Resolve("pv_case.identifier")
	require.True(t, ok)
	assert.Equal(t, "A", value)

	data := `{"data": {"pv_case": {"identifier": "B"}}}`
	e = newEvaluator(t, data)
	value, ok = e.Resolve("pv_case.identifier")
	require.True(t, ok)
	assert.Equal(t, "B", value)

	bare := `{"pv_case": {"identifier": "C"}}`
	e = newEvaluator(t, bare)
	value, ok = e.Resolve("pv_case.identifier")
	require.True(t, ok)
	assert.Equal(t, "C", value)
}

func TestRecordRootKeepsEnvelope(t *testing.T) {
	rec, err := FromBytes([]byte(`{"data": {"pv_case": {}}}`))
	require.NoError(t, err)

	root, ok := rec.Root().(map[string]any)
	require.True(t, ok)
	assert.Contains(t, root, "data")

	base, ok := rec.Base().(map[string]any)
	require.True(t, ok)
	assert.Contains(t, base, "pv_case")
}

func TestFromBytesRejectsMalformedJSON(t *testing.T) {
	_, err := FromBytes([]byte(`{"pv_case": `))
	assert.Error(t, err)
}
