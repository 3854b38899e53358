package casedata

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSourceRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pv_case": {"identifier": "F1"}}`), 0644))

	record, err := NewFileSource(path, zerolog.Nop()).Read()
	require.NoError(t, err)

	value, ok := NewEvaluator(record).Resolve("pv_case.identifier")
	require.True(t, ok)
	assert.Equal(t, "F1", value)
}

func TestFileSourceMissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "absent.json"), zerolog.Nop()).Read()
	assert.Error(t, err)
}

func TestFileSourceMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	_, err := NewFileSource(path, zerolog.Nop()).Read()
	assert.Error(t, err)
}

func TestHTTPSourceRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pv_case": {"identifier": "H1"}}`))
	}))
	defer srv.Close()

	record, err := NewHTTPSource(srv.URL, zerolog.Nop()).Read()
	require.NoError(t, err)

	value, ok := NewEvaluator(record).Resolve("pv_case.identifier")
	require.True(t, ok)
	assert.Equal(t, "H1", value)
}

func TestHTTPSourceRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, zerolog.Nop()).Read()
	assert.Error(t, err)
}

func TestOpenPicksSourceByScheme(t *testing.T) {
	assert.IsType(t, &HTTPSource{}, Open("http://example.com/case.json", zerolog.Nop()))
	assert.IsType(t, &HTTPSource{}, Open("https://example.com/case.json", zerolog.Nop()))
	assert.IsType(t, &FileSource{}, Open("case.json", zerolog.Nop()))
}
