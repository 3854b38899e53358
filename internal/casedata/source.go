package casedata

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// Source reads a case record from some backing store.
type Source interface {
	Read() (*Record, error)
}

// FileSource reads a case record from a JSON file on disk.
type FileSource struct {
	path string
	log  zerolog.Logger
}

func NewFileSource(path string, log zerolog.Logger) *FileSource {
	return &FileSource{path: path, log: log}
}

func (s *FileSource) Read() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file %s: %w", s.path, err)
	}
	s.log.Debug().Str("file", s.path).Int("bytes", len(data)).Msg("Read case file")
	return FromBytes(data)
}

// HTTPSource fetches a case record from a URL, retrying transient failures.
type HTTPSource struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

func NewHTTPSource(url string, log zerolog.Logger) *HTTPSource {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	retryClient.Logger = nil

	return &HTTPSource{
		url:    url,
		client: retryClient.StandardClient(),
		log:    log,
	}
}

func (s *HTTPSource) Read() (*Record, error) {
	resp, err := s.client.Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch case from %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch case from %s: status %d", s.url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read case response body: %w", err)
	}
	s.log.Debug().Str("url", s.url).Int("bytes", len(data)).Msg("Fetched case document")
	return FromBytes(data)
}

// SQLSource reads a case record from a database query whose first column of
// the first row is the case JSON document.
type SQLSource struct {
	db    *sqlx.DB
	query string
	log   zerolog.Logger
}

func NewSQLSource(db *sqlx.DB, query string, log zerolog.Logger) *SQLSource {
	return &SQLSource{db: db, query: query, log: log}
}

func (s *SQLSource) Read() (*Record, error) {
	var doc []byte
	if err := s.db.QueryRow(s.query).Scan(&doc); err != nil {
		return nil, fmt.Errorf("failed to query case document: %w", err)
	}
	s.log.Debug().Int("bytes", len(doc)).Msg("Read case document from database")
	return FromBytes(doc)
}

// Open picks a Source implementation for the given input reference: http(s)
// URLs are fetched over the network, anything else is treated as a file path.
func Open(ref string, log zerolog.Logger) Source {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return NewHTTPSource(ref, log)
	}
	return NewFileSource(ref, log)
}
