package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Manager owns a timestamped output directory for generated documents and a
// log file alongside them.
type Manager struct {
	baseDir   string
	timestamp string
	log       zerolog.Logger
}

// NewManager creates the timestamped output directory under baseDir and a
// logger that writes to both the console and a log file inside it.
func NewManager(baseDir string, log zerolog.Logger) (*Manager, error) {
	timestamp := time.Now().Format("20060102_150405")

	outputPath := filepath.Join(baseDir, timestamp)
	if err := os.MkdirAll(outputPath, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	logsDir := filepath.Join(outputPath, "logs")
	if err := os.MkdirAll(logsDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	logFile, err := os.Create(filepath.Join(logsDir, "app.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	log.Debug().Str("dir", outputPath).Msg("Created output directory")

	consoleWriter := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stdout
	})
	multiWriter := zerolog.MultiLevelWriter(consoleWriter, logFile)

	combinedLogger := zerolog.New(multiWriter).
		With().
		Timestamp().
		Caller().
		Logger()

	return &Manager{
		baseDir:   outputPath,
		timestamp: timestamp,
		log:       combinedLogger,
	}, nil
}

// WriteXML stores a rendered document under the output directory, naming it
// from the prefix and the manager's timestamp.
func (m *Manager) WriteXML(document string, prefix string) (string, error) {
	filename := fmt.Sprintf("%s_%s.xml", prefix, m.timestamp)
	outputPath := filepath.Join(m.baseDir, filename)

	if err := os.WriteFile(outputPath, []byte(document), 0644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}

	m.log.Debug().
		Str("file", outputPath).
		Str("prefix", prefix).
		Msg("Wrote document to file")

	return outputPath, nil
}

// GetLogger returns the configured logger.
func (m *Manager) GetLogger() zerolog.Logger {
	return m.log
}

// GetOutputPath returns the full path for a given filename.
func (m *Manager) GetOutputPath(filename string) string {
	return filepath.Join(m.baseDir, filename)
}

// GetBaseDir returns the base output directory.
func (m *Manager) GetBaseDir() string {
	return m.baseDir
}
