// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FileName is the log file written under logsDir.
const FileName = "tankarena.log"

// ParseLevel maps a config level name to a zerolog level, info by default.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the logger: coloured console output on out, plus an
// uncoloured copy in logsDir/tankarena.log when logsDir is set. The returned
// closer releases the log file.
func Setup(level, logsDir string, out io.Writer) (zerolog.Logger, io.Closer, error) {
	zerolog.SetGlobalLevel(ParseLevel(level))
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	console := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	if logsDir == "" {
		return zerolog.New(console).With().Timestamp().Logger(), nopCloser{}, nil
	}

	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("creating logs dir: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(logsDir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("opening log file: %w", err)
	}
	mlw := zerolog.MultiLevelWriter(
		console,
		zerolog.ConsoleWriter{Out: file, TimeFormat: time.RFC3339, NoColor: true},
	)
	return zerolog.New(mlw).With().Timestamp().Logger(), file, nil
}
