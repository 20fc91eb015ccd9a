package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

const (
	// EnvLogLevel selects the log level when no flag or config value is given.
	EnvLogLevel = "PADCIPHER_LOG_LEVEL"
	// EnvJSONLog switches output to JSON lines when set to "1".
	EnvJSONLog = "PADCIPHER_JSON_LOG"

	linePrefix = "🎲 "
)

// NewLogger creates a new hclog logger with standard settings
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := os.Getenv(EnvJSONLog) == "1"
	if !jsonFormat {
		output = NewPrefixWriter(linePrefix, output)
	}

	opts := &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	}

	return hclog.New(opts)
}

// ResolveLogLevel returns the first non-empty level among candidates, then
// the environment, then "warn".
func ResolveLogLevel(candidates ...string) string {
	for _, level := range candidates {
		if strings.TrimSpace(level) != "" {
			return level
		}
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		return level
	}
	return "warn" // Default to warn for production safety
}
