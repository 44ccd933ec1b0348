// Package logging builds the process loggers: a slog fan-out to file or
// console and OTel, and a zerolog adapter for console tools.
package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath returns <logsDir>/<name>_<start>.log.
func LogFilePath(logsDir, name string, sessionStart time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", name, sessionStart.Format("20060102_150405")))
}
