// Package storage defines the contract for map summary backends.
package storage

import (
	"errors"

	"github.com/fates3gx/sdk/pkg/core"
)

// ErrNoSession is returned when a summary arrives before StartSession.
var ErrNoSession = errors.New("no session started")

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession() error

	// RecordMapSummary stores one finished map.
	RecordMapSummary(s *core.MapSummary) error
}

// Exporter is an optional interface for backends that produce a file.
type Exporter interface {
	ExportedFilePath() string
}
