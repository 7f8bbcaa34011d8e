// Package logging builds the logrus logger shared by a pelias invocation.
package logging

import (
	"io"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = log.WarnLevel

// New returns a logger writing text entries to w. Every entry carries the
// run_id of this invocation. An unknown level falls back to DefaultLevel and
// is reported once at warn level.
func New(w io.Writer, level string) *log.Entry {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: true})
	logger.SetLevel(DefaultLevel)

	entry := logger.WithField("run_id", uuid.NewString())

	level = strings.TrimSpace(level)
	if level == "" {
		return entry
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		entry.Warnf("invalid log level %s, defaulting to %s", level, DefaultLevel)
		return entry
	}
	logger.SetLevel(parsed)
	return entry
}

// Discard returns a logger that drops everything.
func Discard() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return log.NewEntry(logger)
}
