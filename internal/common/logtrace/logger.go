// Package logtrace provides logging and tracing utilities for the service.
// It bootstraps zerolog for structured logging and exposes the request id
// stored in the context by the request logger middleware.
package logtrace

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global logger with Unix timestamp format,
// writing to stderr.
func InitLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
