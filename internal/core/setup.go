package core

import (
	"os"

	"github.com/nmemory-go/txcore/internal/catalog"
	"github.com/nmemory-go/txcore/internal/config"
	"github.com/nmemory-go/txcore/internal/locking"
	"github.com/rs/zerolog"
)

// NewDatabaseFromConfig builds a Database around schema, wiring its
// concurrency manager and logger from cfg the way the teacher's server
// wired a storage engine and buffer pool from its own Config.
func NewDatabaseFromConfig(schema *catalog.Schema, cfg *config.Config) *Database {
	var writer = zerolog.ConsoleWriter{Out: os.Stderr}
	var logger zerolog.Logger
	if cfg.Logging.Pretty {
		logger = zerolog.New(writer).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	logger = logger.Level(parseLevel(cfg.Logging.Level))

	concurrency := locking.NewManager(cfg.Locking.LockTimeout)
	return NewDatabase(schema, concurrency, logger)
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseIsolation maps a config isolation name to an IsolationLevel, for
// TransactionManager.Begin. Unknown names fall back to Serializable, the
// core's only actually-enforced level.
func ParseIsolation(name string) IsolationLevel {
	switch name {
	case "read_uncommitted":
		return ReadUncommitted
	case "read_committed":
		return ReadCommitted
	case "repeatable_read":
		return RepeatableRead
	default:
		return Serializable
	}
}
