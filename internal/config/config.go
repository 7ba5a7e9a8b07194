// Package config holds the execution core's runtime settings: lock
// scheduling timeouts, default isolation level, and logging, loaded the
// same env-first way the teacher's server configuration was.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the execution core.
type Config struct {
	Locking LockingConfig
	Logging LoggingConfig
}

// LockingConfig controls the concurrency manager.
type LockingConfig struct {
	// LockTimeout bounds how long a command waits to acquire a table lock
	// before failing with a timeout error.
	LockTimeout time.Duration
	// DeadlockCheckInterval is validated (it must be positive) and reported
	// by String. core.NewDatabaseFromConfig does not pass it on: a blocked
	// lock request in locking.Manager re-checks the wait-for graph at a
	// fixed 1ms poll interval.
	DeadlockCheckInterval time.Duration
	// DefaultIsolation names an isolation level and is validated against
	// the four known names. core.NewDatabaseFromConfig does not read it;
	// TransactionManager.BeginDefault always begins at Serializable.
	DefaultIsolation string
}

// LoggingConfig controls the logger every command path's log scope writes
// rollback diagnostics through.
type LoggingConfig struct {
	Level string
	// Pretty selects zerolog's human-readable console writer instead of
	// JSON; meant for local development, not production logs.
	Pretty bool
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Locking: LockingConfig{
			LockTimeout:           10 * time.Second,
			DeadlockCheckInterval: time.Millisecond,
			DefaultIsolation:      "serializable",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// LoadFromEnv loads configuration from environment variables, falling back
// to defaults.
func LoadFromEnv() *Config {
	cfg := Default()

	if timeoutStr := os.Getenv("TXCORE_LOCK_TIMEOUT_MS"); timeoutStr != "" {
		if ms, err := strconv.Atoi(timeoutStr); err == nil {
			cfg.Locking.LockTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if intervalStr := os.Getenv("TXCORE_DEADLOCK_CHECK_INTERVAL_MS"); intervalStr != "" {
		if ms, err := strconv.Atoi(intervalStr); err == nil {
			cfg.Locking.DeadlockCheckInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if isolation := os.Getenv("TXCORE_DEFAULT_ISOLATION"); isolation != "" {
		cfg.Locking.DefaultIsolation = isolation
	}
	if level := os.Getenv("TXCORE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if pretty := os.Getenv("TXCORE_LOG_PRETTY"); pretty != "" {
		if b, err := strconv.ParseBool(pretty); err == nil {
			cfg.Logging.Pretty = b
		}
	}

	return cfg
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Locking.LockTimeout <= 0 {
		return fmt.Errorf("lock timeout must be positive: %s", c.Locking.LockTimeout)
	}
	if c.Locking.DeadlockCheckInterval <= 0 {
		return fmt.Errorf("deadlock check interval must be positive: %s", c.Locking.DeadlockCheckInterval)
	}
	switch c.Locking.DefaultIsolation {
	case "read_uncommitted", "read_committed", "repeatable_read", "serializable":
	default:
		return fmt.Errorf("unknown default isolation level: %s", c.Locking.DefaultIsolation)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Logging.Level)
	}
	return nil
}

// String returns a formatted string representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf(`Execution Core Configuration:
  Locking:
    Lock Timeout: %s
    Deadlock Check Interval: %s
    Default Isolation: %s
  Logging:
    Level: %s
    Pretty: %v`,
		c.Locking.LockTimeout, c.Locking.DeadlockCheckInterval, c.Locking.DefaultIsolation,
		c.Logging.Level, c.Logging.Pretty)
}
