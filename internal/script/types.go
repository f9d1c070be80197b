package script

import (
	"time"
)

// Config defines runtime configuration
type Config struct {
	Timeout       time.Duration // Execution timeout
	MaxCallStack  int           // Maximum call stack depth, 0 for goja's default
	EnableConsole bool          // Allow console.log/warn/error/info
}

// DefaultConfig returns the runtime defaults
func DefaultConfig() Config {
	return Config{
		Timeout:       5 * time.Second,
		MaxCallStack:  1024,
		EnableConsole: true,
	}
}

// Result holds execution result
type Result struct {
	Value    interface{}   // Value of the last expression
	Console  []LogEntry    // Console output
	Changes  []Change      // Form mutations that succeeded
	Duration time.Duration // Execution time
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    // log, warn, error, info
	Message string    // Log message
	Time    time.Time // Timestamp
}

// Change is one form mutation made by a script
type Change struct {
	Op     string   // set, toggle, check, remove, reset
	Name   string   // Parameter name
	Values []string // Values after the change
}
