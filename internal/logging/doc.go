// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"channel": "debug",  // Per-module overrides
//			"api":     "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("mymodule")
//	logger.Info("Starting up", "port", 8080)
//	logger.Debug("Details", "config", cfg)
//	logger.Warn("Something unusual", "error", err)
//	logger.Error("Failed", "error", err)
//
// Add contextual attributes:
//
//	logger := logging.GetLogger("channel").With("channel", index)
//	logger.Info("Channel started")  // Includes channel in all logs
//
// # Log Levels
//
//	debug - Verbose debugging information
//	info  - General operational messages
//	warn  - Warning conditions
//	error - Error conditions
//
// # Output Destinations
//
// The system automatically detects available outputs and always adds a
// BufferHandler feeding the in-memory ring buffer, so the result is a
// MultiHandler over:
//
//	Journal available + stdout available → stdout, JournalHandler, BufferHandler
//	Journal available only              → JournalHandler, BufferHandler
//	Stdout available only               → TextHandler or JSONHandler, BufferHandler
//
// Journal availability is checked via [github.com/coreos/go-systemd/v22/journal.Enabled].
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t playoutd              # All playoutd logs
//	journalctl -t playoutd -f           # Follow live
//	journalctl -t playoutd --since "5m" # Last 5 minutes
//	journalctl -t playoutd -p err       # Errors only
//
// Filter by structured fields:
//
//	journalctl -t playoutd MODULE=channel
//	journalctl -t playoutd CHANNEL=1
//
// # Configuration
//
// Log levels can be set globally or per-module. Module-specific levels
// override the global level for that module only.
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	channel = "debug"
//	api = "warn"
//	diag = "error"
package logging
