// Package logging provides structured logging utilities for the jobstats role monitor.
//
// # Overview
//
// This package wraps the standard library slog package with role-monitor defaults
// and conventions so every component logs in the same shape. It supports
// environment-based log level configuration, module/version context injection,
// and automatic source location tracking for debug logs.
//
// # Usage
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("rolemond", version)
//
//	    slog.Info("reconciliation cycle complete", "role", role, "cycle_id", id)
//	    slog.Error("service start failed", "error", err, "service", unit)
//	}
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("rolemond", version, "debug")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity when no explicit
// level is given. If LOG_LEVEL is not set, the level defaults to INFO.
//
// # Output Format
//
// All logs are written to stderr in JSON format with module and version attrs:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "role change detected",
//	    "module": "rolemond",
//	    "version": "v1.0.0",
//	    "role": "present"
//	}
//
// Debug level additionally records the source location of each log call.
package logging
