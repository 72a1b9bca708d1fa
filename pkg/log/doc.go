// Package log provides structured event logging for the subsystem.
//
// This package defines the Logger interface and Event types for
// capturing subscription lifecycle transitions, notification traffic
// and parse diagnostics. It is separate from operational logging
// (slog) - the capture gives a complete machine-readable trace for
// debugging a device fleet after the fact.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.Logger, _ = log.NewFileLogger("/var/log/sonos/events.elog")
//
//	// Both: use MultiLogger
//	cfg.Logger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Log files use CBOR encoding with integer keys. The Reader type
// provides filtered streaming access to recorded files.
package log
