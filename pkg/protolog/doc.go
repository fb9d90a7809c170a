// Package protolog provides structured protocol logging for the Blynk
// client.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at multiple layers (transport, wire, session).
// It is separate from operational logging (slog) - protocol capture provides
// a complete machine-readable event trace for debugging and analysis.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	logger := protolog.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	logger, _ := protolog.NewFileLogger("/var/log/blynk/client.plog")
//
//	// Both: use MultiLogger
//	logger := protolog.NewMultiLogger(
//	    protolog.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: Raw frame bytes (FrameEvent)
//   - Wire: Decoded messages (MessageEvent)
//   - Session: State changes (StateChangeEvent)
//
// Control messages (ping, reconnect) and errors have dedicated event types.
//
// # File Format
//
// Log files use CBOR encoding with a .plog extension.
package protolog
