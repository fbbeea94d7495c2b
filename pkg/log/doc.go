// Package log provides structured status logging for lanprov.
//
// This package defines the Logger interface and Event types for capturing
// lifecycle events from the access point controller, control listener,
// attachment manager and provisioning sender. It is separate from
// operational logging (slog) - event capture provides a machine-readable
// trace of every state change and failure, suitable for live display, file
// capture and later replay.
//
// # Basic Usage
//
// Components are handed a Logger at construction time:
//
//	// For development: log to console via slog
//	cfg.Events = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.Events, _ = log.NewFileLogger("/var/log/lanprov/host.plog")
//
//	// Both, plus live subscribers: use a Sink
//	sink := log.NewSink()
//	sink.Subscribe(log.NewSlogAdapter(slog.Default()))
//
// # Event Types
//
// Every event carries a timestamp, the originating component and a category.
// State changes and errors carry dedicated payloads; plain status lines use
// the Message field.
//
// # File Format
//
// Log files use CBOR encoding with .plog extension. The Reader type provides
// filtered replay of captured files.
package log
