// Package journal provides structured transfer event capture for scpsigma.
//
// This package defines the Logger interface and Event types for recording
// every step of a transfer: attempts, completed uploads, checksum
// verification, connection state changes and errors. It is separate from
// operational logging (slog) - the journal is a complete machine-readable
// trace that the report and journal subcommands read back later.
//
// # Basic Usage
//
// Applications configure the journal by providing a Logger implementation:
//
//	// For development: mirror events to the console via slog
//	cfg.Journal = journal.NewSlogAdapter(slog.Default())
//
//	// For production: write to a binary file
//	cfg.Journal, _ = journal.NewFileLogger("/var/log/scpsigma/transfers.sjl")
//
//	// Both: use MultiLogger
//	cfg.Journal = journal.NewMultiLogger(
//	    journal.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Every event carries the session and transfer identifiers and exactly one
// payload:
//   - Attempt: an upload attempt started or is backing off (AttemptEvent)
//   - Transfer: an upload completed, with its metrics (TransferEvent)
//   - Verify: local and remote SHA-256 compared (VerifyEvent)
//   - State: connection, session or batch lifecycle (StateChangeEvent)
//   - Error: a failed stage of an attempt (ErrorEventData)
//
// # File Format
//
// Journal files are a stream of CBOR records with integer keys, by
// convention with the .sjl extension.
package journal
