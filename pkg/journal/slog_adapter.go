package journal

import (
	"context"
	"log/slog"
)

// SlogAdapter writes journal events to an slog.Logger at Debug level.
// Useful during development to see the event stream on the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session_id", event.SessionID),
		slog.String("category", event.Category.String()),
	}

	if event.TransferID != "" {
		attrs = append(attrs, slog.String("transfer_id", event.TransferID))
	}
	if event.Host != "" {
		attrs = append(attrs, slog.String("host", event.Host))
	}
	if event.LocalPath != "" {
		attrs = append(attrs, slog.String("local", event.LocalPath))
	}
	if event.RemotePath != "" {
		attrs = append(attrs, slog.String("remote", event.RemotePath))
	}

	switch {
	case event.Attempt != nil:
		attrs = append(attrs,
			slog.Int("attempt", event.Attempt.Number),
			slog.Int("max_attempts", event.Attempt.MaxAttempts),
		)
		if event.Attempt.Backoff > 0 {
			attrs = append(attrs, slog.Duration("backoff", event.Attempt.Backoff))
		}
	case event.Transfer != nil:
		attrs = append(attrs,
			slog.Int64("size_bytes", event.Transfer.SizeBytes),
			slog.Duration("duration", event.Transfer.Duration),
			slog.Float64("throughput_mbps", event.Transfer.ThroughputMbps),
			slog.String("sha256", event.Transfer.SHA256),
			slog.Int("attempts", event.Transfer.Attempts),
		)
	case event.Verify != nil:
		attrs = append(attrs,
			slog.String("local_sha256", event.Verify.LocalSHA256),
			slog.String("remote_sha256", event.Verify.RemoteSHA256),
			slog.Bool("match", event.Verify.Match),
		)
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("stage", event.Error.Stage.String()),
			slog.String("error", event.Error.Message),
			slog.Int("attempt", event.Error.Attempt),
			slog.Bool("final", event.Error.Final),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "journal", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
