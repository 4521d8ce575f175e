// Package commands implements the scpsigma CLI commands.
package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/scpsigma/scpsigma-go/pkg/journal"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Category   *journal.Category
	Host       string
	TransferID string
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event journal.Event) {
	// Header line: timestamp [session:id] CATEGORY host
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [session:%s] %-8s %s\n", ts, shortenID(event.SessionID), event.Category.String(), event.Host)

	if event.TransferID != "" {
		fmt.Fprintf(w, "  Transfer: %s\n", shortenID(event.TransferID))
	}
	if event.LocalPath != "" || event.RemotePath != "" {
		fmt.Fprintf(w, "  File: %s -> %s\n", event.LocalPath, event.RemotePath)
	}

	switch {
	case event.Attempt != nil:
		formatAttemptDetails(w, event.Attempt)
	case event.Transfer != nil:
		formatTransferDetails(w, event.Transfer)
	case event.Verify != nil:
		formatVerifyDetails(w, event.Verify)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenID returns the first 8 characters of a UUID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatAttemptDetails(w io.Writer, a *journal.AttemptEvent) {
	if a.Backoff > 0 {
		fmt.Fprintf(w, "  Attempt %d/%d failed, retrying in %s\n", a.Number, a.MaxAttempts, formatDuration(a.Backoff))
		return
	}
	fmt.Fprintf(w, "  Attempt %d/%d\n", a.Number, a.MaxAttempts)
}

func formatTransferDetails(w io.Writer, t *journal.TransferEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", t.SizeBytes)
	fmt.Fprintf(w, "  Duration: %s\n", formatDuration(t.Duration))
	fmt.Fprintf(w, "  Throughput: %.2f Mbps\n", t.ThroughputMbps)
	fmt.Fprintf(w, "  SHA256: %s\n", t.SHA256)
	fmt.Fprintf(w, "  Attempts: %d", t.Attempts)
	if t.Verified {
		fmt.Fprint(w, " (verified)")
	}
	fmt.Fprintln(w)
}

func formatVerifyDetails(w io.Writer, v *journal.VerifyEvent) {
	result := "MATCH"
	if !v.Match {
		result = "MISMATCH"
	}
	fmt.Fprintf(w, "  Checksum: %s\n", result)
	fmt.Fprintf(w, "  Local:  %s\n", v.LocalSHA256)
	fmt.Fprintf(w, "  Remote: %s\n", v.RemoteSHA256)
}

func formatStateChangeDetails(w io.Writer, sc *journal.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  State: %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  State: %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, e *journal.ErrorEventData) {
	fmt.Fprintf(w, "  Stage: %s\n", e.Stage.String())
	fmt.Fprintf(w, "  Message: %s\n", e.Message)
	if e.Attempt > 0 {
		fmt.Fprintf(w, "  Attempt: %d", e.Attempt)
		if e.Final {
			fmt.Fprint(w, " (final)")
		}
		fmt.Fprintln(w)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// ParseCategoryFlag parses a category flag value.
func ParseCategoryFlag(s string) (journal.Category, error) {
	return journal.ParseCategory(s)
}

// RunView reads the journal and writes a human-readable representation to output.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := journal.NewFilteredReader(path, journal.Filter{
		Category:   filter.Category,
		Host:       filter.Host,
		TransferID: filter.TransferID,
	})
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
