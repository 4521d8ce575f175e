package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/scpsigma/scpsigma-go/pkg/journal"
)

// RunExport exports the journal to the specified format.
func RunExport(path, format, output string) error {
	reader, err := journal.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer reader.Close()

	// Determine output writer
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *journal.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *journal.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "session_id", "transfer_id", "category", "host", "local_path", "remote_path", "size_bytes", "throughput_mbps", "attempt", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		var size, mbps, attempt, detail string
		switch {
		case event.Attempt != nil:
			attempt = strconv.Itoa(event.Attempt.Number)
			if event.Attempt.Backoff > 0 {
				detail = "backoff " + event.Attempt.Backoff.String()
			}
		case event.Transfer != nil:
			size = strconv.FormatInt(event.Transfer.SizeBytes, 10)
			mbps = strconv.FormatFloat(event.Transfer.ThroughputMbps, 'f', 3, 64)
			attempt = strconv.Itoa(event.Transfer.Attempts)
			detail = event.Transfer.SHA256
		case event.Verify != nil:
			detail = "match=" + strconv.FormatBool(event.Verify.Match)
		case event.StateChange != nil:
			detail = event.StateChange.Entity.String() + " " + event.StateChange.NewState
		case event.Error != nil:
			if event.Error.Attempt > 0 {
				attempt = strconv.Itoa(event.Error.Attempt)
			}
			detail = event.Error.Stage.String() + ": " + event.Error.Message
		}

		row := []string{
			event.Timestamp.UTC().Format(time.RFC3339Nano),
			event.SessionID,
			event.TransferID,
			event.Category.String(),
			event.Host,
			event.LocalPath,
			event.RemotePath,
			size,
			mbps,
			attempt,
			detail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return cw.Error()
}
