package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/scpsigma/scpsigma-go/pkg/journal"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output     string
	SessionID  string
	TransferID string
	Host       string
	TimeStart  string
	TimeEnd    string
	Category   string
}

// RunFilter filters the journal and writes matching events to a new file.
// It returns the number of events written.
func RunFilter(path string, opts FilterOptions) (int, error) {
	filter := journal.Filter{
		SessionID:  opts.SessionID,
		TransferID: opts.TransferID,
		Host:       opts.Host,
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return 0, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return 0, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if opts.Category != "" {
		c, err := journal.ParseCategory(opts.Category)
		if err != nil {
			return 0, err
		}
		filter.Category = &c
	}

	reader, err := journal.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open journal: %w", err)
	}
	defer reader.Close()

	logger, err := journal.NewFileLogger(opts.Output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output journal: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	return count, nil
}
