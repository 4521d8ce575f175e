package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/scpsigma/scpsigma-go/pkg/journal"
	"github.com/scpsigma/scpsigma-go/pkg/store"
	"github.com/scpsigma/scpsigma-go/pkg/transfer"
)

// ErrNoSource is returned when neither or both of a journal and a database
// are given.
var ErrNoSource = errors.New("exactly one of -journal or -db is required")

// Source selects where report and chart read metrics from.
type Source struct {
	Journal   string
	DB        string
	SessionID string
	Host      string
}

func (s Source) String() string {
	if s.DB != "" {
		return s.DB
	}
	return s.Journal
}

// LoadMetrics reads the successful transfers recorded in the source, in
// completion order.
func LoadMetrics(src Source) ([]transfer.Metrics, error) {
	switch {
	case (src.Journal == "") == (src.DB == ""):
		return nil, ErrNoSource
	case src.DB != "":
		return metricsFromDB(src)
	default:
		return metricsFromJournal(src)
	}
}

func metricsFromDB(src Source) ([]transfer.Metrics, error) {
	st, err := store.NewStore(src.DB)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	metrics, err := st.ListTransfers(store.TransferFilter{SessionID: src.SessionID, Host: src.Host})
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	return metrics, nil
}

func metricsFromJournal(src Source) ([]transfer.Metrics, error) {
	cat := journal.CategoryTransfer
	reader, err := journal.NewFilteredReader(src.Journal, journal.Filter{
		SessionID: src.SessionID,
		Host:      src.Host,
		Category:  &cat,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer reader.Close()

	var metrics []transfer.Metrics
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		if m, ok := metricsFromEvent(event); ok {
			metrics = append(metrics, m)
		}
	}
	return metrics, nil
}

// metricsFromEvent rebuilds transfer metrics from a TRANSFER event.
func metricsFromEvent(event journal.Event) (transfer.Metrics, bool) {
	t := event.Transfer
	if t == nil {
		return transfer.Metrics{}, false
	}
	return transfer.Metrics{
		TransferID:     event.TransferID,
		Filename:       event.LocalPath,
		RemotePath:     event.RemotePath,
		Host:           event.Host,
		SizeBytes:      t.SizeBytes,
		Duration:       t.Duration,
		ThroughputMbps: t.ThroughputMbps,
		SHA256:         t.SHA256,
		Timestamp:      event.Timestamp,
		Attempts:       t.Attempts,
		Verified:       t.Verified,
	}, true
}
