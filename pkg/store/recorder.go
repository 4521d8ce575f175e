package store

import (
	"context"

	"github.com/scpsigma/scpsigma-go/pkg/transfer"
)

// Recorder returns a transfer.Sink that stores every successful transfer
// under sessionID.
func (s *Store) Recorder(sessionID string) transfer.Sink {
	return transfer.SinkFunc(func(_ context.Context, m transfer.Metrics) error {
		return s.RecordTransfer(sessionID, m)
	})
}
