package persistence

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/scpsigma/scpsigma-go/pkg/transfer"
)

// StateVersion is the current version of the checkpoint file format.
const StateVersion = 1

// BatchState is the saved progress of a batch.
type BatchState struct {
	// Version is the checkpoint file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Host is the destination the batch was uploading to.
	Host string `json:"host,omitempty"`

	// Completed maps local paths to their finished uploads.
	Completed map[string]CompletedTransfer `json:"completed,omitempty"`
}

// CompletedTransfer records one finished upload.
type CompletedTransfer struct {
	// RemotePath is where the file was uploaded.
	RemotePath string `json:"remote_path"`

	// SHA256 is the local digest at upload time.
	SHA256 string `json:"sha256"`

	// At is when the upload finished.
	At time.Time `json:"at"`
}

// BatchStateStore manages the checkpoint file.
type BatchStateStore struct {
	mu   sync.Mutex
	path string
}

// NewBatchStateStore creates a new checkpoint store.
func NewBatchStateStore(path string) *BatchStateStore {
	return &BatchStateStore{path: path}
}

// Path returns the checkpoint file path.
func (s *BatchStateStore) Path() string {
	return s.path
}

// Save persists the state to disk.
func (s *BatchStateStore) Save(state *BatchState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(state)
}

func (s *BatchStateStore) save(state *BatchState) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	// Write then rename so an interrupted save keeps the previous checkpoint.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *BatchStateStore) Load() (*BatchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *BatchStateStore) load() (*BatchState, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &BatchState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Clear removes the checkpoint file.
func (s *BatchStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MarkDone records a finished upload and saves the checkpoint.
func (s *BatchStateStore) MarkDone(host, localPath string, done CompletedTransfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	if state == nil {
		state = &BatchState{}
	}
	if state.Completed == nil {
		state.Completed = make(map[string]CompletedTransfer)
	}
	state.Host = host
	state.Completed[localPath] = done
	state.SavedAt = time.Now()
	return s.save(state)
}

// Sink returns a transfer.Sink that marks every successful transfer done.
func (s *BatchStateStore) Sink() transfer.Sink {
	return transfer.SinkFunc(func(_ context.Context, m transfer.Metrics) error {
		return s.MarkDone(m.Host, m.Filename, CompletedTransfer{
			RemotePath: m.RemotePath,
			SHA256:     m.SHA256,
			At:         m.Timestamp,
		})
	})
}

// SkipCompleted returns a skip function for transfer.BatchOptions that
// matches jobs already in state whose local file is unchanged. A nil state
// skips nothing.
func SkipCompleted(state *BatchState) func(transfer.Job) bool {
	return func(job transfer.Job) bool {
		if state == nil {
			return false
		}
		done, ok := state.Completed[job.LocalPath]
		if !ok || done.RemotePath != job.RemotePath {
			return false
		}
		sum, err := transfer.FileSHA256(job.LocalPath)
		return err == nil && sum == done.SHA256
	}
}
