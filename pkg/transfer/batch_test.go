package transfer

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestTransferBatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	tc := newTestClient(t, Config{Retry: RetryPolicy{MaxAttempts: 1}})
	dir := t.TempDir()

	jobs := make([]Job, 0, 5)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0644))
		jobs = append(jobs, Job{LocalPath: path, RemotePath: "/remote/" + name, SkipVerify: true})
	}

	var inflight, peak atomic.Int32
	tc.remote.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			n := inflight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			_, _ = io.Copy(io.Discard, args.Get(1).(io.Reader))
			inflight.Add(-1)
		}).
		Return(func(_ context.Context, _ io.Reader, _ FileInfo, remote string) error {
			if remote == "/remote/c" {
				return errors.New("disk full")
			}
			return nil
		})

	results := tc.TransferBatch(context.Background(), jobs, BatchOptions{
		Parallelism: 2,
		Skip:        func(j Job) bool { return j.RemotePath == "/remote/e" },
	})

	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, jobs[i], r.Job)
	}
	assert.NoError(t, results[0].Err)
	assert.NotNil(t, results[0].Metrics)
	assert.Error(t, results[2].Err)
	assert.True(t, results[4].Skipped)
	assert.Nil(t, results[4].Metrics)

	assert.Len(t, Failed(results), 1)
	assert.Len(t, tc.Metrics(), 3)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestTransferBatchEmpty(t *testing.T) {
	tc := newTestClient(t, Config{})
	assert.Empty(t, tc.TransferBatch(context.Background(), nil, BatchOptions{}))
}
