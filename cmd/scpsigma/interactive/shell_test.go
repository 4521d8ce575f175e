package interactive

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scpsigma/scpsigma-go/pkg/report"
	"github.com/scpsigma/scpsigma-go/pkg/transfer"
)

type fakeClient struct {
	jobs    []transfer.Job
	metrics []transfer.Metrics
	err     error
}

func (f *fakeClient) SecureTransfer(_ context.Context, job transfer.Job) (*transfer.Metrics, error) {
	f.jobs = append(f.jobs, job)
	if f.err != nil {
		return nil, f.err
	}
	m := transfer.Metrics{
		Filename:       job.LocalPath,
		RemotePath:     job.RemotePath,
		SizeBytes:      2_500_000,
		Duration:       time.Second,
		ThroughputMbps: 20 + float64(len(f.metrics)),
		Attempts:       1,
		Verified:       !job.SkipVerify,
		Timestamp:      time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}
	f.metrics = append(f.metrics, m)
	return &m, nil
}

func (f *fakeClient) Metrics() []transfer.Metrics { return f.metrics }

func (f *fakeClient) Host() string { return "gw3:22" }

func run(t *testing.T, s *Shell, lines ...string) bool {
	t.Helper()
	for _, l := range lines {
		if !s.execute(context.Background(), l) {
			return false
		}
	}
	return true
}

func TestPutUploadsAndPrintsMetrics(t *testing.T) {
	client := &fakeClient{}
	var out bytes.Buffer
	s := newShell(client, report.DefaultLimits(), false, &out)

	assert.True(t, run(t, s, "put /data/lot42.csv /upload/"))
	require.Len(t, client.jobs, 1)
	assert.Equal(t, "/upload/lot42.csv", client.jobs[0].RemotePath)
	assert.Contains(t, out.String(), "/data/lot42.csv -> /upload/lot42.csv: 2500000 bytes in 1s (20.00 Mbps, 1 attempt(s), verified)")

	out.Reset()
	run(t, s, "metrics")
	assert.Contains(t, out.String(), "/data/lot42.csv")
	assert.Contains(t, out.String(), "20.00")
}

func TestPutSkipVerify(t *testing.T) {
	client := &fakeClient{}
	var out bytes.Buffer
	s := newShell(client, report.DefaultLimits(), true, &out)

	run(t, s, "put a.bin /tmp/b.bin")
	require.Len(t, client.jobs, 1)
	assert.True(t, client.jobs[0].SkipVerify)
	assert.NotContains(t, out.String(), "verified")
}

func TestPutUsageAndFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("max retries exceeded")}
	var out bytes.Buffer
	s := newShell(client, report.DefaultLimits(), false, &out)

	run(t, s, "put onlyone")
	assert.Contains(t, out.String(), "Usage: put <local> <remote>")
	assert.Empty(t, client.jobs)

	run(t, s, "put a b")
	assert.Contains(t, out.String(), "Transfer failed: max retries exceeded")
}

func TestReportAndChart(t *testing.T) {
	client := &fakeClient{}
	var out bytes.Buffer
	s := newShell(client, report.DefaultLimits(), false, &out)

	run(t, s, "report")
	assert.Contains(t, out.String(), "No transfers yet.")

	run(t, s, "put a /r/a", "put b /r/b", "put c /r/c")
	out.Reset()
	run(t, s, "report")
	assert.Contains(t, out.String(), `"throughput_stats"`)
	assert.Contains(t, out.String(), `"samples": 3`)

	dir := t.TempDir()
	reportPath := filepath.Join(dir, "q.yaml")
	chartPath := filepath.Join(dir, "c.svg")
	run(t, s, "report "+reportPath, "chart "+chartPath)
	assert.FileExists(t, reportPath)
	data, err := os.ReadFile(chartPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "<svg"))
}

func TestUnknownAndQuit(t *testing.T) {
	var out bytes.Buffer
	s := newShell(&fakeClient{}, report.DefaultLimits(), false, &out)

	assert.True(t, run(t, s, "", "frobnicate"))
	assert.Contains(t, out.String(), "Unknown command: frobnicate")

	assert.False(t, run(t, s, "quit"))
	assert.Contains(t, out.String(), "Exiting...")
}

func TestHelpListsCommands(t *testing.T) {
	var out bytes.Buffer
	s := newShell(&fakeClient{}, report.DefaultLimits(), false, &out)
	run(t, s, "help")
	for _, cmd := range []string{"put <local> <remote>", "metrics", "report [file]", "chart <file.svg>", "quit"} {
		assert.Contains(t, out.String(), cmd)
	}
}
