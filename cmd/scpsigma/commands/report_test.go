package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/scpsigma/scpsigma-go/pkg/journal"
	"github.com/scpsigma/scpsigma-go/pkg/report"
	"github.com/scpsigma/scpsigma-go/pkg/store"
	"github.com/scpsigma/scpsigma-go/pkg/transfer"
)

func transferEvents(session string, mbps ...float64) []journal.Event {
	events := make([]journal.Event, 0, len(mbps))
	for i, v := range mbps {
		events = append(events, journal.Event{
			Timestamp:  testTime.Add(time.Duration(i) * time.Second),
			SessionID:  session,
			TransferID: "xfer",
			Category:   journal.CategoryTransfer,
			Host:       "plant-gw:22",
			LocalPath:  "/data/f.bin",
			RemotePath: "/upload/f.bin",
			Transfer: &journal.TransferEvent{
				SizeBytes:      1_000_000,
				Duration:       time.Second,
				ThroughputMbps: v,
				SHA256:         strings.Repeat("a", 64),
				Attempts:       1,
				Verified:       true,
			},
		})
	}
	return events
}

func seedStore(t *testing.T, session string, mbps ...float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	st, err := store.NewStore(path)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.CreateSession(&store.Session{ID: session, Host: "plant-gw:22", StartedAt: testTime}))
	for i, v := range mbps {
		require.NoError(t, st.RecordTransfer(session, transfer.Metrics{
			TransferID:     "x" + string(rune('a'+i)),
			Filename:       "/data/f.bin",
			RemotePath:     "/upload/f.bin",
			Host:           "plant-gw:22",
			SizeBytes:      1_000_000,
			Duration:       time.Second,
			ThroughputMbps: v,
			SHA256:         strings.Repeat("b", 64),
			Timestamp:      testTime.Add(time.Duration(i) * time.Second),
			Attempts:       1,
		}))
	}
	return path
}

func TestLoadMetricsNeedsOneSource(t *testing.T) {
	_, err := LoadMetrics(Source{})
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = LoadMetrics(Source{Journal: "a.sjl", DB: "b.db"})
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestLoadMetricsFromJournal(t *testing.T) {
	events := append(sampleEvents(), transferEvents("sess-other", 30, 40)...)
	path := createTestJournal(t, events)

	all, err := LoadMetrics(Source{Journal: path})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "/data/batch.csv", all[0].Filename)
	assert.Equal(t, 2, all[0].Attempts)
	assert.Equal(t, 400*time.Millisecond, all[0].Duration)

	one, err := LoadMetrics(Source{Journal: path, SessionID: "sess-other"})
	require.NoError(t, err)
	assert.Equal(t, []float64{30, 40}, transfer.Throughputs(one))
}

func TestReportFromJournalToWriter(t *testing.T) {
	path := createTestJournal(t, transferEvents("s1", 40, 50, 60))

	var buf bytes.Buffer
	err := RunReport(Source{Journal: path}, ReportOptions{Limits: report.DefaultLimits()}, &buf)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	stats := doc["throughput_stats"].(map[string]any)
	assert.EqualValues(t, 3, stats["samples"])
	assert.InDelta(t, 50, stats["mean"].(float64), 1e-9)
	assert.Len(t, doc["transfer_metrics"], 3)
}

func TestReportFromDBToYAMLFile(t *testing.T) {
	db := seedStore(t, "s1", 20, 25, 30)
	out := filepath.Join(t.TempDir(), "quality.yaml")

	var buf bytes.Buffer
	err := RunReport(Source{DB: db}, ReportOptions{Output: out}, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Quality report written to "+out+" (3 transfers)")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	stats := doc["throughput_stats"].(map[string]any)
	assert.EqualValues(t, 25, stats["mean"])
}

func TestReportFormatOverridesExtension(t *testing.T) {
	path := createTestJournal(t, transferEvents("s1", 40, 50))
	out := filepath.Join(t.TempDir(), "quality.out")

	err := RunReport(Source{Journal: path}, ReportOptions{Output: out, Format: "yaml"}, &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "throughput_stats:"), "expected YAML, got %q", data)
}

func TestReportEmptySource(t *testing.T) {
	path := createTestJournal(t, nil)
	err := RunReport(Source{Journal: path}, ReportOptions{}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, report.ErrEmpty), "got %v", err)
}

func TestReportInvalidFormat(t *testing.T) {
	path := createTestJournal(t, transferEvents("s1", 40))
	err := RunReport(Source{Journal: path}, ReportOptions{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestChartFromJournal(t *testing.T) {
	path := createTestJournal(t, transferEvents("s1", 40, 50, 45, 55))
	out := filepath.Join(t.TempDir(), "chart.svg")

	var buf bytes.Buffer
	require.NoError(t, RunChart(Source{Journal: path}, out, &buf))
	assert.Contains(t, buf.String(), "(4 transfers)")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
	assert.Contains(t, string(data), report.ChartTitle)
}

func TestChartRequiresOutput(t *testing.T) {
	path := createTestJournal(t, transferEvents("s1", 40))
	assert.Error(t, RunChart(Source{Journal: path}, "", &bytes.Buffer{}))
}

func TestChartEmptySource(t *testing.T) {
	db := seedStore(t, "s1")
	err := RunChart(Source{DB: db}, filepath.Join(t.TempDir(), "c.svg"), &bytes.Buffer{})
	assert.ErrorIs(t, err, report.ErrEmpty)
}

func TestRunSessions(t *testing.T) {
	db := seedStore(t, "s1", 20, 25)
	st, err := store.NewStore(db)
	require.NoError(t, err)
	require.NoError(t, st.EndSession("s1", testTime.Add(time.Minute), 1))
	require.NoError(t, st.CreateSession(&store.Session{ID: "s2", Host: "edge-7:22", StartedAt: testTime.Add(time.Hour)}))
	require.NoError(t, st.Close())

	var buf bytes.Buffer
	require.NoError(t, RunSessions(Source{DB: db}, 0, &buf))
	out := buf.String()
	assert.Contains(t, out, "SESSION")
	assert.Contains(t, out, "2 session(s).")
	assert.Less(t, strings.Index(out, "s2"), strings.Index(out, "s1"), "newest session first")
	assert.Contains(t, out, "running")

	lines := strings.Split(out, "\n")
	var s1 string
	for _, l := range lines {
		if strings.HasPrefix(l, "s1 ") {
			s1 = l
		}
	}
	assert.Equal(t, []string{"s1", "plant-gw:22"}, strings.Fields(s1)[:2])
	assert.Equal(t, []string{"2", "1"}, strings.Fields(s1)[len(strings.Fields(s1))-2:])

	buf.Reset()
	require.NoError(t, RunSessions(Source{DB: db, Host: "edge-7:22"}, 0, &buf))
	assert.Contains(t, buf.String(), "1 session(s).")
	assert.NotContains(t, buf.String(), "plant-gw")

	buf.Reset()
	require.NoError(t, RunSessions(Source{DB: db, Host: "nowhere:22"}, 0, &buf))
	assert.Contains(t, buf.String(), "No sessions in "+db)
}

func TestRunSessionsNeedsDB(t *testing.T) {
	err := RunSessions(Source{Journal: "run.sjl"}, 0, &bytes.Buffer{})
	assert.Error(t, err)
}
