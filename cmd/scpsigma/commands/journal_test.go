package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/scpsigma/scpsigma-go/pkg/journal"
)

func createTestJournal(t *testing.T, events []journal.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.sjl")

	logger, err := journal.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

var testTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func sampleEvents() []journal.Event {
	return []journal.Event{
		{
			Timestamp: testTime,
			SessionID: "sess-aaaa-1111",
			Category:  journal.CategoryState,
			Host:      "plant-gw:22",
			StateChange: &journal.StateChangeEvent{
				Entity:   journal.StateEntityConnection,
				OldState: "CONNECTING",
				NewState: "CONNECTED",
			},
		},
		{
			Timestamp:  testTime.Add(time.Second),
			SessionID:  "sess-aaaa-1111",
			TransferID: "xfer-bbbb-2222",
			Category:   journal.CategoryAttempt,
			Host:       "plant-gw:22",
			LocalPath:  "/data/batch.csv",
			RemotePath: "/upload/batch.csv",
			Attempt:    &journal.AttemptEvent{Number: 1, MaxAttempts: 3},
		},
		{
			Timestamp:  testTime.Add(2 * time.Second),
			SessionID:  "sess-aaaa-1111",
			TransferID: "xfer-bbbb-2222",
			Category:   journal.CategoryError,
			Host:       "plant-gw:22",
			LocalPath:  "/data/batch.csv",
			RemotePath: "/upload/batch.csv",
			Error:      &journal.ErrorEventData{Stage: journal.StageUpload, Message: "connection reset", Attempt: 1},
		},
		{
			Timestamp:  testTime.Add(3 * time.Second),
			SessionID:  "sess-aaaa-1111",
			TransferID: "xfer-bbbb-2222",
			Category:   journal.CategoryAttempt,
			Host:       "plant-gw:22",
			LocalPath:  "/data/batch.csv",
			RemotePath: "/upload/batch.csv",
			Attempt:    &journal.AttemptEvent{Number: 2, MaxAttempts: 3},
		},
		{
			Timestamp:  testTime.Add(4 * time.Second),
			SessionID:  "sess-aaaa-1111",
			TransferID: "xfer-bbbb-2222",
			Category:   journal.CategoryVerify,
			Host:       "plant-gw:22",
			LocalPath:  "/data/batch.csv",
			RemotePath: "/upload/batch.csv",
			Verify:     &journal.VerifyEvent{LocalSHA256: "ab12", RemoteSHA256: "ab12", Match: true},
		},
		{
			Timestamp:  testTime.Add(5 * time.Second),
			SessionID:  "sess-aaaa-1111",
			TransferID: "xfer-bbbb-2222",
			Category:   journal.CategoryTransfer,
			Host:       "plant-gw:22",
			LocalPath:  "/data/batch.csv",
			RemotePath: "/upload/batch.csv",
			Transfer: &journal.TransferEvent{
				SizeBytes:      1_000_000,
				Duration:       400 * time.Millisecond,
				ThroughputMbps: 20,
				SHA256:         "ab12",
				Attempts:       2,
				Verified:       true,
			},
		},
	}
}

func TestViewFormatsEvents(t *testing.T) {
	path := createTestJournal(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"2026-03-14T09:26:53.000000Z [session:sess-aaa] STATE",
		"State: CONNECTING -> CONNECTED",
		"Attempt 1/3",
		"Stage: UPLOAD",
		"Message: connection reset",
		"Checksum: MATCH",
		"Throughput: 20.00 Mbps",
		"Attempts: 2 (verified)",
		"File: /data/batch.csv -> /upload/batch.csv",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestViewFiltersByCategory(t *testing.T) {
	path := createTestJournal(t, sampleEvents())

	cat, err := ParseCategoryFlag("error")
	if err != nil {
		t.Fatalf("ParseCategoryFlag failed: %v", err)
	}

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Category: &cat}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "connection reset") {
		t.Error("expected error event in output")
	}
	if strings.Contains(output, "Throughput") || strings.Contains(output, "CONNECTED") {
		t.Errorf("unexpected non-error events in output:\n%s", output)
	}
}

func TestViewMissingFile(t *testing.T) {
	err := RunView(filepath.Join(t.TempDir(), "missing.sjl"), ViewFilter{}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseCategoryFlagInvalid(t *testing.T) {
	if _, err := ParseCategoryFlag("frame"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestExportToJSONL(t *testing.T) {
	path := createTestJournal(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.jsonl")

	if err := RunExport(path, "jsonl", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}

	var last map[string]any
	if err := json.Unmarshal([]byte(lines[5]), &last); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if last["category"] != "TRANSFER" {
		t.Errorf("category = %v, want TRANSFER", last["category"])
	}
	xfer, ok := last["transfer"].(map[string]any)
	if !ok {
		t.Fatalf("transfer payload missing: %v", last)
	}
	if xfer["throughput_mbps"] != 20.0 {
		t.Errorf("throughput_mbps = %v, want 20", xfer["throughput_mbps"])
	}
}

func TestExportToCSV(t *testing.T) {
	path := createTestJournal(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 7 {
		t.Fatalf("expected header + 6 rows, got %d", len(records))
	}
	if records[0][0] != "timestamp" || records[0][3] != "category" {
		t.Errorf("unexpected header: %v", records[0])
	}

	row := records[6]
	if row[3] != "TRANSFER" || row[7] != "1000000" || row[8] != "20.000" || row[9] != "2" {
		t.Errorf("unexpected transfer row: %v", row)
	}
	if records[3][10] != "UPLOAD: connection reset" {
		t.Errorf("unexpected error detail: %q", records[3][10])
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestJournal(t, sampleEvents())
	err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out.xml"))
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}

func TestFilterWritesMatchingEvents(t *testing.T) {
	events := sampleEvents()
	events = append(events, journal.Event{
		Timestamp: testTime.Add(time.Minute),
		SessionID: "sess-cccc-3333",
		Category:  journal.CategoryState,
		Host:      "other:22",
		StateChange: &journal.StateChangeEvent{
			Entity:   journal.StateEntityConnection,
			NewState: "CONNECTING",
		},
	})
	path := createTestJournal(t, events)
	out := filepath.Join(t.TempDir(), "filtered.sjl")

	n, err := RunFilter(path, FilterOptions{Output: out, Host: "plant-gw:22", Category: "attempt"})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("filtered %d events, want 2", n)
	}

	reader, err := journal.NewReader(out)
	if err != nil {
		t.Fatalf("failed to open filtered journal: %v", err)
	}
	defer reader.Close()
	got, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	for _, e := range got {
		if e.Category != journal.CategoryAttempt {
			t.Errorf("unexpected category %s", e.Category)
		}
	}
}

func TestFilterByTimeRange(t *testing.T) {
	path := createTestJournal(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "filtered.sjl")

	n, err := RunFilter(path, FilterOptions{
		Output:    out,
		TimeStart: testTime.Add(2 * time.Second).Format(time.RFC3339),
		TimeEnd:   testTime.Add(4 * time.Second).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if n != 2 {
		t.Errorf("filtered %d events, want 2", n)
	}
}

func TestFilterInvalidTime(t *testing.T) {
	path := createTestJournal(t, sampleEvents())
	_, err := RunFilter(path, FilterOptions{Output: filepath.Join(t.TempDir(), "x.sjl"), TimeStart: "yesterday"})
	if err == nil || !strings.Contains(err.Error(), "time-start") {
		t.Errorf("expected time-start error, got %v", err)
	}
}

func TestStatsSummarisesJournal(t *testing.T) {
	path := createTestJournal(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Events: 6",
		"Transfers:    1 (1000000 bytes)",
		"Retries:      1",
		"ATTEMPT:",
		"UPLOAD:",
		"Sessions: 1",
		"[sess-aaa]",
		"Host: plant-gw:22",
		"Transfers: 1, failures: 0",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestStatsEmptyJournal(t *testing.T) {
	path := createTestJournal(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
