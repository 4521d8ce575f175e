package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/scpsigma/scpsigma-go/pkg/journal"
)

// Stats holds aggregate statistics about a journal.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[journal.Category]int
	ErrorsByStage    map[journal.Stage]int
	Sessions         map[string]*SessionStats
	Transfers        int
	Retries          int
	Mismatches       int
	BytesSent        int64
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single session.
type SessionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Host      string
	Transfers int
	Failures  int
}

// RunStats analyzes the journal and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := journal.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[journal.Category]int),
		ErrorsByStage:    make(map[journal.Stage]int),
		Sessions:         make(map[string]*SessionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func (s *Stats) add(event journal.Event) {
	s.TotalEvents++
	s.EventsByCategory[event.Category]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	session, ok := s.Sessions[event.SessionID]
	if !ok {
		session = &SessionStats{
			FirstSeen: event.Timestamp,
			LastSeen:  event.Timestamp,
		}
		s.Sessions[event.SessionID] = session
	}
	session.Events++
	if event.Timestamp.After(session.LastSeen) {
		session.LastSeen = event.Timestamp
	}
	if event.Host != "" && session.Host == "" {
		session.Host = event.Host
	}

	switch {
	case event.Transfer != nil:
		s.Transfers++
		s.BytesSent += event.Transfer.SizeBytes
		session.Transfers++
	case event.Attempt != nil:
		if event.Attempt.Number > 1 && event.Attempt.Backoff == 0 {
			s.Retries++
		}
	case event.Verify != nil:
		if !event.Verify.Match {
			s.Mismatches++
		}
	case event.Error != nil:
		s.ErrorsByStage[event.Error.Stage]++
		if event.Error.Final {
			session.Failures++
		}
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== scpsigma Journal Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Transfers:    %d (%d bytes)\n", stats.Transfers, stats.BytesSent)
	fmt.Fprintf(w, "Retries:      %d\n", stats.Retries)
	if stats.Mismatches > 0 {
		fmt.Fprintf(w, "Mismatches:   %d\n", stats.Mismatches)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range journal.Categories {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.ErrorsByStage) > 0 {
		fmt.Fprintln(w, "Errors by Stage:")
		for _, stage := range []journal.Stage{journal.StageConnect, journal.StageHash, journal.StageUpload, journal.StageVerify, journal.StagePublish} {
			if count := stats.ErrorsByStage[stage]; count > 0 {
				fmt.Fprintf(w, "  %-12s %d\n", stage.String()+":", count)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) == 0 {
		return
	}

	type sessionInfo struct {
		id    string
		stats *SessionStats
	}
	sessions := make([]sessionInfo, 0, len(stats.Sessions))
	for id, ss := range stats.Sessions {
		sessions = append(sessions, sessionInfo{id, ss})
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
	})

	fmt.Fprintln(w)
	for _, s := range sessions {
		duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
		fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenID(s.id), s.stats.Events, duration)
		if s.stats.Host != "" {
			fmt.Fprintf(w, "           Host: %s\n", s.stats.Host)
		}
		fmt.Fprintf(w, "           Transfers: %d, failures: %d\n", s.stats.Transfers, s.stats.Failures)
	}
}
