package commands

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/scpsigma/scpsigma-go/pkg/store"
)

// RunSessions lists the sessions recorded in the history database of src,
// most recent first. src.Host narrows the list to one host.
func RunSessions(src Source, limit int, w io.Writer) error {
	if src.DB == "" || src.Journal != "" {
		return errors.New("-sessions requires -db")
	}
	st, err := store.NewStore(src.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.ListSessions(limit, 0)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tHOST\tSTARTED\tENDED\tTRANSFERS\tFAILURES")
	n := 0
	for _, s := range sessions {
		if src.Host != "" && s.Host != src.Host {
			continue
		}
		if src.SessionID != "" && s.ID != src.SessionID {
			continue
		}
		ended := "running"
		if s.EndedAt != nil {
			ended = s.EndedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			s.ID, s.Host, s.StartedAt.Format("2006-01-02 15:04:05"), ended, s.TransferCount, s.FailureCount)
		n++
	}
	if n == 0 {
		fmt.Fprintf(w, "No sessions in %s.\n", src.DB)
		return nil
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d session(s).\n", n)
	return nil
}
