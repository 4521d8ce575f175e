package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/scpsigma/scpsigma-go/cmd/scpsigma/commands"
)

const journalUsage = `scpsigma journal - Inspect transfer journals

Usage:
  scpsigma journal <command> [flags] <file.sjl>

Commands:
  view     View journal in human-readable format
  export   Export journal to JSONL or CSV format
  filter   Filter journal and write to new file
  stats    Show statistics about the journal
`

func runJournal(args []string) {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, journalUsage)
		os.Exit(1)
	}

	switch args[0] {
	case "view":
		runView(args[1:])
	case "export":
		runExport(args[1:])
	case "filter":
		runFilter(args[1:])
	case "stats":
		runStats(args[1:])
	case "-h", "-help", "--help", "help":
		fmt.Print(journalUsage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown journal command: %s\n", args[0])
		fmt.Fprint(os.Stderr, journalUsage)
		os.Exit(1)
	}
}

// journalPath returns the single positional journal argument.
func journalPath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: journal file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `scpsigma journal view - View journal in human-readable format

Usage:
  scpsigma journal view [flags] <file.sjl>

Flags:
`)
		fs.PrintDefaults()
	}

	category := fs.String("category", "", "Filter by category (attempt, transfer, verify, state, error)")
	host := fs.String("host", "", "Filter by host (host:port)")
	transferID := fs.String("transfer-id", "", "Filter by transfer ID")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := journalPath(fs)

	filter := commands.ViewFilter{Host: *host, TransferID: *transferID}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `scpsigma journal export - Export journal to JSONL or CSV format

Usage:
  scpsigma journal export [flags] <file.sjl>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := journalPath(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fatal(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `scpsigma journal filter - Filter journal and write to new file

Usage:
  scpsigma journal filter [flags] <file.sjl>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	sessionID := fs.String("session", "", "Filter by session ID")
	transferID := fs.String("transfer-id", "", "Filter by transfer ID")
	host := fs.String("host", "", "Filter by host (host:port)")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	category := fs.String("category", "", "Filter by category (attempt, transfer, verify, state, error)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := journalPath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	n, err := commands.RunFilter(path, commands.FilterOptions{
		Output:     *output,
		SessionID:  *sessionID,
		TransferID: *transferID,
		Host:       *host,
		TimeStart:  *timeStart,
		TimeEnd:    *timeEnd,
		Category:   *category,
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Filtered %d events to %s\n", n, *output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `scpsigma journal stats - Show statistics about the journal

Usage:
  scpsigma journal stats <file.sjl>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := journalPath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}
