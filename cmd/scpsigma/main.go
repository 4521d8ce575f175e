// Command scpsigma uploads files over SSH/SCP with checksum verification and
// analyses transfer throughput with Six Sigma statistics.
//
// Usage:
//
//	scpsigma <command> [flags] [args]
//
// Commands:
//
//	transfer  Upload and verify files, then write the quality report
//	report    Build a quality report from a journal or history database
//	chart     Render the throughput control chart
//	journal   View, export, filter or summarise a journal (.sjl)
//	discover  List SSH hosts announced via mDNS
//	shell     Interactive transfer session
//	version   Print version information
//
// Examples:
//
//	# Upload two files and write the report and chart
//	scpsigma transfer -host gw3 -user ops -key ~/.ssh/id_ed25519 \
//	    -report quality.json -chart chart.svg data/a.csv:/upload/ data/b.csv:/upload/
//
//	# Use a config file and resume an interrupted batch
//	scpsigma transfer -config scpsigma.yaml -resume
//
//	# Report across every session in the history database
//	scpsigma report -db history.db -o quality.yaml
//
//	# List the sessions recorded in the history database
//	scpsigma report -db history.db -sessions
//
//	# Show only errors from a journal
//	scpsigma journal view -category error run.sjl
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/scpsigma/scpsigma-go/cmd/scpsigma/commands"
	"github.com/scpsigma/scpsigma-go/cmd/scpsigma/interactive"
	"github.com/scpsigma/scpsigma-go/pkg/config"
	"github.com/scpsigma/scpsigma-go/pkg/discovery"
	"github.com/scpsigma/scpsigma-go/pkg/report"
	"github.com/scpsigma/scpsigma-go/pkg/transfer"
	"github.com/scpsigma/scpsigma-go/pkg/version"
)

const usage = `scpsigma - Verified SCP transfers with Six Sigma throughput analysis

Usage:
  scpsigma <command> [flags] [args]

Commands:
  transfer  Upload and verify files, then write the quality report
  report    Build a quality report from a journal or history database
  chart     Render the throughput control chart
  journal   View, export, filter or summarise a journal (.sjl)
  discover  List SSH hosts announced via mDNS
  shell     Interactive transfer session
  version   Print version information

Use "scpsigma <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "transfer":
		runTransfer(args)
	case "report":
		runReport(args)
	case "chart":
		runChart(args)
	case "journal":
		runJournal(args)
	case "discover":
		runDiscover(args)
	case "shell":
		runShell(args)
	case "version":
		fmt.Println(version.Info())
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runTransfer(args []string) {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `scpsigma transfer - Upload and verify files

Usage:
  scpsigma transfer [flags] [local:remote ...]

Files given as arguments are added to those in the config file. A remote
path ending in / receives the local file name.

Flags:
`)
		fs.PrintDefaults()
	}

	cf := addConnFlags(fs)
	fs.Bool("no-verify", false, "Skip the remote checksum comparison")
	fs.Int("parallel", config.DefaultParallel, "Concurrent uploads")
	fs.String("report", "", "Quality report file (.json, .yaml)")
	fs.String("chart", "", "Control chart file (.svg)")
	fs.String("journal", "", "Journal file (.sjl)")
	fs.String("db", "", "SQLite history database")
	fs.String("checkpoint", "", "Checkpoint file for -resume")
	fs.String("mqtt-broker", "", "MQTT broker for per-transfer metrics (e.g. tcp://broker:1883)")
	fs.String("mqtt-topic", "", "MQTT topic prefix (default scpsigma)")
	resume := fs.Bool("resume", false, "Skip files already uploaded according to -checkpoint")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := cf.load(fs, applyTransferFlag)
	if err != nil {
		fatal(err)
	}
	for _, arg := range fs.Args() {
		spec, err := config.ParseFileSpec(arg)
		if err != nil {
			fatal(err)
		}
		cfg.Files = append(cfg.Files, spec)
	}
	if *resume && cfg.Checkpoint == "" {
		fatal(errors.New("-resume requires -checkpoint"))
	}

	logger, err := commands.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	_, err = commands.RunTransfer(ctx, cfg, commands.TransferOptions{Resume: *resume, Logger: logger}, os.Stdout)
	if err != nil {
		cancel()
		fatal(err)
	}
}

func applyTransferFlag(name, value string, cfg *config.Config) error {
	var err error
	switch name {
	case "no-verify":
		cfg.SkipVerify, err = strconv.ParseBool(value)
	case "parallel":
		cfg.Parallel, err = strconv.Atoi(value)
	case "report":
		cfg.Report = value
	case "chart":
		cfg.Chart = value
	case "journal":
		cfg.Journal = value
	case "db":
		cfg.DB = value
	case "checkpoint":
		cfg.Checkpoint = value
	case "mqtt-broker":
		cfg.MQTT.Broker = value
	case "mqtt-topic":
		cfg.MQTT.TopicPrefix = value
	}
	if err != nil {
		return fmt.Errorf("invalid -%s: %w", name, err)
	}
	return nil
}

func addSourceFlags(fs *flag.FlagSet) *commands.Source {
	src := &commands.Source{}
	fs.StringVar(&src.Journal, "journal", "", "Read transfers from a journal file")
	fs.StringVar(&src.DB, "db", "", "Read transfers from a history database")
	fs.StringVar(&src.SessionID, "session", "", "Only use transfers from this session")
	fs.StringVar(&src.Host, "host", "", "Only use transfers to this host (host:port)")
	return src
}

func runReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `scpsigma report - Build a quality report

Usage:
  scpsigma report [-journal file | -db file] [flags]
  scpsigma report -db file -sessions [-host host:port]

Flags:
`)
		fs.PrintDefaults()
	}

	src := addSourceFlags(fs)
	output := fs.String("o", "", "Output file (default: stdout)")
	format := fs.String("format", "", "Output format (json, yaml; default from -o extension)")
	defaults := report.DefaultLimits()
	usl := fs.Float64("usl", defaults.USL, "Upper specification limit (Mbps)")
	lsl := fs.Float64("lsl", defaults.LSL, "Lower specification limit (Mbps)")
	defectBelow := fs.Float64("defect-below", defaults.DefectBelow, "Throughput below which a transfer is a defect (Mbps)")
	sessions := fs.Bool("sessions", false, "List the sessions in the history database instead")
	limit := fs.Int("limit", 100, "Maximum number of sessions to list")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *sessions {
		if err := commands.RunSessions(*src, *limit, os.Stdout); err != nil {
			fatal(err)
		}
		return
	}
	if *usl <= *lsl {
		fatal(errors.New("-usl must be greater than -lsl"))
	}

	opts := commands.ReportOptions{
		Output: *output,
		Format: *format,
		Limits: report.Limits{USL: *usl, LSL: *lsl, DefectBelow: *defectBelow},
	}
	if err := commands.RunReport(*src, opts, os.Stdout); err != nil {
		fatal(err)
	}
}

func runChart(args []string) {
	fs := flag.NewFlagSet("chart", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `scpsigma chart - Render the throughput control chart

Usage:
  scpsigma chart [-journal file | -db file] -o chart.svg

Flags:
`)
		fs.PrintDefaults()
	}

	src := addSourceFlags(fs)
	output := fs.String("o", "", "Output file (required)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if err := commands.RunChart(*src, *output, os.Stdout); err != nil {
		fatal(err)
	}
}

func runDiscover(args []string) {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `scpsigma discover - List SSH hosts announced via mDNS

Usage:
  scpsigma discover [flags]

Flags:
`)
		fs.PrintDefaults()
	}

	timeout := fs.Duration("timeout", discovery.DefaultBrowseTimeout, "How long to listen")
	iface := fs.String("interface", "", "Network interface (default: all)")
	logLevel := fs.String("log-level", "warn", "Log level (debug, info, warn, error, off)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	logger, err := commands.NewLogger(*logLevel, os.Stderr)
	if err != nil {
		fatal(err)
	}

	cfg := discovery.DefaultBrowserConfig()
	cfg.BrowseTimeout = *timeout
	cfg.Interface = *iface
	cfg.Logger = logger
	browser := discovery.NewMDNSBrowser(cfg)
	defer browser.Stop()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Fprintf(os.Stderr, "Browsing for %s ...\n", *timeout)
	if err := commands.RunDiscover(ctx, browser, os.Stdout); err != nil {
		fatal(err)
	}
}

func runShell(args []string) {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `scpsigma shell - Interactive transfer session

Usage:
  scpsigma shell [flags]

Flags:
`)
		fs.PrintDefaults()
	}

	cf := addConnFlags(fs)
	noVerify := fs.Bool("no-verify", false, "Skip the remote checksum comparison")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := cf.load(fs, nil)
	if err != nil {
		fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	logger, err := commands.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		fatal(err)
	}
	tcfg := cfg.TransferConfig()
	tcfg.Logger = logger

	ctx, cancel := signalContext()
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(ctx, tcfg.SocketTimeout+5*time.Second)
	client, err := transfer.Dial(dialCtx, tcfg)
	dialCancel()
	if err != nil {
		fatal(err)
	}
	defer client.Close()

	shell, err := interactive.New(client, cfg.ReportLimits(), *noVerify || cfg.SkipVerify)
	if err != nil {
		fatal(err)
	}

	fmt.Fprintf(shell.Stdout(), "Connected to %s (session %s)\n", client.Host(), client.SessionID())
	shell.Run(ctx)
}
