// Package interactive provides the interactive transfer shell.
package interactive

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/scpsigma/scpsigma-go/pkg/report"
	"github.com/scpsigma/scpsigma-go/pkg/transfer"
)

// Client is the part of transfer.Client the shell drives.
type Client interface {
	SecureTransfer(ctx context.Context, job transfer.Job) (*transfer.Metrics, error)
	Metrics() []transfer.Metrics
	Host() string
}

// Shell is an interactive session on one connected host.
type Shell struct {
	client     Client
	limits     report.Limits
	skipVerify bool
	out        io.Writer
	rl         *readline.Instance
}

// New creates a shell for client.
func New(client Client, limits report.Limits, skipVerify bool) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s> ", client.Host()),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("put"),
			readline.PcItem("metrics"),
			readline.PcItem("report"),
			readline.PcItem("chart"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	s := newShell(client, limits, skipVerify, rl.Stdout())
	s.rl = rl
	return s, nil
}

func newShell(client Client, limits report.Limits, skipVerify bool, out io.Writer) *Shell {
	return &Shell{client: client, limits: limits, skipVerify: skipVerify, out: out}
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (s *Shell) Stderr() io.Writer {
	return s.rl.Stderr()
}

// Run starts the interactive command loop. It returns when the user quits,
// input ends or ctx is done.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return
		}

		if !s.execute(ctx, line) {
			return
		}
	}
}

// execute runs one command line. It returns false when the shell should exit.
func (s *Shell) execute(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "put", "p":
		s.cmdPut(ctx, args)

	case "metrics", "m":
		s.cmdMetrics()

	case "report", "r":
		s.cmdReport(args)

	case "chart", "c":
		s.cmdChart(args)

	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return false

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
scpsigma Shell Commands:
  Transfer:
    put <local> <remote>  - Upload and verify a file (remote ending in / keeps the name)
    metrics               - List completed transfers

  Quality:
    report [file]         - Print the quality report (or write it to file)
    chart <file.svg>      - Write the throughput control chart

  General:
    help                  - Show this help
    quit                  - Exit the shell`)
}

func (s *Shell) cmdPut(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "Usage: put <local> <remote>")
		return
	}
	local, remote := args[0], args[1]
	if strings.HasSuffix(remote, "/") {
		remote = path.Join(remote, filepath.Base(local))
	}

	m, err := s.client.SecureTransfer(ctx, transfer.Job{LocalPath: local, RemotePath: remote, SkipVerify: s.skipVerify})
	if err != nil {
		fmt.Fprintf(s.out, "Transfer failed: %v\n", err)
		return
	}
	verified := ""
	if m.Verified {
		verified = ", verified"
	}
	fmt.Fprintf(s.out, "%s -> %s: %d bytes in %s (%.2f Mbps, %d attempt(s)%s)\n",
		local, remote, m.SizeBytes, m.Duration.Round(time.Millisecond), m.ThroughputMbps, m.Attempts, verified)
}

func (s *Shell) cmdMetrics() {
	metrics := s.client.Metrics()
	if len(metrics) == 0 {
		fmt.Fprintln(s.out, "No transfers yet.")
		return
	}
	fmt.Fprintf(s.out, "%-3s %-40s %12s %10s %8s\n", "#", "FILE", "BYTES", "MBPS", "ATTEMPTS")
	for i, m := range metrics {
		fmt.Fprintf(s.out, "%-3d %-40s %12d %10.2f %8d\n", i+1, m.Filename, m.SizeBytes, m.ThroughputMbps, m.Attempts)
	}
}

func (s *Shell) cmdReport(args []string) {
	rep := report.Generate(s.client.Metrics(), s.limits)
	if rep == nil {
		fmt.Fprintln(s.out, "No transfers yet.")
		return
	}
	if len(args) == 0 {
		if err := report.WriteJSON(s.out, rep); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
		return
	}
	if err := report.WriteFile(args[0], rep); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Quality report written to %s\n", args[0])
}

func (s *Shell) cmdChart(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: chart <file.svg>")
		return
	}
	metrics := s.client.Metrics()
	if len(metrics) == 0 {
		fmt.Fprintln(s.out, "No transfers yet.")
		return
	}
	if err := report.RenderChartFile(args[0], transfer.Throughputs(metrics)); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Control chart written to %s\n", args[0])
}
