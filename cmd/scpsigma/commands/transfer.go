package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/scpsigma/scpsigma-go/pkg/config"
	"github.com/scpsigma/scpsigma-go/pkg/journal"
	"github.com/scpsigma/scpsigma-go/pkg/persistence"
	"github.com/scpsigma/scpsigma-go/pkg/publish"
	"github.com/scpsigma/scpsigma-go/pkg/report"
	"github.com/scpsigma/scpsigma-go/pkg/store"
	"github.com/scpsigma/scpsigma-go/pkg/telemetry"
	"github.com/scpsigma/scpsigma-go/pkg/transfer"
)

var (
	// ErrNoFiles is returned when a transfer has no jobs.
	ErrNoFiles = errors.New("no files to transfer")

	// ErrTransfersFailed is returned when at least one job failed.
	ErrTransfersFailed = errors.New("transfers failed")
)

// TransferOptions configures RunTransfer.
type TransferOptions struct {
	// Resume skips jobs recorded in the checkpoint whose local file is
	// unchanged.
	Resume bool

	// Logger is the optional operational logger.
	Logger *slog.Logger

	// Dial opens the client. Default: transfer.Dial.
	Dial func(ctx context.Context, cfg transfer.Config) (*transfer.Client, error)

	// Connect opens the MQTT publisher. Default: publish.Connect.
	Connect func(cfg publish.Config) (*publish.MQTTPublisher, error)
}

// TransferSummary is the outcome of RunTransfer.
type TransferSummary struct {
	SessionID string
	Results   []transfer.Result
	Report    *report.QualityReport
}

// Failed returns the number of failed jobs.
func (s *TransferSummary) Failed() int {
	return len(transfer.Failed(s.Results))
}

// session bundles the outputs a transfer run writes to.
type session struct {
	id         string
	logger     *slog.Logger
	journal    *journal.FileLogger
	store      *store.Store
	checkpoint *persistence.BatchStateStore
	publisher  publish.Publisher
}

func (s *session) close() {
	if s.publisher != nil {
		s.publisher.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
	if s.journal != nil {
		if n := s.journal.Dropped(); n > 0 {
			s.warn("journal is incomplete", "dropped_events", n)
		}
		s.journal.Close()
	}
}

// RunTransfer uploads every job in cfg, writes the configured outputs and
// prints a summary to w. The error wraps ErrTransfersFailed when any job
// failed; the summary is returned in that case too.
func RunTransfer(ctx context.Context, cfg *config.Config, opts TransferOptions, w io.Writer) (*TransferSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	jobs := cfg.Jobs()
	if len(jobs) == 0 {
		return nil, ErrNoFiles
	}
	if opts.Dial == nil {
		opts.Dial = transfer.Dial
	}
	if opts.Connect == nil {
		opts.Connect = publish.Connect
	}
	if err := telemetry.Init(); err != nil && opts.Logger != nil {
		opts.Logger.Warn("telemetry disabled", "error", err)
	}

	tcfg := cfg.TransferConfig()
	sess, skip, err := openSession(cfg, &tcfg, opts)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	client, err := opts.Dial(ctx, tcfg)
	if err != nil {
		sess.end(len(jobs))
		return nil, err
	}
	defer client.Close()

	results := client.TransferBatch(ctx, jobs, transfer.BatchOptions{
		Parallelism: cfg.Parallel,
		Skip:        skip,
	})
	summary := &TransferSummary{SessionID: sess.id, Results: results}
	failed := summary.Failed()
	sess.end(failed)

	metrics := client.Metrics()
	summary.Report = report.Generate(metrics, cfg.ReportLimits())
	if err := writeOutputs(cfg, summary.Report, metrics); err != nil {
		return summary, err
	}

	if failed == 0 && sess.checkpoint != nil {
		if err := sess.checkpoint.Clear(); err != nil {
			sess.warn("failed to clear checkpoint", "error", err)
		}
	}

	printSummary(w, summary)
	if failed > 0 {
		return summary, fmt.Errorf("%w: %d of %d", ErrTransfersFailed, failed, len(jobs))
	}
	return summary, nil
}

// openSession opens the journal, store, checkpoint and publisher configured
// in cfg and wires them into tcfg.
func openSession(cfg *config.Config, tcfg *transfer.Config, opts TransferOptions) (*session, func(transfer.Job) bool, error) {
	sess := &session{id: tcfg.SessionID, logger: opts.Logger}
	if sess.id == "" {
		sess.id = uuid.New().String()
		tcfg.SessionID = sess.id
	}
	tcfg.Logger = opts.Logger

	var loggers []journal.Logger
	if cfg.Journal != "" {
		fl, err := journal.NewFileLogger(cfg.Journal, journal.WithErrorLogger(opts.Logger))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open journal: %w", err)
		}
		sess.journal = fl
		loggers = append(loggers, fl)
	}
	if opts.Logger != nil && opts.Logger.Enabled(context.Background(), slog.LevelDebug) {
		loggers = append(loggers, journal.NewSlogAdapter(opts.Logger))
	}
	if len(loggers) > 0 {
		tcfg.Journal = journal.NewMultiLogger(loggers...)
	}

	if cfg.DB != "" {
		st, err := store.NewStore(cfg.DB)
		if err != nil {
			sess.close()
			return nil, nil, err
		}
		sess.store = st
		if err := st.CreateSession(&store.Session{
			ID:        sess.id,
			Host:      tcfg.Addr(),
			Username:  tcfg.Username,
			StartedAt: time.Now(),
		}); err != nil {
			sess.close()
			return nil, nil, err
		}
		tcfg.Sinks = append(tcfg.Sinks, st.Recorder(sess.id))
	}

	var skip func(transfer.Job) bool
	if cfg.Checkpoint != "" {
		sess.checkpoint = persistence.NewBatchStateStore(cfg.Checkpoint)
		if opts.Resume {
			state, err := sess.checkpoint.Load()
			if err != nil {
				sess.close()
				return nil, nil, err
			}
			if state != nil && state.Host != "" && state.Host != tcfg.Addr() {
				sess.warn("checkpoint belongs to another host, ignoring", "checkpoint_host", state.Host)
				state = nil
			}
			skip = persistence.SkipCompleted(state)
		} else if err := sess.checkpoint.Clear(); err != nil {
			sess.close()
			return nil, nil, err
		}
		tcfg.Sinks = append(tcfg.Sinks, sess.checkpoint.Sink())
	}

	if pcfg, ok := cfg.PublishConfig(); ok {
		pcfg.Logger = opts.Logger
		pub, err := opts.Connect(pcfg)
		if err != nil {
			sess.close()
			return nil, nil, err
		}
		sess.publisher = pub
		tcfg.Sinks = append(tcfg.Sinks, pub)
	}

	return sess, skip, nil
}

func (s *session) end(failures int) {
	if s.store == nil {
		return
	}
	if err := s.store.EndSession(s.id, time.Now(), failures); err != nil {
		s.warn("failed to end session", "error", err)
	}
}

func (s *session) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// writeOutputs writes the report and chart files configured in cfg.
func writeOutputs(cfg *config.Config, rep *report.QualityReport, metrics []transfer.Metrics) error {
	if rep == nil {
		return nil
	}
	if cfg.Report != "" {
		if err := report.WriteFile(cfg.Report, rep); err != nil {
			return err
		}
	}
	if cfg.Chart != "" {
		if err := report.RenderChartFile(cfg.Chart, transfer.Throughputs(metrics)); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(w io.Writer, s *TransferSummary) {
	for _, r := range s.Results {
		switch {
		case r.Skipped:
			fmt.Fprintf(w, "SKIP  %s -> %s (unchanged since checkpoint)\n", r.Job.LocalPath, r.Job.RemotePath)
		case r.Err != nil:
			fmt.Fprintf(w, "FAIL  %s -> %s: %v\n", r.Job.LocalPath, r.Job.RemotePath, r.Err)
		default:
			fmt.Fprintf(w, "OK    %s -> %s  %.2f Mbps, %d attempt(s)\n",
				r.Job.LocalPath, r.Job.RemotePath, r.Metrics.ThroughputMbps, r.Metrics.Attempts)
		}
	}

	if s.Report == nil {
		return
	}
	st := s.Report.ThroughputStats
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Transfers:   %d\n", st.Samples)
	fmt.Fprintf(w, "Mean:        %s Mbps\n", st.Mean)
	fmt.Fprintf(w, "Std dev:     %s Mbps\n", st.StdDev)
	fmt.Fprintf(w, "Cpk:         %s\n", st.Cpk)
	fmt.Fprintf(w, "Sigma level: %s\n", st.SigmaLevel)
	if n := len(st.OutOfControl); n > 0 {
		fmt.Fprintf(w, "Out of control: %d point(s)\n", n)
	}
}

func createFile(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
