package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scpsigma/scpsigma-go/pkg/journal"
	"github.com/scpsigma/scpsigma-go/pkg/telemetry"
)

// Job is a single upload.
type Job struct {
	LocalPath  string `json:"local" yaml:"local"`
	RemotePath string `json:"remote" yaml:"remote"`

	// SkipVerify disables the remote checksum comparison.
	SkipVerify bool `json:"skip_verify,omitempty" yaml:"skip_verify,omitempty"`
}

// Client performs verified uploads over a Remote and collects metrics.
// It is safe for concurrent use.
type Client struct {
	remote    Remote
	cfg       Config
	logger    *slog.Logger
	journal   journal.Logger
	sessionID string

	mu      sync.Mutex
	metrics []Metrics
	closed  bool

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Dial connects to the host in cfg and returns a Client.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	sessionID := cfg.SessionID

	cfg.Journal.Log(journal.Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Category:  journal.CategoryState,
		Host:      cfg.Addr(),
		StateChange: &journal.StateChangeEvent{
			Entity:   journal.StateEntityConnection,
			NewState: "CONNECTING",
		},
	})

	remote, err := dialSSH(ctx, cfg)
	if err != nil {
		cfg.Journal.Log(journal.Event{
			Timestamp: time.Now(),
			SessionID: sessionID,
			Category:  journal.CategoryError,
			Host:      cfg.Addr(),
			Error:     &journal.ErrorEventData{Stage: journal.StageConnect, Message: err.Error(), Final: true},
		})
		return nil, err
	}

	c := newClient(remote, cfg, sessionID)
	c.logState(journal.StateEntityConnection, "CONNECTING", "CONNECTED", "")
	if c.logger != nil {
		c.logger.Info("connected", "host", remote.Addr(), "user", cfg.Username, "session", sessionID)
	}
	return c, nil
}

// NewClient wraps an existing Remote.
func NewClient(remote Remote, cfg Config) *Client {
	cfg = cfg.withDefaults()
	return newClient(remote, cfg, cfg.SessionID)
}

func newClient(remote Remote, cfg Config, sessionID string) *Client {
	return &Client{
		remote:    remote,
		cfg:       cfg,
		logger:    cfg.Logger,
		journal:   cfg.Journal,
		sessionID: sessionID,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// SessionID returns the journal session identifier.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Host returns the remote address.
func (c *Client) Host() string {
	return c.remote.Addr()
}

// SecureTransfer uploads job.LocalPath to job.RemotePath, verifying the
// remote checksum unless job.SkipVerify is set. Failed attempts are retried
// per the retry policy. The returned error wraps ErrMaxRetries and the last
// cause when every attempt failed.
func (c *Client) SecureTransfer(ctx context.Context, job Job) (*Metrics, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	transferID := uuid.New().String()
	maxAttempts := c.cfg.Retry.MaxAttempts

	ctx, span := telemetry.StartTransfer(ctx, c.remote.Addr(), job.LocalPath)
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c.logEvent(transferID, job, journal.Event{
			Category: journal.CategoryAttempt,
			Attempt:  &journal.AttemptEvent{Number: attempt, MaxAttempts: maxAttempts},
		})
		telemetry.RecordAttempt(ctx, c.remote.Addr())

		m, stage, err := c.attempt(ctx, transferID, job)
		if err == nil {
			m.Attempts = attempt
			c.record(ctx, transferID, job, m)
			telemetry.EndTransfer(span, nil)
			return m, nil
		}
		lastErr = err
		final := attempt == maxAttempts || ctx.Err() != nil

		c.errorLog("transfer attempt failed",
			"local", job.LocalPath,
			"attempt", fmt.Sprintf("%d/%d", attempt, maxAttempts),
			"stage", stage.String(),
			"error", err)
		c.logEvent(transferID, job, journal.Event{
			Category: journal.CategoryError,
			Error:    &journal.ErrorEventData{Stage: stage, Message: err.Error(), Attempt: attempt, Final: final},
		})
		telemetry.RecordFailure(ctx, c.remote.Addr(), stage.String())

		if final {
			break
		}

		delay := c.cfg.Retry.Delay(attempt)
		c.logEvent(transferID, job, journal.Event{
			Category: journal.CategoryAttempt,
			Attempt:  &journal.AttemptEvent{Number: attempt, MaxAttempts: maxAttempts, Backoff: delay},
		})
		if err := c.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	if ctx.Err() != nil {
		err := fmt.Errorf("transfer %s: %w", job.LocalPath, ctx.Err())
		telemetry.EndTransfer(span, err)
		return nil, err
	}

	c.errorLog("max retries exceeded", "local", job.LocalPath, "attempts", maxAttempts)
	err := fmt.Errorf("%w: %s after %d attempts: %w", ErrMaxRetries, job.LocalPath, maxAttempts, lastErr)
	telemetry.EndTransfer(span, err)
	return nil, err
}

// attempt performs one hash-upload-verify cycle. The measured duration
// covers hashing and upload; verification is not part of throughput.
func (c *Client) attempt(ctx context.Context, transferID string, job Job) (*Metrics, journal.Stage, error) {
	start := c.now()

	localHash, err := FileSHA256(job.LocalPath)
	if err != nil {
		return nil, journal.StageHash, err
	}

	f, err := os.Open(job.LocalPath)
	if err != nil {
		return nil, journal.StageUpload, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, journal.StageUpload, err
	}
	if !st.Mode().IsRegular() {
		return nil, journal.StageUpload, fmt.Errorf("%s is not a regular file", job.LocalPath)
	}

	info := FileInfo{
		Name: filepath.Base(job.LocalPath),
		Size: st.Size(),
		Mode: st.Mode().Perm(),
	}
	src := newRateLimitedReader(ctx, f, c.cfg.BandwidthLimit)
	if err := c.remote.Upload(ctx, src, info, job.RemotePath); err != nil {
		return nil, journal.StageUpload, err
	}
	elapsed := c.now().Sub(start)

	verified := false
	if !job.SkipVerify {
		remoteHash, err := c.remote.SHA256(ctx, job.RemotePath)
		if err != nil {
			return nil, journal.StageVerify, err
		}
		match := remoteHash == localHash
		c.logEvent(transferID, job, journal.Event{
			Category: journal.CategoryVerify,
			Verify:   &journal.VerifyEvent{LocalSHA256: localHash, RemoteSHA256: remoteHash, Match: match},
		})
		if !match {
			return nil, journal.StageVerify, fmt.Errorf("%w: local %s, remote %s", ErrIntegrity, localHash, remoteHash)
		}
		verified = true
	}

	return &Metrics{
		TransferID:     transferID,
		Filename:       job.LocalPath,
		RemotePath:     job.RemotePath,
		Host:           c.remote.Addr(),
		SizeBytes:      info.Size,
		Duration:       elapsed,
		ThroughputMbps: ThroughputMbps(info.Size, elapsed),
		SHA256:         localHash,
		Timestamp:      c.now(),
		Verified:       verified,
	}, journal.StageUpload, nil
}

// record stores successful metrics and notifies journal, telemetry and sinks.
func (c *Client) record(ctx context.Context, transferID string, job Job, m *Metrics) {
	c.mu.Lock()
	c.metrics = append(c.metrics, *m)
	c.mu.Unlock()

	c.logEvent(transferID, job, journal.Event{
		Category: journal.CategoryTransfer,
		Transfer: &journal.TransferEvent{
			SizeBytes:      m.SizeBytes,
			Duration:       m.Duration,
			ThroughputMbps: m.ThroughputMbps,
			SHA256:         m.SHA256,
			Attempts:       m.Attempts,
			Verified:       m.Verified,
		},
	})
	telemetry.RecordSuccess(ctx, m.Host, m.SizeBytes, m.Duration, m.ThroughputMbps)

	if c.logger != nil {
		c.logger.Info("transfer successful",
			"local", job.LocalPath,
			"remote", job.RemotePath,
			"throughput_mbps", fmt.Sprintf("%.2f", m.ThroughputMbps))
	}

	for _, sink := range c.cfg.Sinks {
		if err := sink.Record(ctx, *m); err != nil {
			c.errorLog("metrics sink failed", "local", job.LocalPath, "error", err)
			c.logEvent(transferID, job, journal.Event{
				Category: journal.CategoryError,
				Error:    &journal.ErrorEventData{Stage: journal.StagePublish, Message: err.Error()},
			})
		}
	}
}

// Metrics returns a copy of the metrics of all successful transfers in
// completion order.
func (c *Client) Metrics() []Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Metrics(nil), c.metrics...)
}

// Close closes the remote connection. Further transfers fail with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.logState(journal.StateEntityConnection, "CONNECTED", "CLOSED", "")
	return c.remote.Close()
}

func (c *Client) logEvent(transferID string, job Job, e journal.Event) {
	e.Timestamp = c.now()
	e.SessionID = c.sessionID
	e.TransferID = transferID
	e.Host = c.remote.Addr()
	e.LocalPath = job.LocalPath
	e.RemotePath = job.RemotePath
	c.journal.Log(e)
}

func (c *Client) logState(entity journal.StateEntity, from, to, reason string) {
	c.journal.Log(journal.Event{
		Timestamp: c.now(),
		SessionID: c.sessionID,
		Category:  journal.CategoryState,
		Host:      c.remote.Addr(),
		StateChange: &journal.StateChangeEvent{
			Entity:   entity,
			OldState: from,
			NewState: to,
			Reason:   reason,
		},
	})
}

func (c *Client) errorLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Error(msg, args...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsIntegrityError reports whether err is a checksum mismatch.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrIntegrity)
}
