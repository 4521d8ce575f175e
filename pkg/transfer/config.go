package transfer

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scpsigma/scpsigma-go/pkg/journal"
)

// Defaults.
const (
	DefaultPort          = 22
	DefaultSocketTimeout = 15 * time.Second
	DefaultMaxAttempts   = 3
	DefaultBaseDelay     = time.Second
	DefaultMultiplier    = 2.0
	DefaultMaxDelay      = 60 * time.Second
)

// HostKeyPolicy decides how unknown and changed host keys are handled.
type HostKeyPolicy string

const (
	// HostKeyStrict rejects hosts that are not in known_hosts.
	HostKeyStrict HostKeyPolicy = "strict"

	// HostKeyAcceptNew trusts unknown hosts on first use and appends them to
	// known_hosts. Changed keys are still rejected.
	HostKeyAcceptNew HostKeyPolicy = "accept-new"

	// HostKeyInsecure accepts any host key.
	HostKeyInsecure HostKeyPolicy = "insecure"
)

// ParseHostKeyPolicy parses a policy name. Empty means HostKeyAcceptNew.
func ParseHostKeyPolicy(s string) (HostKeyPolicy, error) {
	switch p := HostKeyPolicy(strings.ToLower(s)); p {
	case "":
		return HostKeyAcceptNew, nil
	case HostKeyStrict, HostKeyAcceptNew, HostKeyInsecure:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown host key policy %q (use: strict, accept-new, insecure)", ErrInvalidConfig, s)
	}
}

// RetryPolicy configures retries with exponential backoff.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts per transfer (not retries
	// after the first). Default: 3.
	MaxAttempts int

	// BaseDelay is multiplied by Multiplier^attempt. Default: 1s, which gives
	// 2s after the first failure and 4s after the second.
	BaseDelay time.Duration

	// Multiplier is the backoff multiplier. Default: 2.
	Multiplier float64

	// MaxDelay caps a single wait. Default: 60s.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the default retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Multiplier:  DefaultMultiplier,
		MaxDelay:    DefaultMaxDelay,
	}
}

// withDefaults fills zero fields.
func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = d.BaseDelay
	}
	if p.Multiplier <= 0 {
		p.Multiplier = d.Multiplier
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = d.MaxDelay
	}
	return p
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	p = p.withDefaults()
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt))
	if d > float64(p.MaxDelay) || math.IsInf(d, 0) || math.IsNaN(d) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Config configures a Client.
type Config struct {
	// Host is the remote hostname or IP.
	Host string

	// Port is the SSH port. Default: 22.
	Port int

	// Username is the SSH user.
	Username string

	// KeyPath is the private key used for public key authentication.
	KeyPath string

	// KeyPassphrase decrypts an encrypted private key.
	KeyPassphrase string

	// KnownHostsPath is the known_hosts file. Default: ~/.ssh/known_hosts.
	KnownHostsPath string

	// HostKeyPolicy controls host key checking. Default: HostKeyAcceptNew.
	HostKeyPolicy HostKeyPolicy

	// BandwidthLimit caps upload speed in KB/s. Zero means unlimited.
	BandwidthLimit int

	// SocketTimeout bounds connection setup. Default: 15s.
	SocketTimeout time.Duration

	// Retry configures retries.
	Retry RetryPolicy

	// Logger is the optional logger for operational output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Journal receives structured transfer events. If nil, nothing is journaled.
	Journal journal.Logger

	// Sinks receive the metrics of every successful transfer.
	Sinks []Sink

	// SessionID names the session in journal events and sinks. Empty means
	// a fresh UUID per client.
	SessionID string
}

// Addr returns host:port.
func (c Config) Addr() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// Validate checks the fields Dial needs.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if c.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidConfig)
	}
	if c.KeyPath == "" {
		return fmt.Errorf("%w: key path is required", ErrInvalidConfig)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.BandwidthLimit < 0 {
		return fmt.Errorf("%w: bandwidth limit must not be negative", ErrInvalidConfig)
	}
	if _, err := ParseHostKeyPolicy(string(c.HostKeyPolicy)); err != nil {
		return err
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.SocketTimeout <= 0 {
		c.SocketTimeout = DefaultSocketTimeout
	}
	if c.HostKeyPolicy == "" {
		c.HostKeyPolicy = HostKeyAcceptNew
	}
	c.Retry = c.Retry.withDefaults()
	if c.Journal == nil {
		c.Journal = journal.NoopLogger{}
	}
	if c.SessionID == "" {
		c.SessionID = uuid.New().String()
	}
	return c
}
