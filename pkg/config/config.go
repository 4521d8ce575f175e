package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scpsigma/scpsigma-go/pkg/publish"
	"github.com/scpsigma/scpsigma-go/pkg/report"
	"github.com/scpsigma/scpsigma-go/pkg/transfer"
)

// DefaultParallel is the default number of concurrent uploads.
const DefaultParallel = 1

// FileSpec is one local file and its destination.
type FileSpec struct {
	Local  string `yaml:"local"`
	Remote string `yaml:"remote"`
}

// RetryConfig configures retries.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// LimitsConfig holds the quality report limits.
type LimitsConfig struct {
	USL         float64 `yaml:"usl"`
	LSL         float64 `yaml:"lsl"`
	DefectBelow float64 `yaml:"defect_below"`
}

// MQTTConfig configures the optional metrics publisher.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	QoS         *byte  `yaml:"qos"`
	Retained    bool   `yaml:"retained"`
}

// Config holds every scpsigma setting.
type Config struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Username       string        `yaml:"username"`
	KeyPath        string        `yaml:"key_path"`
	KeyPassphrase  string        `yaml:"key_passphrase"`
	KnownHosts     string        `yaml:"known_hosts"`
	HostKeyPolicy  string        `yaml:"host_key_policy"`
	BandwidthLimit int           `yaml:"bandwidth_limit"`
	SocketTimeout  time.Duration `yaml:"socket_timeout"`
	Retry          RetryConfig   `yaml:"retry"`
	Parallel       int           `yaml:"parallel"`
	SkipVerify     bool          `yaml:"skip_verify"`
	Files          []FileSpec    `yaml:"files"`
	Limits         LimitsConfig  `yaml:"limits"`

	// Outputs. Empty disables the output.
	Report     string `yaml:"report"`
	Chart      string `yaml:"chart"`
	Journal    string `yaml:"journal"`
	DB         string `yaml:"db"`
	Checkpoint string `yaml:"checkpoint"`

	MQTT     MQTTConfig `yaml:"mqtt"`
	LogLevel string     `yaml:"log_level"`
}

// Default returns the built-in defaults.
func Default() *Config {
	limits := report.DefaultLimits()
	return &Config{
		Port:          transfer.DefaultPort,
		HostKeyPolicy: string(transfer.HostKeyAcceptNew),
		SocketTimeout: transfer.DefaultSocketTimeout,
		Retry: RetryConfig{
			MaxAttempts: transfer.DefaultMaxAttempts,
			BaseDelay:   transfer.DefaultBaseDelay,
			MaxDelay:    transfer.DefaultMaxDelay,
		},
		Parallel: DefaultParallel,
		Limits: LimitsConfig{
			USL:         limits.USL,
			LSL:         limits.LSL,
			DefectBelow: limits.DefectBelow,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML file over the defaults. Unknown keys are errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings a transfer needs.
func (c *Config) Validate() error {
	if err := c.TransferConfig().Validate(); err != nil {
		return err
	}
	if c.Parallel < 1 {
		return fmt.Errorf("%w: parallel must be at least 1", transfer.ErrInvalidConfig)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry.max_attempts must be at least 1", transfer.ErrInvalidConfig)
	}
	if c.Limits.USL <= c.Limits.LSL {
		return fmt.Errorf("%w: limits.usl must be greater than limits.lsl", transfer.ErrInvalidConfig)
	}
	for i, f := range c.Files {
		if f.Local == "" || f.Remote == "" {
			return fmt.Errorf("%w: files[%d] needs local and remote", transfer.ErrInvalidConfig, i)
		}
	}
	return nil
}

// TransferConfig converts the connection settings.
func (c *Config) TransferConfig() transfer.Config {
	return transfer.Config{
		Host:           c.Host,
		Port:           c.Port,
		Username:       c.Username,
		KeyPath:        expandHome(c.KeyPath),
		KeyPassphrase:  c.KeyPassphrase,
		KnownHostsPath: expandHome(c.KnownHosts),
		HostKeyPolicy:  transfer.HostKeyPolicy(c.HostKeyPolicy),
		BandwidthLimit: c.BandwidthLimit,
		SocketTimeout:  c.SocketTimeout,
		Retry: transfer.RetryPolicy{
			MaxAttempts: c.Retry.MaxAttempts,
			BaseDelay:   c.Retry.BaseDelay,
			MaxDelay:    c.Retry.MaxDelay,
		},
	}
}

// Jobs converts Files to transfer jobs.
func (c *Config) Jobs() []transfer.Job {
	jobs := make([]transfer.Job, 0, len(c.Files))
	for _, f := range c.Files {
		jobs = append(jobs, transfer.Job{
			LocalPath:  expandHome(f.Local),
			RemotePath: resolveRemote(f.Local, f.Remote),
			SkipVerify: c.SkipVerify,
		})
	}
	return jobs
}

// ReportLimits returns the report limits.
func (c *Config) ReportLimits() report.Limits {
	return report.Limits{USL: c.Limits.USL, LSL: c.Limits.LSL, DefectBelow: c.Limits.DefectBelow}
}

// PublishConfig returns the MQTT publisher settings. ok is false when no
// broker is configured.
func (c *Config) PublishConfig() (cfg publish.Config, ok bool) {
	if c.MQTT.Broker == "" {
		return publish.Config{}, false
	}
	return publish.Config{
		Broker:      c.MQTT.Broker,
		ClientID:    c.MQTT.ClientID,
		TopicPrefix: c.MQTT.TopicPrefix,
		Username:    c.MQTT.Username,
		Password:    c.MQTT.Password,
		QoS:         c.MQTT.QoS,
		Retained:    c.MQTT.Retained,
	}, true
}

// ParseFileSpec parses "local:remote". The split is at the first colon
// after an optional drive prefix such as `C:\`, so the remote path may hold
// colons but the local one may not. A remote ending in '/' receives the local
// base name.
func ParseFileSpec(s string) (FileSpec, error) {
	skip := 0
	if hasDrivePrefix(s) {
		skip = 2
	}
	i := strings.IndexByte(s[skip:], ':')
	if i < 0 {
		return FileSpec{}, fmt.Errorf("invalid file spec %q (want local:remote)", s)
	}
	local, remote := s[:skip+i], s[skip+i+1:]
	if local == "" || remote == "" {
		return FileSpec{}, fmt.Errorf("invalid file spec %q (want local:remote)", s)
	}
	return FileSpec{Local: local, Remote: remote}, nil
}

func hasDrivePrefix(s string) bool {
	if len(s) < 3 || s[1] != ':' || (s[2] != '\\' && s[2] != '/') {
		return false
	}
	c := s[0] | 0x20
	return c >= 'a' && c <= 'z'
}

// resolveRemote appends the local base name to a directory-style remote.
func resolveRemote(local, remote string) string {
	if strings.HasSuffix(remote, "/") {
		return path.Join(remote, baseName(local))
	}
	return remote
}

func baseName(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return path.Base(p)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + p[1:]
		}
	}
	return p
}
