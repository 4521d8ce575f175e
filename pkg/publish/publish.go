package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/scpsigma/scpsigma-go/pkg/transfer"
)

// Defaults.
const (
	DefaultTopicPrefix = "scpsigma"
	DefaultQoS         = 1
	DefaultTimeout     = 5 * time.Second
	DefaultClientID    = "scpsigma"
)

var (
	// ErrTimeout is returned when the broker does not acknowledge in time.
	ErrTimeout = errors.New("publish: timed out waiting for broker")

	// ErrNotConnected is returned when publishing on a closed publisher.
	ErrNotConnected = errors.New("publish: not connected")
)

// Publisher delivers transfer metrics somewhere.
type Publisher interface {
	Publish(ctx context.Context, m transfer.Metrics) error
	Close()
}

// Client is the subset of mqtt.Client the publisher uses.
type Client interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Config configures an MQTT publisher.
type Config struct {
	// Broker is the broker URL, e.g. "tcp://broker:1883". A bare host:port
	// gets the tcp scheme.
	Broker string

	// ClientID identifies this client to the broker. Default: "scpsigma".
	ClientID string

	// Username and Password authenticate to the broker if set.
	Username string
	Password string

	// TopicPrefix is the first topic level. Default: "scpsigma".
	TopicPrefix string

	// QoS is the MQTT quality of service. Default: 1.
	QoS *byte

	// Retained sets the retain flag on every message.
	Retained bool

	// Timeout bounds the wait for the broker. Default: 5s.
	Timeout time.Duration

	// Logger is the optional logger for connection events.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.ClientID == "" {
		c.ClientID = DefaultClientID
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = DefaultTopicPrefix
	}
	if c.QoS == nil {
		q := byte(DefaultQoS)
		c.QoS = &q
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// BrokerURL returns Broker with a scheme.
func (c Config) BrokerURL() string {
	if strings.Contains(c.Broker, "://") {
		return c.Broker
	}
	return "tcp://" + c.Broker
}

// Payload is the JSON document published per transfer.
type Payload struct {
	TransferID     string  `json:"transfer_id"`
	Host           string  `json:"host"`
	Filename       string  `json:"filename"`
	RemotePath     string  `json:"remote_path"`
	SizeBytes      int64   `json:"size_bytes"`
	DurationSec    float64 `json:"duration_sec"`
	ThroughputMbps float64 `json:"throughput_mbps"`
	SHA256         string  `json:"sha256_checksum"`
	Timestamp      string  `json:"timestamp"`
	Attempts       int     `json:"attempts"`
	Verified       bool    `json:"verified"`
}

// NewPayload converts metrics to the published form.
func NewPayload(m transfer.Metrics) Payload {
	return Payload{
		TransferID:     m.TransferID,
		Host:           m.Host,
		Filename:       m.Filename,
		RemotePath:     m.RemotePath,
		SizeBytes:      m.SizeBytes,
		DurationSec:    m.Duration.Seconds(),
		ThroughputMbps: m.ThroughputMbps,
		SHA256:         m.SHA256,
		Timestamp:      m.Timestamp.UTC().Format(time.RFC3339Nano),
		Attempts:       m.Attempts,
		Verified:       m.Verified,
	}
}

// MQTTPublisher publishes metrics to an MQTT broker.
type MQTTPublisher struct {
	client    Client
	cfg       Config
	closeOnce sync.Once
}

// Connect connects to the broker in cfg.
func Connect(cfg Config) (*MQTTPublisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("publish: broker is required")
	}
	cfg = cfg.withDefaults()
	logger := cfg.Logger

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL())
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(cfg.Timeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		if logger != nil {
			logger.Info("connected to MQTT broker", "broker", cfg.BrokerURL())
		}
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		if logger != nil {
			logger.Warn("lost connection to MQTT broker", "broker", cfg.BrokerURL(), "error", err)
		}
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	return NewMQTTPublisher(client, cfg), nil
}

// NewMQTTPublisher wraps a connected client.
func NewMQTTPublisher(client Client, cfg Config) *MQTTPublisher {
	return &MQTTPublisher{client: client, cfg: cfg.withDefaults()}
}

// Topic returns the topic for a host. Characters that are topic separators
// or wildcards are replaced by '_'.
func (p *MQTTPublisher) Topic(host string) string {
	host = strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(host)
	if host == "" {
		host = "unknown"
	}
	return p.cfg.TopicPrefix + "/" + host + "/transfers"
}

// Publish sends m and waits for the broker acknowledgement.
func (p *MQTTPublisher) Publish(ctx context.Context, m transfer.Metrics) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}

	payload, err := json.Marshal(NewPayload(m))
	if err != nil {
		return fmt.Errorf("publish: encode payload: %w", err)
	}

	topic := p.Topic(m.Host)
	token := p.client.Publish(topic, *p.cfg.QoS, p.cfg.Retained, payload)

	timer := time.NewTimer(p.cfg.Timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-timer.C:
		return fmt.Errorf("%w: %s", ErrTimeout, topic)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Record implements transfer.Sink.
func (p *MQTTPublisher) Record(ctx context.Context, m transfer.Metrics) error {
	return p.Publish(ctx, m)
}

// Close disconnects from the broker. It also stops a client that is still
// reconnecting, so it is called whatever the connection state.
func (p *MQTTPublisher) Close() {
	p.closeOnce.Do(func() { p.client.Disconnect(250) })
}

// Noop discards everything.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, transfer.Metrics) error { return nil }

// Record implements transfer.Sink.
func (Noop) Record(context.Context, transfer.Metrics) error { return nil }

// Close implements Publisher.
func (Noop) Close() {}

var (
	_ Publisher     = (*MQTTPublisher)(nil)
	_ Publisher     = Noop{}
	_ transfer.Sink = (*MQTTPublisher)(nil)
	_ Client        = (mqtt.Client)(nil)
)
