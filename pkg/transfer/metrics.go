package transfer

import (
	"context"
	"time"
)

// TimestampLayout is the metrics timestamp format used in reports.
const TimestampLayout = "2006-01-02 15:04:05"

// Metrics describes one successful transfer.
type Metrics struct {
	TransferID     string        `json:"transfer_id" yaml:"transfer_id"`
	Filename       string        `json:"filename" yaml:"filename"`
	RemotePath     string        `json:"remote_path" yaml:"remote_path"`
	Host           string        `json:"host,omitempty" yaml:"host,omitempty"`
	SizeBytes      int64         `json:"size_bytes" yaml:"size_bytes"`
	Duration       time.Duration `json:"duration" yaml:"duration"`
	ThroughputMbps float64       `json:"throughput_mbps" yaml:"throughput_mbps"`
	SHA256         string        `json:"sha256_checksum" yaml:"sha256_checksum"`
	Timestamp      time.Time     `json:"timestamp" yaml:"timestamp"`
	Attempts       int           `json:"attempts" yaml:"attempts"`
	Verified       bool          `json:"verified" yaml:"verified"`
}

// ThroughputMbps returns size*8 / (seconds*1e6). A non-positive duration
// yields 0.
func ThroughputMbps(size int64, d time.Duration) float64 {
	secs := d.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(size) * 8 / (secs * 1_000_000)
}

// Throughputs extracts the throughput series from metrics.
func Throughputs(metrics []Metrics) []float64 {
	out := make([]float64, len(metrics))
	for i, m := range metrics {
		out[i] = m.ThroughputMbps
	}
	return out
}

// Sink receives the metrics of each successful transfer. Sinks are called
// synchronously after the transfer; a failing sink does not fail the transfer.
type Sink interface {
	Record(ctx context.Context, m Metrics) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, m Metrics) error

// Record calls f.
func (f SinkFunc) Record(ctx context.Context, m Metrics) error {
	return f(ctx, m)
}
