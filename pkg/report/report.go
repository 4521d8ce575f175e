package report

import (
	"time"

	"github.com/scpsigma/scpsigma-go/pkg/sigma"
	"github.com/scpsigma/scpsigma-go/pkg/transfer"
	"github.com/scpsigma/scpsigma-go/pkg/version"
)

// Default specification limits in Mbps.
const (
	DefaultUSL = 100.0
	DefaultLSL = 10.0
)

// Limits are the specification limits a report is evaluated against.
type Limits struct {
	USL         float64 `json:"usl" yaml:"usl"`
	LSL         float64 `json:"lsl" yaml:"lsl"`
	DefectBelow float64 `json:"defect_below" yaml:"defect_below"`
}

// DefaultLimits returns USL 100, LSL 10 and a defect threshold of 10 Mbps.
func DefaultLimits() Limits {
	return Limits{USL: DefaultUSL, LSL: DefaultLSL, DefectBelow: sigma.DefaultDefectBelow}
}

// withDefaults fills unset limits. The zero Limits means all defaults; a
// zero DefectBelow next to other limits is kept, so nothing is a defect.
func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l == (Limits{}) {
		return d
	}
	if l.USL == 0 && l.LSL == 0 {
		l.USL, l.LSL = d.USL, d.LSL
	}
	return l
}

// ThroughputStats summarises throughput as a process.
type ThroughputStats struct {
	Samples      int   `json:"samples" yaml:"samples"`
	Mean         Float `json:"mean" yaml:"mean"`
	StdDev       Float `json:"std_dev" yaml:"std_dev"`
	Cpk          Float `json:"cpk" yaml:"cpk"`
	Cp           Float `json:"cp" yaml:"cp"`
	SigmaLevel   Float `json:"sigma_level" yaml:"sigma_level"`
	Defects      int   `json:"defects" yaml:"defects"`
	UCL          Float `json:"ucl" yaml:"ucl"`
	LCL          Float `json:"lcl" yaml:"lcl"`
	OutOfControl []int `json:"out_of_control" yaml:"out_of_control"`
}

// TransferRecord is one transfer as it appears in a report.
type TransferRecord struct {
	Filename       string  `json:"filename" yaml:"filename"`
	RemotePath     string  `json:"remote_path,omitempty" yaml:"remote_path,omitempty"`
	SizeBytes      int64   `json:"size_bytes" yaml:"size_bytes"`
	DurationSec    float64 `json:"duration_sec" yaml:"duration_sec"`
	ThroughputMbps float64 `json:"throughput_mbps" yaml:"throughput_mbps"`
	SHA256         string  `json:"sha256_checksum" yaml:"sha256_checksum"`
	Timestamp      string  `json:"timestamp" yaml:"timestamp"`
	Attempts       int     `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Verified       bool    `json:"verified" yaml:"verified"`
}

// QualityReport is the Six Sigma report over a set of transfers.
type QualityReport struct {
	ThroughputStats ThroughputStats  `json:"throughput_stats" yaml:"throughput_stats"`
	Limits          Limits           `json:"limits" yaml:"limits"`
	TransferMetrics []TransferRecord `json:"transfer_metrics" yaml:"transfer_metrics"`
	GeneratedAt     string           `json:"generated_at" yaml:"generated_at"`
	Generator       string           `json:"generator" yaml:"generator"`
	FormatVersion   string           `json:"format_version" yaml:"format_version"`
}

// Generate builds a report for metrics. It returns nil when metrics is empty.
// Zero limits take the defaults.
func Generate(metrics []transfer.Metrics, limits Limits) *QualityReport {
	return generate(metrics, limits, time.Now())
}

func generate(metrics []transfer.Metrics, limits Limits, now time.Time) *QualityReport {
	if len(metrics) == 0 {
		return nil
	}
	limits = limits.withDefaults()

	a := sigma.NewAnalyzer(transfer.Throughputs(metrics))
	stats := ThroughputStats{
		Samples:      a.Len(),
		Mean:         Float(a.Mean()),
		StdDev:       Float(a.StdDev()),
		Cpk:          Float(a.Cpk(limits.USL, limits.LSL)),
		Cp:           Float(a.Cp(limits.USL, limits.LSL)),
		SigmaLevel:   Float(a.SigmaLevel(limits.DefectBelow)),
		Defects:      a.Defects(limits.DefectBelow),
		OutOfControl: a.OutOfControl(),
	}
	if cl, ok := a.ControlChart(); ok {
		stats.UCL = Float(cl.UpperControlLimit)
		stats.LCL = Float(cl.LowerControlLimit)
	} else {
		stats.UCL = Float(a.Mean())
		stats.LCL = Float(a.Mean())
	}
	if stats.OutOfControl == nil {
		stats.OutOfControl = []int{}
	}

	records := make([]TransferRecord, len(metrics))
	for i, m := range metrics {
		records[i] = TransferRecord{
			Filename:       m.Filename,
			RemotePath:     m.RemotePath,
			SizeBytes:      m.SizeBytes,
			DurationSec:    m.Duration.Seconds(),
			ThroughputMbps: m.ThroughputMbps,
			SHA256:         m.SHA256,
			Timestamp:      m.Timestamp.Format(transfer.TimestampLayout),
			Attempts:       m.Attempts,
			Verified:       m.Verified,
		}
	}

	return &QualityReport{
		ThroughputStats: stats,
		Limits:          limits,
		TransferMetrics: records,
		GeneratedAt:     now.Format(time.RFC3339),
		Generator:       version.Generator(),
		FormatVersion:   version.ReportFormat,
	}
}
