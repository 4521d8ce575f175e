// Package telemetry instruments transfers with OpenTelemetry traces and
// metrics.
//
// Instruments are created from the global otel providers on first use.
// Without an SDK installed by the embedding program they are no-ops.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/scpsigma/scpsigma-go"

// Attribute keys.
var (
	AttrHost  = attribute.Key("scpsigma.host")
	AttrLocal = attribute.Key("scpsigma.local_path")
	AttrStage = attribute.Key("scpsigma.stage")
)

var (
	meter  metric.Meter
	tracer trace.Tracer

	TransfersSucceeded metric.Int64Counter
	TransfersFailed    metric.Int64Counter
	TransferAttempts   metric.Int64Counter
	BytesTransferred   metric.Int64Counter
	TransferDuration   metric.Float64Histogram
	TransferThroughput metric.Float64Histogram

	once    sync.Once
	initErr error
)

// Init creates the instruments. It is safe to call more than once; later
// calls return the first result.
func Init() error {
	once.Do(func() {
		meter = otel.Meter(instrumentationName)
		tracer = otel.Tracer(instrumentationName)
		initErr = initializeMetrics()
	})
	return initErr
}

func initializeMetrics() error {
	var err error

	TransfersSucceeded, err = meter.Int64Counter(
		"scpsigma.transfers.succeeded",
		metric.WithDescription("Number of verified transfers"),
		metric.WithUnit("{transfer}"),
	)
	if err != nil {
		return err
	}

	TransfersFailed, err = meter.Int64Counter(
		"scpsigma.transfers.failed_attempts",
		metric.WithDescription("Number of failed transfer attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return err
	}

	TransferAttempts, err = meter.Int64Counter(
		"scpsigma.transfers.attempts",
		metric.WithDescription("Number of transfer attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return err
	}

	BytesTransferred, err = meter.Int64Counter(
		"scpsigma.transfers.bytes",
		metric.WithDescription("Bytes uploaded by successful transfers"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return err
	}

	TransferDuration, err = meter.Float64Histogram(
		"scpsigma.transfers.duration",
		metric.WithDescription("Transfer duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000),
	)
	if err != nil {
		return err
	}

	TransferThroughput, err = meter.Float64Histogram(
		"scpsigma.transfers.throughput",
		metric.WithDescription("Transfer throughput"),
		metric.WithUnit("Mbit/s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000),
	)
	return err
}

// ready initializes lazily and reports whether instruments are usable.
func ready() bool {
	return Init() == nil
}

// StartTransfer starts a span covering all attempts of one transfer.
func StartTransfer(ctx context.Context, host, local string) (context.Context, trace.Span) {
	if !ready() {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, "transfer.secure_transfer",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(AttrHost.String(host), AttrLocal.String(local)),
	)
}

// EndTransfer sets the span status from err. The caller still ends the span.
func EndTransfer(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// RecordAttempt counts one attempt.
func RecordAttempt(ctx context.Context, host string) {
	if !ready() {
		return
	}
	TransferAttempts.Add(ctx, 1, metric.WithAttributes(AttrHost.String(host)))
}

// RecordFailure counts one failed attempt.
func RecordFailure(ctx context.Context, host, stage string) {
	if !ready() {
		return
	}
	TransfersFailed.Add(ctx, 1, metric.WithAttributes(AttrHost.String(host), AttrStage.String(stage)))
	trace.SpanFromContext(ctx).AddEvent("attempt failed", trace.WithAttributes(AttrStage.String(stage)))
}

// RecordSuccess records a completed transfer.
func RecordSuccess(ctx context.Context, host string, size int64, d time.Duration, mbps float64) {
	if !ready() {
		return
	}
	attrs := metric.WithAttributes(AttrHost.String(host))
	TransfersSucceeded.Add(ctx, 1, attrs)
	BytesTransferred.Add(ctx, size, attrs)
	TransferDuration.Record(ctx, float64(d)/float64(time.Millisecond), attrs)
	TransferThroughput.Record(ctx, mbps, attrs)
}
