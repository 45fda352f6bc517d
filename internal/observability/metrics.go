package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricPhrasesInserted    = "pfp.dictionary.phrases.total"
	metricBytesParsed        = "pfp.parse.bytes.total"
	metricSamplesCompleted   = "pfp.parse.samples.total"
	metricSampleDuration     = "pfp.parse.sample.duration.seconds"
	metricAuPairBytesRemoved = "pfp.aupair.bytes_removed.total"
	metricErrorsTotal        = "pfp.errors.total"

	attrKind = "kind"
)

// sampleDurationBuckets covers a single contig's worth of work (sub-second)
// up to a whole-genome sample parse (tens of minutes).
var sampleDurationBuckets = []float64{0.1, 0.5, 1, 5, 15, 30, 60, 180, 600, 1800}

// PFPMetrics holds the OTel instruments emitted over the lifetime of a
// build run, modeled on the teacher's REDMetrics but re-scoped to the
// pangenome-construction domain instead of request/response RED metrics.
type PFPMetrics struct {
	phrasesInserted    metric.Int64Counter
	bytesParsed        metric.Int64Counter
	samplesCompleted   metric.Int64Counter
	sampleDuration     metric.Float64Histogram
	auPairBytesRemoved metric.Int64Counter
	errorsTotal        metric.Int64Counter
}

// NewPFPMetrics creates the domain instrument set from the given meter.
func NewPFPMetrics(mt metric.Meter) (*PFPMetrics, error) {
	b := newMetricBuilder(mt)

	m := &PFPMetrics{
		phrasesInserted:    b.counter(metricPhrasesInserted, "Distinct phrases inserted into the dictionary", "{phrase}"),
		bytesParsed:        b.counter(metricBytesParsed, "Bytes consumed by the segmenter", "By"),
		samplesCompleted:   b.counter(metricSamplesCompleted, "Samples fully parsed", "{sample}"),
		sampleDuration:     b.histogram(metricSampleDuration, "Wall time to parse one sample", "s", sampleDurationBuckets...),
		auPairBytesRemoved: b.counter(metricAuPairBytesRemoved, "Bytes removed by the AuPair contractor", "By"),
		errorsTotal:        b.counter(metricErrorsTotal, "Recoverable and fatal errors by kind", "{error}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return m, nil
}

// RecordPhraseInserted increments the dictionary insertion counter.
func (m *PFPMetrics) RecordPhraseInserted(ctx context.Context) {
	m.phrasesInserted.Add(ctx, 1)
}

// RecordBytesParsed adds n to the bytes-consumed counter.
func (m *PFPMetrics) RecordBytesParsed(ctx context.Context, n int64) {
	m.bytesParsed.Add(ctx, n)
}

// RecordSampleCompleted records one sample's completion and its parse
// duration.
func (m *PFPMetrics) RecordSampleCompleted(ctx context.Context, duration time.Duration) {
	m.samplesCompleted.Add(ctx, 1)
	m.sampleDuration.Record(ctx, duration.Seconds())
}

// RecordAuPairBytesRemoved adds n to the AuPair bytes-removed counter.
func (m *PFPMetrics) RecordAuPairBytesRemoved(ctx context.Context, n int64) {
	m.auPairBytesRemoved.Add(ctx, n)
}

// RecordError increments the error counter for the given kind (spec §7's
// error-kind taxonomy, named as ErrorKind.String names it: "decode",
// "schema_mismatch", "unsupported_variant", "invariant", "io_failure").
func (m *PFPMetrics) RecordError(ctx context.Context, kind string) {
	m.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrKind, kind)))
}
