package otel

import (
	"context"
	"errors"
	"fmt"

	goShield "github.com/MrEthical07/goShield"
	"github.com/MrEthical07/goShield/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goShield.MetricsSnapshot
	AuditDropped() uint64
}

// counterBinding ties one snapshot counter to its observable instrument.
type counterBinding struct {
	metricID goShield.MetricID
	counter  metric.Int64ObservableCounter
}

// histogramBinding exposes one latency histogram as eight cumulative bucket
// gauges plus a total sample count gauge.
type histogramBinding struct {
	metricID goShield.MetricID
	bounds   [8]metric.Int64ObservableGauge
	total    metric.Int64ObservableGauge
}

type OTelExporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []counterBinding
	histograms   []histogramBinding
	auditDropped metric.Int64ObservableCounter
}

func NewOTelExporter(meter metric.Meter, engine *goShield.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{source: source}

	var observables []metric.Observable
	track := func(ins metric.Observable) { observables = append(observables, ins) }

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, counterBinding{metricID: def.ID, counter: ins})
		track(ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		binding, err := bindHistogram(meter, def, track)
		if err != nil {
			return nil, err
		}
		exporter.histograms = append(exporter.histograms, binding)
	}

	dropped, err := meter.Int64ObservableCounter(
		"goshield_audit_dropped_total",
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = dropped
	track(dropped)

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	exporter.registration = registration

	return exporter, nil
}

// bindHistogram creates the bucket and count gauges for one histogram
// definition and hands each instrument to the callback's observable set.
func bindHistogram(meter metric.Meter, def internaldefs.HistogramDef, track func(metric.Observable)) (histogramBinding, error) {
	binding := histogramBinding{metricID: def.ID}

	for i, suffix := range internaldefs.HistogramBoundSuffix {
		name := def.Name + "_bucket_le_" + suffix
		gauge, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
		if err != nil {
			return histogramBinding{}, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
		}
		binding.bounds[i] = gauge
		track(gauge)
	}

	total, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Histogram total sample count."))
	if err != nil {
		return histogramBinding{}, fmt.Errorf("create histogram count gauge %s_count: %w", def.Name, err)
	}
	binding.total = total
	track(total)

	return binding, nil
}

// observe feeds the current snapshot to every registered instrument.
func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for _, c := range e.counters {
		observer.ObserveInt64(c.counter, int64(snapshot.Counters[c.metricID]))
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.metricID]))
		for i, v := range cumulative {
			observer.ObserveInt64(h.bounds[i], int64(v))
		}
		observer.ObserveInt64(h.total, int64(cumulative[len(cumulative)-1]))
	}
	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))

	return nil
}

func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
