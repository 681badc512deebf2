package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	goShield "github.com/MrEthical07/goShield"
	"github.com/MrEthical07/goShield/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() goShield.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter renders goShield metrics in Prometheus text exposition format.
//
//	Docs: docs/metrics.md
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates a Prometheus exporter that reads from the given [goShield.Engine].
//
//	Docs: docs/metrics.md
func NewPrometheusExporter(engine *goShield.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource creates a Prometheus exporter from any
// source exposing the engine's snapshot surface.
//
//	Docs: docs/metrics.md
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler returns an http.Handler serving the rendered exposition.
//
//	Docs: docs/metrics.md
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render produces the current metrics in Prometheus text exposition format.
//
//	Docs: docs/metrics.md
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var page exposition
	page.Grow(8192)

	for _, def := range internaldefs.CounterDefs {
		page.counter(def.Name, def.Help, snapshot.Counters[def.ID])
	}
	for _, def := range internaldefs.HistogramDefs {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
		page.histogram(def.Name, def.Help, cumulative)
	}
	page.counter("goshield_audit_dropped_total", "Dropped audit events due to dispatcher backpressure.", dropped)

	return page.String()
}

// exposition accumulates text format output one metric family at a time.
type exposition struct {
	strings.Builder
}

// header emits the HELP and TYPE lines opening a family.
func (x *exposition) header(name, kind, help string) {
	x.WriteString("# HELP ")
	x.WriteString(name)
	x.WriteByte(' ')
	x.WriteString(escapeHelp(help))
	x.WriteString("\n# TYPE ")
	x.WriteString(name)
	x.WriteByte(' ')
	x.WriteString(kind)
	x.WriteByte('\n')
}

// sample emits one unlabeled sample line.
func (x *exposition) sample(name string, value uint64) {
	x.WriteString(name)
	x.WriteByte(' ')
	x.WriteString(strconv.FormatUint(value, 10))
	x.WriteByte('\n')
}

func (x *exposition) counter(name, help string, value uint64) {
	x.header(name, "counter", help)
	x.sample(name, value)
}

func (x *exposition) histogram(name, help string, cumulative [8]uint64) {
	x.header(name, "histogram", help)

	for i, le := range internaldefs.HistogramBounds {
		x.WriteString(name)
		x.WriteString(`_bucket{le="`)
		x.WriteString(le)
		x.WriteString(`"} `)
		x.WriteString(strconv.FormatUint(cumulative[i], 10))
		x.WriteByte('\n')
	}

	x.sample(name+"_count", cumulative[len(cumulative)-1])

	// Core snapshots track bucket counts only; the sum stays pinned at zero
	// so the family remains well formed for scrapers.
	x.sample(name+"_sum", 0)
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
