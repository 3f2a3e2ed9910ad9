package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pedidos/internal/aggregate"
)

type Registry struct {
	reg *prometheus.Registry

	ParsePasses       prometheus.Counter
	ParseLines        prometheus.Counter
	ParseItems        prometheus.Counter
	InvalidLines      prometheus.Counter
	UnknownLines      prometheus.Counter
	AssumedLines      prometheus.Counter
	UnitMismatches    prometheus.Counter
	ParseLatencySec   prometheus.Histogram
	Dispatched        *prometheus.CounterVec
	DispatchFailed    prometheus.Counter
	IngestMessages    prometheus.Counter
	CatalogSize       prometheus.Gauge
	DraftItemsByStore *prometheus.GaugeVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	passes := prometheus.NewCounter(prometheus.CounterOpts{Name: "pedidos_parse_passes_total"})
	lines := prometheus.NewCounter(prometheus.CounterOpts{Name: "pedidos_parse_lines_total"})
	items := prometheus.NewCounter(prometheus.CounterOpts{Name: "pedidos_parse_items_total"})
	invalid := prometheus.NewCounter(prometheus.CounterOpts{Name: "pedidos_parse_invalid_lines_total"})
	unknown := prometheus.NewCounter(prometheus.CounterOpts{Name: "pedidos_parse_unknown_lines_total"})
	assumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "pedidos_parse_assumed_lines_total"})
	mismatch := prometheus.NewCounter(prometheus.CounterOpts{Name: "pedidos_parse_unit_mismatch_total"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pedidos_parse_latency_seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	})
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "pedidos_dispatch_total"}, []string{"kind"})
	dispatchFailed := prometheus.NewCounter(prometheus.CounterOpts{Name: "pedidos_dispatch_failed_total"})
	ingest := prometheus.NewCounter(prometheus.CounterOpts{Name: "pedidos_ingest_messages_total"})
	catalog := prometheus.NewGauge(prometheus.GaugeOpts{Name: "pedidos_catalog_products"})
	draftItems := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "pedidos_draft_items"}, []string{"loja"})

	r.MustRegister(passes, lines, items, invalid, unknown, assumed, mismatch, latency,
		dispatched, dispatchFailed, ingest, catalog, draftItems)
	return &Registry{
		reg:               r,
		ParsePasses:       passes,
		ParseLines:        lines,
		ParseItems:        items,
		InvalidLines:      invalid,
		UnknownLines:      unknown,
		AssumedLines:      assumed,
		UnitMismatches:    mismatch,
		ParseLatencySec:   latency,
		Dispatched:        dispatched,
		DispatchFailed:    dispatchFailed,
		IngestMessages:    ingest,
		CatalogSize:       catalog,
		DraftItemsByStore: draftItems,
	}
}

// ObserveParse records one parse pass over lineCount input lines.
func (r *Registry) ObserveParse(res aggregate.Result, lineCount int, elapsed time.Duration) {
	r.ParsePasses.Inc()
	r.ParseLines.Add(float64(lineCount))
	r.ParseItems.Add(float64(len(res.Items)))
	r.InvalidLines.Add(float64(len(res.InvalidLines)))
	r.UnknownLines.Add(float64(len(res.UnknownProductLines)))
	r.AssumedLines.Add(float64(len(res.AssumedQuantityLines)))
	r.UnitMismatches.Add(float64(len(res.UnitMismatchLines)))
	r.ParseLatencySec.Observe(elapsed.Seconds())
}

func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
