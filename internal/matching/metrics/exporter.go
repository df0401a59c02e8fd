package metrics

import "github.com/prometheus/client_golang/prometheus"

// Exporter adapts a Record to prometheus.Collector, following the
// teacher's pattern of hand-written Collect implementations over
// long-lived atomic state rather than prometheus's own counter/gauge
// types, so the hot path never touches the client library.
type Exporter struct {
	rec *Record

	ordersReceived  *prometheus.Desc
	ordersProcessed *prometheus.Desc
	ordersRejected  *prometheus.Desc
	tradesExecuted  *prometheus.Desc
	journalDropped  *prometheus.Desc
	queueDepth      *prometheus.Desc
	queueDepthHigh  *prometheus.Desc
	latencyMin      *prometheus.Desc
	latencyMax      *prometheus.Desc
	latencyP50      *prometheus.Desc
	latencyP99      *prometheus.Desc
	latencyP999     *prometheus.Desc
}

// NewExporter builds a Collector for rec, ready to register against a
// prometheus.Registry.
func NewExporter(rec *Record) *Exporter {
	ns := "matchcore"
	return &Exporter{
		rec:             rec,
		ordersReceived:  prometheus.NewDesc(ns+"_orders_received_total", "Commands accepted onto the queue.", nil, nil),
		ordersProcessed: prometheus.NewDesc(ns+"_orders_processed_total", "Commands processed by the matcher.", nil, nil),
		ordersRejected:  prometheus.NewDesc(ns+"_orders_rejected_total", "Commands rejected by the risk gate.", nil, nil),
		tradesExecuted:  prometheus.NewDesc(ns+"_trades_executed_total", "Trades produced by matching.", nil, nil),
		journalDropped:  prometheus.NewDesc(ns+"_journal_dropped_total", "Journal entries dropped under backpressure.", nil, nil),
		queueDepth:      prometheus.NewDesc(ns+"_queue_depth", "Current command queue depth.", nil, nil),
		queueDepthHigh:  prometheus.NewDesc(ns+"_queue_depth_high_water", "High-water mark of the command queue depth.", nil, nil),
		latencyMin:      prometheus.NewDesc(ns+"_latency_min_ns", "Minimum observed end-to-end command latency.", nil, nil),
		latencyMax:      prometheus.NewDesc(ns+"_latency_max_ns", "Maximum observed end-to-end command latency.", nil, nil),
		latencyP50:      prometheus.NewDesc(ns+"_latency_p50_ns", "50th percentile end-to-end command latency.", nil, nil),
		latencyP99:      prometheus.NewDesc(ns+"_latency_p99_ns", "99th percentile end-to-end command latency.", nil, nil),
		latencyP999:     prometheus.NewDesc(ns+"_latency_p999_ns", "99.9th percentile end-to-end command latency.", nil, nil),
	}
}

func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.ordersReceived
	ch <- e.ordersProcessed
	ch <- e.ordersRejected
	ch <- e.tradesExecuted
	ch <- e.journalDropped
	ch <- e.queueDepth
	ch <- e.queueDepthHigh
	ch <- e.latencyMin
	ch <- e.latencyMax
	ch <- e.latencyP50
	ch <- e.latencyP99
	ch <- e.latencyP999
}

func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	s := e.rec.Snapshot()
	ch <- prometheus.MustNewConstMetric(e.ordersReceived, prometheus.CounterValue, float64(s.OrdersReceived))
	ch <- prometheus.MustNewConstMetric(e.ordersProcessed, prometheus.CounterValue, float64(s.OrdersProcessed))
	ch <- prometheus.MustNewConstMetric(e.ordersRejected, prometheus.CounterValue, float64(s.OrdersRejected))
	ch <- prometheus.MustNewConstMetric(e.tradesExecuted, prometheus.CounterValue, float64(s.TradesExecuted))
	ch <- prometheus.MustNewConstMetric(e.journalDropped, prometheus.CounterValue, float64(s.JournalDropped))
	ch <- prometheus.MustNewConstMetric(e.queueDepth, prometheus.GaugeValue, float64(s.QueueDepth))
	ch <- prometheus.MustNewConstMetric(e.queueDepthHigh, prometheus.GaugeValue, float64(s.QueueDepthHigh))
	ch <- prometheus.MustNewConstMetric(e.latencyMin, prometheus.GaugeValue, float64(s.MinLatencyNs))
	ch <- prometheus.MustNewConstMetric(e.latencyMax, prometheus.GaugeValue, float64(s.MaxLatencyNs))
	ch <- prometheus.MustNewConstMetric(e.latencyP50, prometheus.GaugeValue, float64(s.P50Ns))
	ch <- prometheus.MustNewConstMetric(e.latencyP99, prometheus.GaugeValue, float64(s.P99Ns))
	ch <- prometheus.MustNewConstMetric(e.latencyP999, prometheus.GaugeValue, float64(s.P999Ns))
}
