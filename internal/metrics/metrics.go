// Package metrics exposes burst processing statistics to Prometheus.
package metrics

import (
	"math"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwbudde/algo-cfest/measure/cfest"
)

const namespace = "cfestimate"

// Collector holds the cfestimate metrics on a private registry. It
// implements burst.Observer.
type Collector struct {
	registry *prometheus.Registry

	processed *prometheus.CounterVec // by method
	dropped   *prometheus.CounterVec // by reason
	snr       prometheus.Histogram
	bandwidth prometheus.Histogram
	offset    prometheus.Histogram // |residual offset|
}

// New registers the collectors. cachedSizes, if non-nil, backs the
// fft_sizes_cached gauge.
func New(cachedSizes func() int) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		processed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bursts_processed_total",
			Help:      "Bursts analyzed and emitted, by estimation method.",
		}, []string{"method"}),
		dropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bursts_dropped_total",
			Help:      "Bursts rejected as malformed, by reason.",
		}, []string{"reason"}),
		snr: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snr_db",
			Help:      "Estimated burst SNR in dB.",
			Buckets:   prometheus.LinearBuckets(-10, 10, 12),
		}),
		bandwidth: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bandwidth_hz",
			Help:      "Estimated RMS burst bandwidth in Hz.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 10),
		}),
		offset: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "correction_offset_hz",
			Help:      "Absolute frequency correction applied per burst in Hz.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
	}

	if cachedSizes != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fft_sizes_cached",
			Help:      "FFT sizes with a cached plan and window.",
		}, func() float64 { return float64(cachedSizes()) })
	}

	for _, m := range cfest.Methods() {
		c.processed.WithLabelValues(m.String())
	}

	return c
}

// BurstProcessed records an emitted burst.
func (c *Collector) BurstProcessed(res cfest.Result) {
	c.processed.WithLabelValues(res.Method.String()).Inc()
	c.snr.Observe(res.SNRDB)
	c.bandwidth.Observe(res.Bandwidth)
	c.offset.Observe(math.Abs(res.Offset))
}

// BurstDropped records a rejected burst.
func (c *Collector) BurstDropped(reason string) {
	c.dropped.WithLabelValues(reason).Inc()
}

// Registry returns the registry holding the collectors.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// HTTPHandler serves the registry in the Prometheus exposition format.
func (c *Collector) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
