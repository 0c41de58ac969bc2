// Package metrics exports coherence state as Prometheus gauges.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RyanBlaney/sonido-coherence/pipeline"
)

const namespace = "coherence"

// Collector holds the gauges of one processor on its own registry
type Collector struct {
	registry *prometheus.Registry

	ticks           prometheus.Counter
	rrSamples       prometheus.Gauge
	rrCleaned       prometheus.Gauge
	sdnn            prometheus.Gauge
	rmssd           prometheus.Gauge
	meanHR          prometheus.Gauge
	lfPower         prometheus.Gauge
	hfPower         prometheus.Gauge
	lfhf            prometheus.Gauge
	respRate        prometheus.Gauge
	respQuality     prometheus.Gauge
	respValid       prometheus.Gauge
	score           prometheus.Gauge
	sync            prometheus.Gauge
	estimatorRate   *prometheus.GaugeVec
	estimatorActive *prometheus.GaugeVec
}

func gauge(name, help string, labels prometheus.Labels) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        name,
		Help:        help,
		ConstLabels: labels,
	})
}

// NewCollector registers the coherence metrics, labelled with processorID,
// plus the Go runtime and process collectors.
func NewCollector(processorID string) *Collector {
	labels := prometheus.Labels{"processor_id": processorID}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "ticks_total",
			Help:        "Number of computed states",
			ConstLabels: labels,
		}),
		rrSamples:   gauge("rr_samples", "RR intervals held in the window", labels),
		rrCleaned:   gauge("rr_cleaned_samples", "RR intervals left after artifact cleaning", labels),
		sdnn:        gauge("sdnn_ms", "Standard deviation of RR intervals", labels),
		rmssd:       gauge("rmssd_ms", "Root mean square of successive RR differences", labels),
		meanHR:      gauge("heart_rate_bpm", "Mean heart rate over the window", labels),
		lfPower:     gauge("lf_power", "Power in the 0.04-0.15 Hz band (s^2)", labels),
		hfPower:     gauge("hf_power", "Power in the 0.15-0.40 Hz band (s^2)", labels),
		lfhf:        gauge("lf_hf_ratio", "LF/HF power ratio", labels),
		respRate:    gauge("respiration_rate_cpm", "Stabilized breathing rate", labels),
		respQuality: gauge("respiration_quality", "Fused respiration quality in [0, 1]", labels),
		respValid:   gauge("respiration_valid", "1 when a breathing rate is available", labels),
		score:       gauge("score", "Smoothed coherence score in [0, 100]", labels),
		sync:        gauge("sync_percent", "Heart-respiration synchronisation", labels),
		estimatorRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "estimator_rate_cpm",
			Help:        "Breathing rate reported by each estimator",
			ConstLabels: labels,
		}, []string{"method"}),
		estimatorActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "estimator_valid",
			Help:        "1 when the estimator produced a rate this tick",
			ConstLabels: labels,
		}, []string{"method"}),
	}

	c.registry.MustRegister(
		c.ticks, c.rrSamples, c.rrCleaned, c.sdnn, c.rmssd, c.meanHR,
		c.lfPower, c.hfPower, c.lfhf, c.respRate, c.respQuality, c.respValid,
		c.score, c.sync, c.estimatorRate, c.estimatorActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry holding the metrics
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Observe records one state. It can be used directly as a
// pipeline.StateHandler.
func (c *Collector) Observe(st *pipeline.ProcessorState) {
	if st == nil {
		return
	}

	c.ticks.Inc()
	c.rrSamples.Set(float64(len(st.RR)))
	c.rrCleaned.Set(float64(st.Cleaned))
	c.sdnn.Set(st.SDNN)
	c.rmssd.Set(st.RMSSD)
	c.meanHR.Set(st.MeanHR)
	c.lfPower.Set(st.Spectral.LF)
	c.hfPower.Set(st.Spectral.HF)
	c.lfhf.Set(st.Spectral.Ratio)
	c.respRate.Set(st.Respiration.RateCPM)
	c.respQuality.Set(st.Respiration.Quality)
	c.respValid.Set(boolGauge(st.Respiration.Valid))
	c.score.Set(st.Score)
	c.sync.Set(st.Sync)

	for _, e := range st.Candidates {
		c.estimatorRate.WithLabelValues(e.Method).Set(e.RateCPM)
		c.estimatorActive.WithLabelValues(e.Method).Set(boolGauge(e.Valid))
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
