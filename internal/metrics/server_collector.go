package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// ServerCollector holds backend daemon metrics.
type ServerCollector struct {
	requests          *prometheus.CounterVec
	activeStreams     prometheus.Gauge
	bytesServed       prometheus.Counter
	uploads           prometheus.Counter
	uploadBytes       prometheus.Counter
	transcodes        *prometheus.CounterVec
	transcodeDuration prometheus.Histogram
}

// NewServerCollector creates the backend metrics and registers them on reg.
func NewServerCollector(reg prometheus.Registerer) *ServerCollector {
	c := &ServerCollector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clipstream_http_requests_total",
			Help: "HTTP requests, by handler and status code",
		}, []string{"handler", "code"}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clipstream_active_streams",
			Help: "Streams currently being served",
		}),
		bytesServed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipstream_stream_bytes_served_total",
			Help: "Bytes written to stream responses",
		}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipstream_uploads_total",
			Help: "Videos accepted through the upload endpoint",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clipstream_upload_bytes_total",
			Help: "Bytes accepted through the upload endpoint",
		}),
		transcodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clipstream_transcodes_total",
			Help: "Rendition transcode jobs, by outcome",
		}, []string{"outcome"}),
		transcodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "clipstream_transcode_duration_seconds",
			Help:    "Wall time per successful transcode job",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}

	reg.MustRegister(
		c.requests,
		c.activeStreams,
		c.bytesServed,
		c.uploads,
		c.uploadBytes,
		c.transcodes,
		c.transcodeDuration,
	)
	return c
}

// RecordRequest counts one handled HTTP request.
func (c *ServerCollector) RecordRequest(handler string, status int) {
	c.requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
}

// SetActiveStreams updates the active stream gauge.
func (c *ServerCollector) SetActiveStreams(n int) {
	c.activeStreams.Set(float64(n))
}

// AddBytesServed counts bytes written to a stream response.
func (c *ServerCollector) AddBytesServed(n int64) {
	c.bytesServed.Add(float64(n))
}

// RecordUpload counts an accepted upload.
func (c *ServerCollector) RecordUpload(bytes int64) {
	c.uploads.Inc()
	c.uploadBytes.Add(float64(bytes))
}

// RecordTranscode counts a transcode job outcome.
func (c *ServerCollector) RecordTranscode(outcome string) {
	c.transcodes.WithLabelValues(outcome).Inc()
}

// ObserveTranscodeDuration records the wall time of a successful job.
func (c *ServerCollector) ObserveTranscodeDuration(seconds float64) {
	c.transcodeDuration.Observe(seconds)
}
