package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestClientCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewClientCollector(reg)

	c.RecordSessionStart()
	c.RecordSessionStart()
	c.RecordSessionFailure("media_load_failed")
	c.RecordQualitySwitch()
	c.RecordStall()
	c.RecordIndicatorShow()
	c.RecordPollFailure()
	c.RecordUpload("success")
	c.RecordUpload("network_error")
	c.SetPlaybackProgress(12.5, 4096)

	if got := testutil.ToFloat64(c.sessionsStarted); got != 2 {
		t.Errorf("sessions started = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.sessionsFailed.WithLabelValues("media_load_failed")); got != 1 {
		t.Errorf("sessions failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.uploads.WithLabelValues("success")); got != 1 {
		t.Errorf("uploads{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.playbackPosition); got != 12.5 {
		t.Errorf("playback position = %v, want 12.5", got)
	}
	if got := testutil.ToFloat64(c.playbackBytes); got != 4096 {
		t.Errorf("playback bytes = %v, want 4096", got)
	}
}

func TestClientCollector_IsolatedRegistries(t *testing.T) {
	// Two collectors on separate registries must not collide.
	a := NewClientCollector(prometheus.NewRegistry())
	b := NewClientCollector(prometheus.NewRegistry())

	a.RecordSessionStart()

	if got := testutil.ToFloat64(b.sessionsStarted); got != 0 {
		t.Errorf("second collector sessions started = %v, want 0", got)
	}
}

func TestServerCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewServerCollector(reg)

	c.RecordRequest("/stream/:videoID", 200)
	c.RecordRequest("/stream/:videoID", 200)
	c.RecordRequest("/api/upload", 400)
	c.SetActiveStreams(3)
	c.AddBytesServed(1024)
	c.RecordUpload(2048)
	c.RecordTranscode("success")
	c.RecordTranscode("failure")
	c.ObserveTranscodeDuration(1.5)

	if got := testutil.ToFloat64(c.requests.WithLabelValues("/stream/:videoID", "200")); got != 2 {
		t.Errorf("requests{stream,200} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.activeStreams); got != 3 {
		t.Errorf("active streams = %v, want 3", got)
	}
	if got := testutil.ToFloat64(c.bytesServed); got != 1024 {
		t.Errorf("bytes served = %v, want 1024", got)
	}
	if got := testutil.ToFloat64(c.uploadBytes); got != 2048 {
		t.Errorf("upload bytes = %v, want 2048", got)
	}
	if got := testutil.ToFloat64(c.transcodes.WithLabelValues("failure")); got != 1 {
		t.Errorf("transcodes{failure} = %v, want 1", got)
	}
}
