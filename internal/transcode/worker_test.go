package transcode

import (
	"strings"
	"testing"
	"time"

	"github.com/clipstream/clipstream/internal/api"
)

func TestProfileFor(t *testing.T) {
	for _, q := range []api.Quality{api.QualityLow, api.QualityMedium, api.QualityHigh} {
		p, ok := ProfileFor(q)
		if !ok {
			t.Errorf("ProfileFor(%s) not found", q)
			continue
		}
		if p.Quality != q {
			t.Errorf("ProfileFor(%s).Quality = %s", q, p.Quality)
		}
	}

	// auto streams the original and must never have a rendition profile
	if _, ok := ProfileFor(api.QualityAuto); ok {
		t.Error("ProfileFor(auto) returned a profile")
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath("/videos", "demo", api.QualityHigh)
	if !strings.HasSuffix(got, "demo_high.mp4") {
		t.Errorf("OutputPath = %q, want suffix demo_high.mp4", got)
	}
}

func TestBuildArgs(t *testing.T) {
	p, _ := ProfileFor(api.QualityMedium)
	args := strings.Join(buildArgs("/in/demo.mp4", "/out/demo_medium.mp4", p), " ")

	for _, want := range []string{
		"-i /in/demo.mp4",
		"scale=1280:720",
		"-b:v 2500k",
		"-c:v libx264",
		"/out/demo_medium.mp4",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("args missing %q: %s", want, args)
		}
	}
}

func TestEnqueueQueueFull(t *testing.T) {
	w := NewWorker(Config{QueueSize: 1})
	p, _ := ProfileFor(api.QualityLow)
	job := Job{VideoID: "demo", SourcePath: "/in/demo.mp4", Profile: p}

	if !w.Enqueue(job) {
		t.Fatal("first enqueue failed")
	}
	if w.Enqueue(job) {
		t.Error("second enqueue succeeded on a full queue")
	}
}

func TestEnqueueAllQueuesEveryProfile(t *testing.T) {
	w := NewWorker(Config{QueueSize: 8})
	if got, want := w.EnqueueAll("demo", "/in/demo.mp4"), len(Profiles()); got != want {
		t.Errorf("EnqueueAll queued %d, want %d", got, want)
	}
}

func TestBackoffGrowthAndCap(t *testing.T) {
	cfg := BackoffConfig{
		Initial:    100 * time.Millisecond,
		Max:        time.Second,
		Multiplier: 2.0,
		JitterPct:  0, // deterministic
	}
	b := newBackoff(1, cfg)

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for i, w := range want {
		if got := b.next(); got != w {
			t.Errorf("attempt %d: delay = %v, want %v", i, got, w)
		}
	}

	b.reset()
	if got := b.calculate(); got != 100*time.Millisecond {
		t.Errorf("after reset: delay = %v, want 100ms", got)
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	cfg := DefaultBackoffConfig()
	b := newBackoff(42, cfg)

	for i := 0; i < 50; i++ {
		d := b.next()
		if d < 0 {
			t.Fatalf("negative delay %v", d)
		}
		// Max plus half the jitter range is the ceiling.
		ceiling := time.Duration(float64(cfg.Max) * (1 + cfg.JitterPct/2))
		if d > ceiling {
			t.Fatalf("delay %v above ceiling %v", d, ceiling)
		}
	}
}
