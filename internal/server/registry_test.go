package server

import (
	"testing"
	"time"
)

func TestRegistryActiveCounts(t *testing.T) {
	r := NewRegistry(nil)

	a := r.Open("demo")
	b := r.Open("demo")
	c := r.Open("other")

	if got := r.ActiveCount(); got != 3 {
		t.Errorf("ActiveCount = %d, want 3", got)
	}
	active, _, _ := r.Stats("demo")
	if active != 2 {
		t.Errorf("demo active = %d, want 2", active)
	}

	a.Close()
	b.Close()
	c.Close()

	if got := r.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount after close = %d, want 0", got)
	}
}

func TestRegistryAverageBitrate(t *testing.T) {
	r := NewRegistry(nil)

	base := time.Now()
	r.now = func() time.Time { return base }

	h := r.Open("demo")
	h.Add(1_000_000)

	// 4 seconds later: 8 * 1e6 bytes / 4s = 2,000,000 bit/s.
	r.now = func() time.Time { return base.Add(4 * time.Second) }

	active, totalBytes, avg := r.Stats("demo")
	if active != 1 {
		t.Errorf("active = %d, want 1", active)
	}
	if totalBytes != 1_000_000 {
		t.Errorf("totalBytes = %d, want 1000000", totalBytes)
	}
	if avg != 2_000_000 {
		t.Errorf("averageBitrate = %v, want 2000000", avg)
	}
}

func TestRegistryTotalsSurviveClose(t *testing.T) {
	r := NewRegistry(nil)

	h := r.Open("demo")
	h.Add(4096)
	h.Close()

	active, totalBytes, avg := r.Stats("demo")
	if active != 0 {
		t.Errorf("active = %d, want 0", active)
	}
	if totalBytes != 4096 {
		t.Errorf("totalBytes = %d, want 4096 (closed stream bytes retained)", totalBytes)
	}
	if avg != 0 {
		t.Errorf("averageBitrate = %v, want 0 with no open streams", avg)
	}
}

func TestStreamHandleCloseIsIdempotent(t *testing.T) {
	r := NewRegistry(nil)

	h := r.Open("demo")
	h.Add(100)
	h.Close()
	h.Close()

	_, totalBytes, _ := r.Stats("demo")
	if totalBytes != 100 {
		t.Errorf("totalBytes = %d, want 100 (double close must not double count)", totalBytes)
	}
}
