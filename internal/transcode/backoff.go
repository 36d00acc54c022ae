package transcode

import (
	"math"
	"math/rand"
	"time"
)

// BackoffConfig holds the configuration for exponential retry backoff.
type BackoffConfig struct {
	Initial    time.Duration // Initial delay (default: 250ms)
	Max        time.Duration // Maximum delay (default: 5s)
	Multiplier float64       // Multiplier per attempt (default: 1.7)
	JitterPct  float64       // Jitter as a fraction of delay (default: 0.4 = ±20%)
}

// DefaultBackoffConfig returns sensible defaults for transcode retries.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    250 * time.Millisecond,
		Max:        5 * time.Second,
		Multiplier: 1.7,
		JitterPct:  0.4,
	}
}

// backoff calculates exponential retry delays with jitter. Each job gets
// its own instance, seeded for deterministic jitter.
type backoff struct {
	config   BackoffConfig
	attempts int
	rng      *rand.Rand
}

func newBackoff(seed int64, cfg BackoffConfig) *backoff {
	return &backoff{
		config: cfg,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// next returns the next delay and increments the attempt counter.
func (b *backoff) next() time.Duration {
	delay := b.calculate()
	b.attempts++
	return delay
}

// calculate returns the current delay without incrementing attempts.
func (b *backoff) calculate() time.Duration {
	delay := float64(b.config.Initial) * math.Pow(b.config.Multiplier, float64(b.attempts))

	if delay > float64(b.config.Max) {
		delay = float64(b.config.Max)
	}

	// ±(JitterPct/2) of the delay.
	if b.config.JitterPct > 0 {
		jitterRange := delay * b.config.JitterPct
		delay += jitterRange*b.rng.Float64() - jitterRange/2
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// reset clears the attempt counter.
func (b *backoff) reset() {
	b.attempts = 0
}
