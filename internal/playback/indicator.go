package playback

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultDebounce is the delay between a stall and the indicator showing.
// Stalls shorter than this never flash the indicator.
const DefaultDebounce = 500 * time.Millisecond

// IndicatorState is the loading indicator's position in its state machine.
type IndicatorState int

const (
	// IndicatorIdle: hidden, no show pending.
	IndicatorIdle IndicatorState = iota

	// IndicatorPending: a stall was reported and the show timer is running.
	IndicatorPending

	// IndicatorShown: the indicator is visible.
	IndicatorShown
)

// String returns the state name.
func (s IndicatorState) String() string {
	switch s {
	case IndicatorIdle:
		return "idle"
	case IndicatorPending:
		return "pending"
	case IndicatorShown:
		return "shown"
	default:
		return "unknown"
	}
}

// timerFunc schedules fn after d and returns a cancel function. The default
// uses time.AfterFunc; tests substitute a manual trigger.
type timerFunc func(d time.Duration, fn func()) (cancel func())

func afterFuncTimer(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// IndicatorConfig holds loading indicator settings.
type IndicatorConfig struct {
	// Delay debounces the show. Zero or negative uses DefaultDebounce.
	Delay time.Duration

	// OnShow and OnHide drive the display. Either may be nil. They are
	// invoked with the indicator lock held and must not call back into
	// the indicator.
	OnShow func()
	OnHide func()

	Logger *slog.Logger
}

// Indicator is the three-state debounced loading indicator.
//
// Waiting arms a show timer; playing or canplay within the delay cancels it
// so short stalls never flash the indicator. Each arm carries a generation
// number, so a timer from a superseded arm fires as a no-op.
type Indicator struct {
	delay  time.Duration
	onShow func()
	onHide func()
	logger *slog.Logger

	newTimer timerFunc

	mu     sync.Mutex
	state  IndicatorState
	gen    uint64
	cancel func()
}

// NewIndicator creates a loading indicator in the idle state.
func NewIndicator(cfg IndicatorConfig) *Indicator {
	delay := cfg.Delay
	if delay <= 0 {
		delay = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Indicator{
		delay:    delay,
		onShow:   cfg.OnShow,
		onHide:   cfg.OnHide,
		logger:   logger,
		newTimer: afterFuncTimer,
	}
}

// Waiting reports a buffering stall. From idle it arms the show timer;
// in any other state it is a no-op.
func (i *Indicator) Waiting() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state != IndicatorIdle {
		return
	}

	i.state = IndicatorPending
	i.gen++
	gen := i.gen
	i.cancel = i.newTimer(i.delay, func() { i.fire(gen) })

	i.logger.Debug("indicator_pending", "delay", i.delay)
}

// fire is the timer callback. A generation mismatch means the arm was
// superseded and the callback does nothing.
func (i *Indicator) fire(gen uint64) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.gen != gen || i.state != IndicatorPending {
		return
	}

	i.state = IndicatorShown
	i.logger.Debug("indicator_shown")
	if i.onShow != nil {
		i.onShow()
	}
}

// Playing reports that playback resumed. Cancels a pending show and hides
// a shown indicator.
func (i *Indicator) Playing() {
	i.settle(false)
}

// CanPlay reports that the element is ready. Same transition as Playing.
func (i *Indicator) CanPlay() {
	i.settle(false)
}

// Teardown resets the indicator for session teardown. The hide callback
// runs unconditionally so the display never outlives the session.
func (i *Indicator) Teardown() {
	i.settle(true)
}

func (i *Indicator) settle(forceHide bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.gen++
	if i.cancel != nil {
		i.cancel()
		i.cancel = nil
	}

	wasShown := i.state == IndicatorShown
	i.state = IndicatorIdle

	if (wasShown || forceHide) && i.onHide != nil {
		i.onHide()
	}
	if wasShown {
		i.logger.Debug("indicator_hidden")
	}
}

// State returns the current indicator state.
func (i *Indicator) State() IndicatorState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}
