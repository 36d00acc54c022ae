package media

import "time"

// tracker turns progress blocks into the media event vocabulary.
//
// The first block means the stream opened and decoding started: canplay,
// then playing. Every block emits progress. Speed sustained below the stall
// threshold emits waiting; recovery emits playing again. finish emits the
// terminal ended or error event exactly once.
type tracker struct {
	onEvent    func(Event)
	stallSpeed float64
	stallAfter time.Duration

	now func() time.Time

	started    bool
	waiting    bool
	belowSince time.Time
	done       bool
}

func newTracker(onEvent func(Event), stallSpeed float64, stallAfter time.Duration) *tracker {
	return &tracker{
		onEvent:    onEvent,
		stallSpeed: stallSpeed,
		stallAfter: stallAfter,
		now:        time.Now,
	}
}

func (t *tracker) handle(u progressUpdate) {
	if t.done {
		return
	}

	if !t.started {
		t.started = true
		t.emit(Event{Kind: EventCanPlay})
		t.emit(Event{Kind: EventPlaying})
	}

	t.emit(Event{
		Kind:     EventProgress,
		Position: u.position(),
		Bytes:    u.TotalSize,
		Speed:    u.Speed,
	})

	// Speed 0 means FFmpeg has not measured yet (startup), not a stall.
	if u.Speed > 0 && u.Speed < t.stallSpeed {
		if t.belowSince.IsZero() {
			t.belowSince = t.now()
		}
		if !t.waiting && t.now().Sub(t.belowSince) >= t.stallAfter {
			t.waiting = true
			t.emit(Event{Kind: EventWaiting})
		}
	} else {
		t.belowSince = time.Time{}
		if t.waiting {
			t.waiting = false
			t.emit(Event{Kind: EventPlaying})
		}
	}

	if u.End {
		t.finish(nil)
	}
}

// finish emits the terminal event. Later calls are no-ops, so a normal
// "progress=end" block followed by process exit reports ended only once.
func (t *tracker) finish(err error) {
	if t.done {
		return
	}
	t.done = true

	if err != nil {
		t.emit(Event{Kind: EventError, Err: err})
		return
	}
	t.emit(Event{Kind: EventEnded})
}

// startedOK reports whether any progress block arrived.
func (t *tracker) startedOK() bool {
	return t.started
}

func (t *tracker) emit(ev Event) {
	if t.onEvent != nil {
		t.onEvent(ev)
	}
}
