package ytdlp

import "ytfetch/internal/domain"

// Throttle is an optional policy filter over the parser's raw event stream:
// progress events pass only when the percentage advanced by at least MinDelta
// since the last forwarded one. Terminal and status events always pass, as
// does 100%. A zero MinDelta disables filtering.
type Throttle struct {
	MinDelta float64
	last     float64
	seen     bool
}

// Allow reports whether ev should be forwarded downstream.
func (t *Throttle) Allow(ev domain.Event) bool {
	if t.MinDelta <= 0 || ev.Kind != domain.EventProgress {
		return true
	}
	if !t.seen || ev.Progress >= 100 || ev.Progress-t.last >= t.MinDelta {
		t.seen = true
		t.last = ev.Progress
		return true
	}
	return false
}
