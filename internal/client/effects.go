package client

import (
	"sync"
	"time"
)

// Durations of the transient visual cues.
const (
	pulseDuration     = 2 * time.Second
	highlightDuration = 3 * time.Second
)

// effects schedules transient visual cues. Each element key carries a
// token; starting a new effect bumps the token so the removal timer
// of a superseded effect does nothing, and the cue stays up for the
// full duration of the latest trigger.
type effects struct {
	mu     sync.Mutex
	tokens map[string]uint64
	after  func(time.Duration, func())
}

func newEffects() *effects {
	return &effects{
		tokens: make(map[string]uint64),
		after:  func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// start turns the cue on and schedules it back off after d, unless a
// newer effect on the same key has taken over by then.
func (e *effects) start(key string, d time.Duration, set func(bool)) {
	e.mu.Lock()
	e.tokens[key]++
	token := e.tokens[key]
	e.mu.Unlock()

	set(true)
	e.after(d, func() {
		e.mu.Lock()
		current := e.tokens[key]
		e.mu.Unlock()
		if current == token {
			set(false)
		}
	})
}
