package session

import (
	"sync"
	"time"
)

// Handle is an owned countdown handle. The owning session is responsible
// for calling Stop on every exit path; Stop is idempotent.
type Handle interface {
	Stop()
}

// TimerFactory creates a ticking countdown. onTick receives the remaining
// seconds after each one-second tick; onExpire fires exactly once when the
// countdown reaches zero. Injectable so tests can drive expiry directly.
type TimerFactory func(seconds int, onTick func(remaining int), onExpire func()) Handle

// StartCountdown is the production TimerFactory, backed by a time.Ticker.
func StartCountdown(seconds int, onTick func(remaining int), onExpire func()) Handle {
	c := &countdown{stop: make(chan struct{})}
	go c.run(seconds, onTick, onExpire)
	return c
}

type countdown struct {
	stop chan struct{}
	once sync.Once
}

func (c *countdown) run(seconds int, onTick func(int), onExpire func()) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	remaining := seconds
	for remaining > 0 {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			remaining--
			onTick(remaining)
		}
	}

	// A Stop racing the final tick must still win: the expiry callback
	// re-checks session state under the session mutex before acting.
	select {
	case <-c.stop:
	default:
		onExpire()
	}
}

// Stop cancels the countdown. Safe to call more than once.
func (c *countdown) Stop() {
	c.once.Do(func() { close(c.stop) })
}
