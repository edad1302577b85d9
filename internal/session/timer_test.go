package session

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCountdownExpiresOnce(t *testing.T) {
	var expires int32
	done := make(chan struct{})

	StartCountdown(1, func(int) {}, func() {
		atomic.AddInt32(&expires, 1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("countdown never expired")
	}

	// Give a stray second expiry a chance to fire before asserting.
	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt32(&expires); n != 1 {
		t.Errorf("onExpire fired %d times, want 1", n)
	}
}

func TestCountdownStopPreventsExpiry(t *testing.T) {
	var expires int32

	h := StartCountdown(1, func(int) {}, func() {
		atomic.AddInt32(&expires, 1)
	})
	h.Stop()

	time.Sleep(1500 * time.Millisecond)
	if n := atomic.LoadInt32(&expires); n != 0 {
		t.Errorf("onExpire fired %d times after Stop, want 0", n)
	}
}

func TestCountdownStopIsIdempotent(t *testing.T) {
	h := StartCountdown(5, func(int) {}, func() {})
	h.Stop()
	h.Stop() // must not panic
}

func TestCountdownTicksDown(t *testing.T) {
	ticks := make(chan int, 4)
	h := StartCountdown(3, func(remaining int) { ticks <- remaining }, func() {})
	defer h.Stop()

	select {
	case got := <-ticks:
		if got != 2 {
			t.Errorf("first tick = %d, want 2", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no tick observed")
	}
}
