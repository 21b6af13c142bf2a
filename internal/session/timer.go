package session

import (
	"sync"
	"time"
)

// timer is the exam countdown. It runs on its own goroutine, reports the
// remaining time through onTick at a fixed interval, and fires onExpire
// exactly once when the deadline passes, after which it stops ticking.
//
// Stop is idempotent and prevents further callbacks from being dispatched; a
// callback already in flight may still complete, which is why the controller
// identity-checks the session on every timer event.
type timer struct {
	stop     chan struct{}
	stopOnce sync.Once
}

func newTimer(duration, interval time.Duration, onTick func(remaining time.Duration), onExpire func()) *timer {
	t := &timer{stop: make(chan struct{})}
	go t.run(duration, interval, onTick, onExpire)
	return t
}

func (t *timer) run(duration, interval time.Duration, onTick func(time.Duration), onExpire func()) {
	deadline := time.Now().Add(duration)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case now := <-ticker.C:
			// Re-check so a Stop racing a ready tick wins.
			select {
			case <-t.stop:
				return
			default:
			}

			remaining := deadline.Sub(now)
			if remaining <= 0 {
				if onTick != nil {
					onTick(0)
				}
				if onExpire != nil {
					onExpire()
				}
				return
			}
			if onTick != nil {
				onTick(remaining)
			}
		}
	}
}

func (t *timer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}
