package audio

import (
	"sync"
	"time"
)

// Scheduler starts repeating timers. The returned stop function is idempotent;
// after it returns, tick is not called again by this timer.
type Scheduler interface {
	Repeat(interval time.Duration, tick func()) (stop func())
}

// ClockScheduler runs timers on wall-clock tickers, one goroutine per timer.
type ClockScheduler struct{}

func (ClockScheduler) Repeat(interval time.Duration, tick func()) func() {
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				tick()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
