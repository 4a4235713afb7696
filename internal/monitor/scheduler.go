package monitor

import (
	"sync"
	"time"
)

// Scheduler invokes fn every interval until the returned cancel is called.
// Calls to fn never overlap. cancel must not block and may be called from
// inside fn.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// TickerScheduler runs fn on its own goroutine driven by a time.Ticker.
// Ticks that arrive while fn is still running are dropped.
type TickerScheduler struct{}

// Every implements Scheduler.
func (TickerScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	stopCh := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				// a tick and a cancel can be ready together; cancel wins
				select {
				case <-stopCh:
					return
				default:
				}
				fn()
			}
		}
	}()

	return func() { once.Do(func() { close(stopCh) }) }
}
