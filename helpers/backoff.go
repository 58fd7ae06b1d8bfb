package helpers

import (
	"sync"
	"time"
)

// Limited exponential backoff for retry delays.
// K=1 with Min=Max gives a fixed delay.
// Failure() increases next delay by K, Reset() returns to Min.
type Backoff struct {
	mu       sync.Mutex
	next     time.Duration
	attempts int

	Min time.Duration
	Max time.Duration
	K   float32
	Res time.Duration // delay resolution for nice logs, default=1ms
}

// Use scenario:
//
//	for {
//	  err := op()
//	  time.Sleep(backoff.DelayAfter(err==nil))
//	}
func (b *Backoff) DelayAfter(success bool) time.Duration {
	if success {
		b.Reset()
		return 0
	}
	return b.Failure()
}

// Failure counts one more attempt and returns delay before the next one.
func (b *Backoff) Failure() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts++
	if b.next == 0 || b.attempts == 1 {
		b.next = b.limit(b.Min)
		return b.next
	}
	k := b.K
	if k < 1 {
		k = 1
	}
	b.next = b.limit(time.Duration(float32(b.next) * k))
	return b.next
}

func (b *Backoff) Reset() {
	b.mu.Lock()
	b.next = 0
	b.attempts = 0
	b.mu.Unlock()
}

// Attempts since last Reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

func (b *Backoff) limit(d time.Duration) time.Duration {
	if d < b.Min {
		d = b.Min
	}
	if b.Max != 0 && d > b.Max {
		d = b.Max
	}
	return b.round(d)
}

func (b *Backoff) round(d time.Duration) time.Duration {
	res := b.Res
	if res == 0 {
		res = 1 * time.Millisecond
	}
	return d / res * res
}
