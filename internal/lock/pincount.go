// Package lock provides the pin-count primitive a buffer pool frame uses to
// track how many callers currently hold a page: PinPage increments,
// UnpinPage decrements, and a frame at zero is evictable.
package lock

import (
	"fmt"
	"sync/atomic"
)

// PinCount is a frame's fix count: the number of outstanding PinPage calls
// against it that have not yet been matched by UnpinPage.
type PinCount struct {
	count int32
}

// Inc records one more pin.
func (p *PinCount) Inc() int32 {
	return atomic.AddInt32(&p.count, 1)
}

// Dec records one fewer pin. It is a no-op, not a panic, when already at
// zero, so that unpinning an already-unpinned or unknown page stays
// idempotent.
func (p *PinCount) Dec() int32 {
	for {
		cur := atomic.LoadInt32(&p.count)
		if cur <= 0 {
			return 0
		}
		if atomic.CompareAndSwapInt32(&p.count, cur, cur-1) {
			return cur - 1
		}
	}
}

// Get returns the current fix count.
func (p *PinCount) Get() int32 {
	return atomic.LoadInt32(&p.count)
}

// IsZero reports whether the frame is currently unpinned.
func (p *PinCount) IsZero() bool {
	return p.Get() == 0
}

func (p *PinCount) String() string {
	return fmt.Sprintf("PinCount: %d", p.Get())
}
