// ABOUTME: Thread-safe in-flight guard keyed by device and operation
// ABOUTME: Rejects a second submit while the first is still talking to the bank API

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// Ticket identifies one acquisition of a key. Release only ends the hold
// that the ticket was issued for.
type Ticket uint64

// hold records when a key was acquired and its position in acquisition order.
type hold struct {
	ticket   Ticket
	acquired time.Time
	element  *list.Element
}

// Guard tracks which keys are currently held. A hold ends when Release is
// called or, if the holder never releases, once it is older than the TTL.
// The number of concurrent holds is bounded; when full, the oldest hold is
// dropped to make room.
type Guard struct {
	mu      sync.Mutex
	held    map[string]*hold
	order   *list.List // keys, oldest acquisition at front
	ttl     time.Duration
	maxSize int
	next    Ticket
	done    chan struct{}
	closed  bool
}

// New creates a guard. A background goroutine sweeps expired holds.
func New(ttl time.Duration, maxSize int) *Guard {
	g := &Guard{
		held:    make(map[string]*hold),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go g.sweepLoop()
	return g
}

// Key joins a device ID and an operation name into a guard key.
func Key(deviceID, op string) string {
	return deviceID + "/" + op
}

// TryAcquire takes the key if nobody holds it and returns the ticket to pass
// to Release. ok is false when the key is already held. Check and take happen
// under one lock.
func (g *Guard) TryAcquire(key string) (t Ticket, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if h, held := g.held[key]; held {
		if time.Since(h.acquired) < g.ttl {
			return 0, false
		}
		g.removeLocked(key, h)
	}

	if len(g.held) >= g.maxSize {
		g.dropOldestLocked()
	}

	g.next++
	elem := g.order.PushBack(key)
	g.held[key] = &hold{ticket: g.next, acquired: time.Now(), element: elem}
	return g.next, true
}

// Release ends the hold on key if it is still the one t was issued for.
// A holder that outlived the TTL cannot release a later holder's hold.
// Releasing a key that is not held is a no-op.
func (g *Guard) Release(key string, t Ticket) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if h, ok := g.held[key]; ok && h.ticket == t {
		g.removeLocked(key, h)
	}
}

// Held reports whether key is currently held and not expired.
func (g *Guard) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	h, ok := g.held[key]
	return ok && time.Since(h.acquired) < g.ttl
}

// Len returns the number of tracked holds, including expired ones not yet swept.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.held)
}

func (g *Guard) removeLocked(key string, h *hold) {
	g.order.Remove(h.element)
	delete(g.held, key)
}

// dropOldestLocked removes the earliest hold. O(1) via the order list.
func (g *Guard) dropOldestLocked() {
	front := g.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	g.order.Remove(front)
	delete(g.held, key)
}

func (g *Guard) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.sweep()
		case <-g.done:
			return
		}
	}
}

// sweep drops holds older than the TTL.
func (g *Guard) sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for key, h := range g.held {
		if now.Sub(h.acquired) >= g.ttl {
			g.removeLocked(key, h)
		}
	}
}

// Close stops the sweeper. Safe to call more than once.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.closed {
		close(g.done)
		g.closed = true
	}
}
