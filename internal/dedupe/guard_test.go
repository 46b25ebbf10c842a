// ABOUTME: Tests for the in-flight guard used to reject duplicate submits
// ABOUTME: Validates acquire/release, TTL expiry, size bound, sweeping and concurrency

package dedupe

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuard_AcquireRelease(t *testing.T) {
	g := New(5*time.Minute, 100)
	defer g.Close()

	ticket, ok := g.TryAcquire("dev-1/sign-in")
	assert.True(t, ok)
	assert.True(t, g.Held("dev-1/sign-in"))

	// Second acquire while held is rejected
	_, ok = g.TryAcquire("dev-1/sign-in")
	assert.False(t, ok)

	g.Release("dev-1/sign-in", ticket)
	assert.False(t, g.Held("dev-1/sign-in"))
	_, ok = g.TryAcquire("dev-1/sign-in")
	assert.True(t, ok)
}

func TestGuard_LateReleaseKeepsNewerHold(t *testing.T) {
	g := New(10*time.Millisecond, 100)
	defer g.Close()

	first, ok := g.TryAcquire("dev-1/sign-in")
	assert.True(t, ok)
	time.Sleep(20 * time.Millisecond)

	// The first holder overran the TTL; a second submit takes the key.
	second, ok := g.TryAcquire("dev-1/sign-in")
	assert.True(t, ok)
	assert.NotEqual(t, first, second)

	// The first holder finishes and releases with its stale ticket.
	g.Release("dev-1/sign-in", first)

	_, ok = g.TryAcquire("dev-1/sign-in")
	assert.False(t, ok, "a third submit must not run alongside the second")

	g.Release("dev-1/sign-in", second)
	assert.Equal(t, 0, g.Len())
}

func TestGuard_KeysAreIndependent(t *testing.T) {
	g := New(5*time.Minute, 100)
	defer g.Close()

	for _, key := range []string{Key("dev-1", "sign-in"), Key("dev-2", "sign-in"), Key("dev-1", "update-profile")} {
		_, ok := g.TryAcquire(key)
		assert.True(t, ok, key)
	}
	assert.Equal(t, 3, g.Len())
}

func TestGuard_ReleaseUnknownKey(t *testing.T) {
	g := New(5*time.Minute, 100)
	defer g.Close()

	g.Release("never-held", 1)
	assert.Equal(t, 0, g.Len())
}

func TestGuard_Expiry(t *testing.T) {
	g := New(10*time.Millisecond, 100)
	defer g.Close()

	_, ok := g.TryAcquire("leaked")
	assert.True(t, ok)
	time.Sleep(20 * time.Millisecond)

	// An abandoned hold does not block forever
	assert.False(t, g.Held("leaked"))
	_, ok = g.TryAcquire("leaked")
	assert.True(t, ok)
}

func TestGuard_DropsOldestWhenFull(t *testing.T) {
	g := New(5*time.Minute, 3)
	defer g.Close()

	g.TryAcquire("first")
	g.TryAcquire("second")
	g.TryAcquire("third")
	g.TryAcquire("fourth")

	assert.False(t, g.Held("first"), "oldest hold should be dropped")
	assert.True(t, g.Held("second"))
	assert.True(t, g.Held("third"))
	assert.True(t, g.Held("fourth"))
	assert.Equal(t, 3, g.Len())
}

func TestGuard_Sweep(t *testing.T) {
	g := New(10*time.Millisecond, 100)
	defer g.Close()

	g.TryAcquire("a")
	g.TryAcquire("b")
	time.Sleep(20 * time.Millisecond)

	g.sweep()
	assert.Equal(t, 0, g.Len(), "sweep should remove expired holds")
	assert.Equal(t, 0, g.order.Len())
}

func TestGuard_TryAcquire_Atomic(t *testing.T) {
	g := New(5*time.Minute, 100)
	defer g.Close()

	const numGoroutines = 100
	var winners atomic.Int32
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			if _, ok := g.TryAcquire("contested"); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load(), "exactly one goroutine should acquire")
}

func TestGuard_Close(t *testing.T) {
	g := New(5*time.Minute, 100)
	g.Close()
	g.Close()
}
