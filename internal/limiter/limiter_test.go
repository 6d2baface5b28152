package limiter

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests advance time manually.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func testLimiter(max int, window time.Duration) (*Limiter, *fakeClock) {
	clock := newFakeClock()
	l := New(max, window, nil)
	l.now = clock.now
	return l, clock
}

func mustAcquire(t *testing.T, l *Limiter, tag string) *Ticket {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ticket, err := l.Acquire(ctx, tag)
	if err != nil {
		t.Fatalf("Acquire(%s): %v", tag, err)
	}
	return ticket
}

// ─── Window bound ─────────────────────────────────────────────────────────────

func TestAcquireWithinLimit(t *testing.T) {
	l, _ := testLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		mustAcquire(t, l, "test")
	}
	if got := l.Snapshot().InUse; got != 3 {
		t.Errorf("InUse: expected 3, got %d", got)
	}
}

func TestAcquireBlocksAtLimit(t *testing.T) {
	l, _ := testLimiter(1, time.Minute)
	mustAcquire(t, l, "first")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "second"); err == nil {
		t.Fatal("second acquire should block until the window frees a slot")
	}
}

func TestWindowExpiryFreesSlots(t *testing.T) {
	l, clock := testLimiter(2, time.Minute)
	mustAcquire(t, l, "a")
	mustAcquire(t, l, "b")

	// A stamp exactly window old no longer counts.
	clock.advance(time.Minute)
	mustAcquire(t, l, "c")
	if got := l.Snapshot().InUse; got != 1 {
		t.Errorf("after expiry: expected 1 in use, got %d", got)
	}
}

func TestIdleWindowReset(t *testing.T) {
	l, clock := testLimiter(2, time.Minute)
	mustAcquire(t, l, "a")
	mustAcquire(t, l, "b")

	clock.advance(10 * time.Minute)
	if got := l.Snapshot().InUse; got != 0 {
		t.Errorf("idle limiter should report an empty window, got %d", got)
	}
}

// ─── FIFO admission ───────────────────────────────────────────────────────────

func TestFIFOAdmissionOrder(t *testing.T) {
	// Real clock: window expiry drives head timer wakeups.
	l := New(1, 40*time.Millisecond, nil)
	mustAcquire(t, l, "seed")

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Stagger entry so queue order is deterministic.
			time.Sleep(time.Duration(i) * 10 * time.Millisecond)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			ticket, err := l.Acquire(ctx, "queued")
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			ticket.Observe(200)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("queued acquire failed: %v", err)
	}

	for i, got := range order {
		if got != i {
			t.Fatalf("admission order: expected %d at position %d, got %v", i, i, order)
		}
	}
}

func TestCancelledWaiterReleasesQueue(t *testing.T) {
	l := New(1, 40*time.Millisecond, nil)
	mustAcquire(t, l, "seed")

	// First waiter cancels quickly; second must still be admitted.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := l.Acquire(ctx, "cancelled")
		done <- err
	}()

	time.Sleep(2 * time.Millisecond)
	second := make(chan error, 1)
	go func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
		defer cancel2()
		_, err := l.Acquire(ctx2, "survivor")
		second <- err
	}()

	if err := <-done; err == nil {
		t.Fatal("first waiter should have been cancelled")
	}
	if err := <-second; err != nil {
		t.Fatalf("second waiter should be admitted after cancellation: %v", err)
	}
}

// ─── Penalty ──────────────────────────────────────────────────────────────────

func TestPenaltyEscalation(t *testing.T) {
	l, _ := testLimiter(10, time.Minute)
	ticket := mustAcquire(t, l, "t")

	ticket.Observe(429)
	if got := l.PenaltyMS(); got != 500 {
		t.Errorf("first 429: expected 500ms, got %d", got)
	}
	ticket.Observe(429)
	if got := l.PenaltyMS(); got != 1000 {
		t.Errorf("second 429: expected 1000ms, got %d", got)
	}
	ticket.Observe(429)
	if got := l.PenaltyMS(); got != 2000 {
		t.Errorf("third 429: expected 2000ms, got %d", got)
	}
}

func TestPenaltyCap(t *testing.T) {
	l, _ := testLimiter(10, time.Minute)
	ticket := mustAcquire(t, l, "t")
	for i := 0; i < 12; i++ {
		ticket.Observe(429)
	}
	if got := l.PenaltyMS(); got != 30000 {
		t.Errorf("penalty cap: expected 30000ms, got %d", got)
	}
}

func TestPenaltyResetOnSuccess(t *testing.T) {
	l, _ := testLimiter(10, time.Minute)
	ticket := mustAcquire(t, l, "t")
	ticket.Observe(429)
	ticket.Observe(429)
	ticket.Observe(200)
	if got := l.PenaltyMS(); got != 0 {
		t.Errorf("success should clear the penalty, got %dms", got)
	}
	// Next 429 starts over at the base.
	ticket.Observe(429)
	if got := l.PenaltyMS(); got != 500 {
		t.Errorf("post-reset 429: expected 500ms, got %d", got)
	}
}

func TestPenaltyBlocksAdmission(t *testing.T) {
	l, clock := testLimiter(10, time.Minute)
	ticket := mustAcquire(t, l, "t")
	ticket.Observe(429)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "blocked"); err == nil {
		t.Fatal("acquire during a penalty window should block")
	}

	clock.advance(time.Second)
	mustAcquire(t, l, "after-penalty")
}

func TestSnapshotLast429(t *testing.T) {
	l, _ := testLimiter(5, time.Minute)
	if l.Snapshot().Last429At != nil {
		t.Error("fresh limiter should have no last_429_at")
	}
	ticket := mustAcquire(t, l, "t")
	ticket.Observe(429)
	snap := l.Snapshot()
	if snap.Last429At == nil {
		t.Fatal("last_429_at should be set after a 429")
	}
	if snap.ActivePenaltyMS != 500 {
		t.Errorf("snapshot penalty: expected 500, got %d", snap.ActivePenaltyMS)
	}
	if snap.WindowSeconds != 60 || snap.MaxRequests != 5 {
		t.Errorf("snapshot shape wrong: %+v", snap)
	}
}
