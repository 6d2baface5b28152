// Package limiter implements the shared FRED request limiter: a rolling
// window of admission timestamps with FIFO waiters and an exponential 429
// penalty. There is one global window for the whole process; namespace tags
// exist for observability only, never as separate buckets.
package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/derickschaefer/fredmcp/internal/telemetry"
)

const (
	// basePenalty is the first 429 penalty; it doubles on each consecutive
	// 429 up to maxPenalty and resets to zero after a successful observation.
	basePenalty = 500 * time.Millisecond
	maxPenalty  = 30 * time.Second

	// minWait floors timer waits so a head waiter never spins.
	minWait = time.Millisecond
)

// Limiter admits at most max requests per rolling window.
type Limiter struct {
	mu sync.Mutex

	window time.Duration
	max    int

	stamps []time.Time // admission times, ascending
	queue  []*waiter   // FIFO; only the head may admit

	penalty        time.Duration
	penaltyUntil   time.Time
	consecutive429 int
	last429        time.Time

	tel *telemetry.Registry
	now func() time.Time
}

type waiter struct {
	wake chan struct{} // buffered(1); nudged when this waiter becomes head
}

// Ticket represents exactly one permitted request. The caller must report the
// outcome via Observe so the penalty state stays current.
type Ticket struct {
	l   *Limiter
	Tag string
}

// Snapshot is the serializable limiter state.
type Snapshot struct {
	WindowSeconds   int     `json:"window_seconds"`
	MaxRequests     int     `json:"max_requests"`
	InUse           int     `json:"in_use"`
	ActivePenaltyMS int64   `json:"active_penalty_ms"`
	Last429At       *string `json:"last_429_at"`
}

// New creates a Limiter admitting max requests per window. tel may be nil.
func New(max int, window time.Duration, tel *telemetry.Registry) *Limiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		window: window,
		max:    max,
		tel:    tel,
		now:    time.Now,
	}
}

// Acquire blocks until a token is available or ctx is cancelled. Admission is
// FIFO among waiters; a cancelled waiter releases its place before any other
// waiter is notified.
func (l *Limiter) Acquire(ctx context.Context, tag string) (*Ticket, error) {
	l.mu.Lock()
	l.prune(l.now())

	// Fast path: no queue and a free slot.
	if len(l.queue) == 0 && l.admissible() {
		l.stamps = append(l.stamps, l.now())
		l.mu.Unlock()
		return &Ticket{l: l, Tag: tag}, nil
	}

	if l.tel != nil {
		l.tel.RateLimitBlocked()
	}
	w := &waiter{wake: make(chan struct{}, 1)}
	l.queue = append(l.queue, w)

	for {
		now := l.now()
		l.prune(now)

		if l.queue[0] == w && l.admissible() {
			l.stamps = append(l.stamps, now)
			l.queue = l.queue[1:]
			l.wakeHead()
			l.mu.Unlock()
			return &Ticket{l: l, Tag: tag}, nil
		}

		isHead := l.queue[0] == w
		wait := l.nextFreeIn(now)
		l.mu.Unlock()

		if isHead {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				l.drop(w)
				return nil, ctx.Err()
			case <-timer.C:
			case <-w.wake:
				timer.Stop()
			}
		} else {
			select {
			case <-ctx.Done():
				l.drop(w)
				return nil, ctx.Err()
			case <-w.wake:
			}
		}
		l.mu.Lock()
	}
}

// Observe reports the HTTP outcome of the request this ticket admitted.
// A 429 escalates the shared penalty; a 2xx clears it.
func (t *Ticket) Observe(status int) {
	l := t.l
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case status == 429:
		l.consecutive429++
		p := basePenalty << (l.consecutive429 - 1)
		if p > maxPenalty || p <= 0 {
			p = maxPenalty
		}
		now := l.now()
		l.penalty = p
		l.penaltyUntil = now.Add(p)
		l.last429 = now
		if l.tel != nil {
			l.tel.SetPenalty(p.Milliseconds())
		}
	case status >= 200 && status < 300:
		l.consecutive429 = 0
		l.penalty = 0
		l.penaltyUntil = time.Time{}
		if l.tel != nil {
			l.tel.SetPenalty(0)
		}
	}
}

// PenaltyMS returns the active penalty in milliseconds. Callers use it for
// RATE_LIMITED retry_after_ms hints.
func (l *Limiter) PenaltyMS() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.penalty.Milliseconds()
}

// Snapshot reports the current limiter state without mutating it beyond
// pruning expired stamps.
func (l *Limiter) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	s := Snapshot{
		WindowSeconds:   int(l.window / time.Second),
		MaxRequests:     l.max,
		InUse:           len(l.stamps),
		ActivePenaltyMS: l.penalty.Milliseconds(),
	}
	if !l.last429.IsZero() {
		v := l.last429.UTC().Format(time.RFC3339)
		s.Last429At = &v
	}
	return s
}

// ─── Internals (l.mu held unless noted) ───────────────────────────────────────

// prune drops stamps that have aged out of the window. A stamp exactly
// window old no longer counts.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}

func (l *Limiter) admissible() bool {
	return len(l.stamps) < l.max && !l.now().Before(l.penaltyUntil)
}

// nextFreeIn computes how long the head waiter should sleep before the next
// admissibility check: until the oldest stamp ages out, or the penalty
// expires, whichever is later.
func (l *Limiter) nextFreeIn(now time.Time) time.Duration {
	var wait time.Duration
	if len(l.stamps) >= l.max {
		wait = l.stamps[0].Add(l.window).Sub(now)
	}
	if p := l.penaltyUntil.Sub(now); p > wait {
		wait = p
	}
	if wait < minWait {
		wait = minWait
	}
	return wait
}

// wakeHead nudges the current head waiter, if any.
func (l *Limiter) wakeHead() {
	if len(l.queue) == 0 {
		return
	}
	select {
	case l.queue[0].wake <- struct{}{}:
	default:
	}
}

// drop removes a cancelled waiter from the queue (locks internally).
func (l *Limiter) drop(w *waiter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, q := range l.queue {
		if q == w {
			wasHead := i == 0
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			if wasHead {
				l.wakeHead()
			}
			return
		}
	}
}
