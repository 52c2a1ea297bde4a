package statefulcontent

import (
	"context"
	"sync"
)

// RequestGuard tracks the in-flight request of each logical request key
// (typically a slug). Beginning a request for a key cancels the previous one
// and invalidates its ticket, so late completions can be recognised and
// dropped.
type RequestGuard struct {
	mu         sync.Mutex
	generation uint64
	inflight   map[string]*Ticket
}

// NewRequestGuard returns an empty guard.
func NewRequestGuard() *RequestGuard {
	return &RequestGuard{inflight: make(map[string]*Ticket)}
}

// Ticket identifies one request issued through a RequestGuard.
type Ticket struct {
	guard      *RequestGuard
	key        string
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
}

// Begin starts a request for key, superseding any request in flight for it.
func (g *RequestGuard) Begin(ctx context.Context, key string) *Ticket {
	ctx, cancel := context.WithCancel(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if prev, ok := g.inflight[key]; ok {
		prev.cancel()
	}
	g.generation++
	t := &Ticket{guard: g, key: key, generation: g.generation, ctx: ctx, cancel: cancel}
	g.inflight[key] = t
	return t
}

// Cancel aborts the in-flight request for key, if any.
func (g *RequestGuard) Cancel(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.inflight[key]; ok {
		t.cancel()
		delete(g.inflight, key)
	}
}

// CancelAll aborts every in-flight request.
func (g *RequestGuard) CancelAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, t := range g.inflight {
		t.cancel()
		delete(g.inflight, key)
	}
}

// InFlight reports whether a request for key is outstanding.
func (g *RequestGuard) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.inflight[key]
	return ok
}

// Context is cancelled when the ticket is superseded or done.
func (t *Ticket) Context() context.Context { return t.ctx }

// Generation returns the ticket's generation number.
func (t *Ticket) Generation() uint64 { return t.generation }

// Current reports whether the ticket is still the latest for its key.
func (t *Ticket) Current() bool {
	t.guard.mu.Lock()
	defer t.guard.mu.Unlock()
	cur, ok := t.guard.inflight[t.key]
	return ok && cur.generation == t.generation
}

// Done releases the ticket. It is safe to call more than once and on
// superseded tickets.
func (t *Ticket) Done() {
	t.cancel()
	t.guard.mu.Lock()
	defer t.guard.mu.Unlock()
	if cur, ok := t.guard.inflight[t.key]; ok && cur.generation == t.generation {
		delete(t.guard.inflight, t.key)
	}
}
