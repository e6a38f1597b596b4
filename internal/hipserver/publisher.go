package hipserver

import (
	"sync"

	"github.com/nerrad567/beolink-bridge/internal/backend"
)

// publisher owns a session's backend subscriptions. Enumeration swaps
// the whole set atomically so repeat `q` commands never accumulate
// duplicates, and disconnect releases everything in one call.
type publisher struct {
	mu     sync.Mutex
	subs   []backend.Unsubscribe
	closed bool
}

// Replace tears down the current subscriptions and installs new ones.
// If the session already closed, the new subscriptions are released
// immediately.
func (p *publisher) Replace(subs []backend.Unsubscribe) {
	p.mu.Lock()
	old := p.subs
	if p.closed {
		p.subs = nil
	} else {
		p.subs = subs
	}
	closed := p.closed
	p.mu.Unlock()

	for _, unsub := range old {
		unsub()
	}
	if closed {
		for _, unsub := range subs {
			unsub()
		}
	}
}

// Close releases all subscriptions and rejects future Replace sets.
func (p *publisher) Close() {
	p.mu.Lock()
	old := p.subs
	p.subs = nil
	p.closed = true
	p.mu.Unlock()

	for _, unsub := range old {
		unsub()
	}
}
