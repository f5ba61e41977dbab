package service

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultTrackedClients bounds how many clients the tracker remembers.
const DefaultTrackedClients = 10_000

// NavigationTracker issues monotonically increasing tickets per client so that
// only the latest navigation of a client may act on its outcome.
type NavigationTracker struct {
	mu     sync.Mutex
	seq    uint64
	latest *lru.Cache[string, uint64]
}

// NewNavigationTracker returns a tracker remembering up to size clients.
func NewNavigationTracker(size int) *NavigationTracker {
	if size <= 0 {
		size = DefaultTrackedClients
	}
	cache, err := lru.New[string, uint64](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &NavigationTracker{latest: cache}
}

// Begin registers a navigation for client and returns its ticket.
// An empty client is untracked and always current.
func (t *NavigationTracker) Begin(client string) uint64 {
	if client == "" {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.latest.Add(client, t.seq)
	return t.seq
}

// IsCurrent reports whether ticket is still the latest navigation of client.
// A client evicted from the tracker is treated as current.
func (t *NavigationTracker) IsCurrent(client string, ticket uint64) bool {
	if client == "" {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	latest, ok := t.latest.Peek(client)
	return !ok || latest == ticket
}

// Len returns the number of tracked clients.
func (t *NavigationTracker) Len() int {
	return t.latest.Len()
}
