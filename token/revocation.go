package token

import (
	"sync"
	"time"
)

// Denylist holds the jti of access tokens logged out before they expired.
// An entry only needs to outlive its token: once exp has passed, Verify
// rejects the token on its own and the entry can be pruned.
type Denylist interface {
	Revoke(jti string, until time.Time)
	Revoked(jti string, now time.Time) bool
	Prune(now time.Time) int
}

type memoryDenylist struct {
	mu    sync.RWMutex
	until map[string]time.Time
}

// NewMemoryDenylist returns a process-local Denylist
func NewMemoryDenylist() Denylist {
	return &memoryDenylist{until: make(map[string]time.Time)}
}

func (d *memoryDenylist) Revoke(jti string, until time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.until[jti] = until
}

func (d *memoryDenylist) Revoked(jti string, now time.Time) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	until, ok := d.until[jti]
	return ok && now.Before(until)
}

// Prune drops entries whose token has expired and reports how many went
func (d *memoryDenylist) Prune(now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for jti, until := range d.until {
		if !now.Before(until) {
			delete(d.until, jti)
			n++
		}
	}
	return n
}
