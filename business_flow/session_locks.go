package businessflow

import "sync"

// userLocks serializes flow processing per LINE user. Concurrent
// webhook deliveries for the same user would otherwise interleave the
// read-validate-advance cycle on one session. Entries are never
// removed.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the per-user mutex and returns its unlock func.
func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
