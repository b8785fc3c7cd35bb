package signin

import (
	"sync"

	"go.pilab.hu/connections/domain"
)

// keyLocks hands out one mutex per connection key while it is in use.
type keyLocks struct {
	mu    sync.Mutex
	locks map[domain.ConnectionKey]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[domain.ConnectionKey]*keyLock)}
}

// lock blocks until the caller holds key and returns the function that releases it.
func (k *keyLocks) lock(key domain.ConnectionKey) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
