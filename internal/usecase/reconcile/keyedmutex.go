package reconcile

import (
	"sync"

	"klist/internal/domain/entity"
)

// keyedMutex hands out one mutex per ledger key. Entries are never removed;
// the key space is bounded by configured guilds times categories.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[entity.LedgerKey]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[entity.LedgerKey]*sync.Mutex)}
}

// Lock blocks until key is free and returns its unlock function.
func (k *keyedMutex) Lock(key entity.LedgerKey) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
