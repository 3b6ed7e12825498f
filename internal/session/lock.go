package session

import "sync"

// KeyedLock serializes processing per conversation key. Two messages from the
// same sender arriving concurrently would otherwise interleave Recent/Append
// and corrupt turn order; the pipeline engine holds the key's lock for the
// whole exchange. Independent conversations never contend.
type KeyedLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedLock creates an empty keyed lock.
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use.
// Locks are never reaped; the key space is bounded by the set of
// conversations the process has seen.
func (k *KeyedLock) Lock(key string) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
}

// Unlock releases the mutex for key. Panics if the key was never locked.
func (k *KeyedLock) Unlock(key string) {
	k.mu.Lock()
	m := k.locks[key]
	k.mu.Unlock()
	m.Unlock()
}
