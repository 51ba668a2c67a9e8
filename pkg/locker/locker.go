package locker

import (
	"sync"
)

// KeyedLocker serializes critical sections per key. Reservations for the
// same booth go through the same mutex; different booths proceed in
// parallel. Mutexes are created lazily and kept for the process lifetime,
// the key space (booths) is small and bounded.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{
		locks: make(map[int64]*sync.Mutex),
	}
}

func (l *KeyedLocker) get(key int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

func (l *KeyedLocker) Lock(key int64) {
	l.get(key).Lock()
}

func (l *KeyedLocker) Unlock(key int64) {
	l.get(key).Unlock()
}
