package fp

import "sync"

func NewMutexMap[key comparable, value any]() MutexMap[key, value] {
	return MutexMap[key, value]{
		data: map[key]value{},
		mu:   &sync.RWMutex{},
	}
}

type MutexMap[K comparable, V any] struct {
	data map[K]V
	mu   *sync.RWMutex
}

func (m *MutexMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
}

func (m *MutexMap[K, V]) Get(key K) (V, bool) { //nolint:ireturn
	m.mu.RLock()
	value, found := m.data[key]
	m.mu.RUnlock()

	return value, found
}

// GetOrSet returns the existing value for key, storing and returning the result of create when absent.
func (m *MutexMap[K, V]) GetOrSet(key K, create func() V) V { //nolint:ireturn
	m.mu.Lock()
	defer m.mu.Unlock()

	if value, found := m.data[key]; found {
		return value
	}

	value := create()
	m.data[key] = value

	return value
}

// KeyedMutex hands out one lock per key. Locks are never released from the map, which is fine for
// the small and stable key sets it is used with.
type KeyedMutex[K comparable] struct {
	locks MutexMap[K, *sync.Mutex]
}

func NewKeyedMutex[K comparable]() *KeyedMutex[K] {
	return &KeyedMutex[K]{locks: NewMutexMap[K, *sync.Mutex]()}
}

// Lock blocks until the lock for key is held and returns the matching unlock func.
func (k *KeyedMutex[K]) Lock(key K) func() {
	mu := k.locks.GetOrSet(key, func() *sync.Mutex { return &sync.Mutex{} })
	mu.Lock()

	return mu.Unlock
}
