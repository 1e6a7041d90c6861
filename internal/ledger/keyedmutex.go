package ledger

import "sync"

// keyedMutex provides a mutex per account key. Entries are reference
// counted and removed once the last holder releases them.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[int64]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[int64]*keyedEntry)}
}

// lock acquires the mutex for key and returns its release function.
func (k *keyedMutex) lock(key int64) func() {
	k.mu.Lock()
	entry := k.entries[key]
	if entry == nil {
		entry = &keyedEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs <= 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
