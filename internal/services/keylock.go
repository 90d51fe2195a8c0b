// Per-pair serialization for lifecycle operations.
//
// The dedup scan and the subsequent delete/insert run in one transaction,
// but the store takes no row lock on the (player, demon) pairing before the
// scan, so two near-simultaneous submissions for the same pairing could both
// pass the dedup check. With an embedded single-process store the fix is an
// in-process mutex per pairing, acquired before the dedup read and held
// until the transaction returns.
package services

import "sync"

// pairKey identifies one (player, demon) pairing by normalized names. Names
// are used instead of IDs because the player row may not exist until the
// transaction creates it.
type pairKey struct {
	player string
	demon  string
}

// keyedMutex hands out one mutex per key, dropping entries once the last
// holder releases them so the map stays bounded by in-flight operations.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[pairKey]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until the pairing's mutex is held and returns the release
// function. Always call the release exactly once, typically via defer.
func (k *keyedMutex) lock(key pairKey) func() {
	k.mu.Lock()
	if k.entries == nil {
		k.entries = make(map[pairKey]*lockEntry)
	}
	e := k.entries[key]
	if e == nil {
		e = &lockEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
