package ffi

import (
	"errors"
	"sync"
)

var errArenaClosed = errors.New("ffi: arena closed")

// arena is the in-memory store behind handles. Slot numbers are stable for
// the lifetime of an instance and double as handle identity; slot 0 is
// reserved as NULL. Freed slots are recycled through a free list.
type arena struct {
	entries  []arenaEntry
	freeList []uint32
	mu       sync.RWMutex
	closed   bool
}

type arenaEntry struct {
	value any
	valid bool
}

func newArena() *arena {
	return &arena{
		entries:  make([]arenaEntry, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// alloc stores a value and returns its slot.
func (a *arena) alloc(value any) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return 0, errArenaClosed
	}

	e := arenaEntry{value: value, valid: true}

	if len(a.freeList) > 0 {
		slot := a.freeList[len(a.freeList)-1]
		a.freeList = a.freeList[:len(a.freeList)-1]
		a.entries[slot-1] = e
		return slot, nil
	}

	a.entries = append(a.entries, e)
	return uint32(len(a.entries)), nil
}

// get retrieves the value in a slot.
func (a *arena) get(slot uint32) (any, bool) {
	if slot == 0 {
		return nil, false
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	idx := slot - 1
	if int(idx) >= len(a.entries) {
		return nil, false
	}
	e := a.entries[idx]
	if !e.valid {
		return nil, false
	}
	return e.value, true
}

// free releases a slot for reuse. Freeing an already-free or out-of-range
// slot is a no-op.
func (a *arena) free(slot uint32) {
	if slot == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	idx := slot - 1
	if int(idx) >= len(a.entries) || !a.entries[idx].valid {
		return
	}
	a.entries[idx] = arenaEntry{}
	a.freeList = append(a.freeList, slot)
}

// valid reports whether a slot currently holds a live value.
func (a *arena) valid(slot uint32) bool {
	_, ok := a.get(slot)
	return ok
}

// len returns the number of live slots.
func (a *arena) len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n := 0
	for _, e := range a.entries {
		if e.valid {
			n++
		}
	}
	return n
}
