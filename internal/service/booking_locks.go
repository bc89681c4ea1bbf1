package service

import (
	"sync"

	"github.com/google/uuid"
)

// bookingLocks serializes reassignment attempts per booking. Entries are
// refcounted so the registry does not grow with every booking ever touched.
type bookingLocks struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*bookingLockEntry
}

type bookingLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newBookingLocks() *bookingLocks {
	return &bookingLocks{entries: make(map[uuid.UUID]*bookingLockEntry)}
}

func (l *bookingLocks) retain(id uuid.UUID) *bookingLockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[id]
	if !ok {
		entry = &bookingLockEntry{}
		l.entries[id] = entry
	}
	entry.refs++
	return entry
}

func (l *bookingLocks) release(id uuid.UUID, entry *bookingLockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, id)
	}
}

// Acquire blocks until the booking's lock is held and returns the release
// function.
func (l *bookingLocks) Acquire(id uuid.UUID) func() {
	entry := l.retain(id)
	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.release(id, entry)
	}
}

// TryAcquire takes the lock without blocking. The second return value is
// false when another reassignment holds it.
func (l *bookingLocks) TryAcquire(id uuid.UUID) (func(), bool) {
	entry := l.retain(id)
	if !entry.mu.TryLock() {
		l.release(id, entry)
		return nil, false
	}
	return func() {
		entry.mu.Unlock()
		l.release(id, entry)
	}, true
}
