package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed = errors.New("resource backend closed")
	ErrLimit  = errors.New("resource backend full")
)

// LocalBackend is an in-memory object backend with handle reuse.
type LocalBackend struct {
	entries  []entry
	freeList []Handle
	limit    int
	live     int
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value  any
	typeID uint32
	valid  bool
}

// NewLocalBackend creates a new in-memory backend with no object limit.
func NewLocalBackend() *LocalBackend {
	return NewLocalBackendWithLimit(0)
}

// NewLocalBackendWithLimit creates a backend that holds at most limit live
// objects. A limit of 0 means unbounded.
func NewLocalBackendWithLimit(limit int) *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
		limit:    limit,
	}
}

// Create stores a value and returns a handle.
func (b *LocalBackend) Create(typeID uint32, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}
	if b.limit > 0 && b.live >= b.limit {
		return 0, ErrLimit
	}

	e := entry{
		typeID: typeID,
		value:  value,
		valid:  true,
	}
	b.live++

	if len(b.freeList) > 0 {
		handle := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		b.entries[handle-1] = e
		return handle, nil
	}

	b.entries = append(b.entries, e)
	return Handle(len(b.entries)), nil
}

// slot returns the live entry for handle, or nil. Callers hold mu.
func (b *LocalBackend) slot(handle Handle) *entry {
	if handle == 0 || int(handle) > len(b.entries) {
		return nil
	}
	e := &b.entries[handle-1]
	if !e.valid {
		return nil
	}
	return e
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(handle Handle) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if e := b.slot(handle); e != nil {
		return e.value, true
	}
	return nil, false
}

// Drop removes an object and returns (value, true) if it was live.
// The handle goes back on the free list.
func (b *LocalBackend) Drop(handle Handle) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.slot(handle)
	if e == nil {
		return nil, false
	}
	value := e.value
	*e = entry{}
	b.live--
	b.freeList = append(b.freeList, handle)
	return value, true
}

// Close drops every live object, calling Drop on those that implement
// Dropper, and refuses further inserts.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true

	var droppers []Dropper
	for i := range b.entries {
		if b.entries[i].valid {
			if d, ok := b.entries[i].value.(Dropper); ok {
				droppers = append(droppers, d)
			}
			b.entries[i].valid = false
			b.entries[i].value = nil
		}
	}

	b.entries = nil
	b.freeList = nil
	b.live = 0
	b.mu.Unlock()

	// Drop outside the lock: a dropper may release references that
	// reach back into the table.
	for _, d := range droppers {
		d.Drop()
	}
	return nil
}

// TypeID returns the type ID for a handle.
func (b *LocalBackend) TypeID(handle Handle) (uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if e := b.slot(handle); e != nil {
		return e.typeID, true
	}
	return 0, false
}

// Len returns the number of live objects.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.live
}

// Each iterates over all live objects in handle order.
func (b *LocalBackend) Each(fn func(Handle, uint32, any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid {
			if !fn(Handle(i+1), e.typeID, e.value) {
				break
			}
		}
	}
}
