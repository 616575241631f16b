package resource

// Handle is an opaque reference to a published object in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Event types for object lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

// Event represents an object lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	TypeID uint32
	Type   EventType
}

// Observer receives notifications about object lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Backend provides the underlying storage mechanism for objects.
type Backend interface {
	// Create stores a value and returns a handle.
	Create(typeID uint32, value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// Drop removes an object and returns (value, true) if it was live.
	Drop(handle Handle) (any, bool)

	// Close releases all objects held by the backend.
	Close() error
}

// Table manages objects with type information and observer support.
type Table interface {
	// Insert adds a value and returns its handle, or 0 if the table refused it.
	Insert(typeID uint32, value any) Handle

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// GetTyped retrieves a value only if it matches the expected type.
	GetTyped(handle Handle, typeID uint32) (any, bool)

	// Remove drops an object and returns (value, true) if found.
	Remove(handle Handle) (any, bool)

	// Subscribe adds an observer for lifecycle events.
	Subscribe(Observer)

	// Unsubscribe removes an observer.
	Unsubscribe(Observer)

	// Len returns the number of live objects.
	Len() int

	// Clear drops all objects.
	Clear()

	// Close releases all objects and stops accepting new ones.
	Close() error
}

// Dropper is optionally implemented by values that need cleanup when
// their handle is removed.
type Dropper interface {
	Drop()
}
