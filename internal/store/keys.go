package store

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/todo-api/internal/model"
)

// KeyCodec converts identifiers to and from their textual form.
type KeyCodec[K model.ID] interface {
	Parse(s string) (K, error)
	Format(id K) string
}

// KeyStrategy assigns identifiers to new todos.
type KeyStrategy[K model.ID] interface {
	KeyCodec[K]

	// Next returns an identifier that has never been returned or observed.
	Next() K

	// Observe records an identifier that already exists in storage.
	Observe(id K)
}

// IntKeys hands out strictly increasing integer identifiers starting at 1.
// Deleted identifiers are never reused.
type IntKeys struct {
	mu   sync.Mutex
	last int64
}

// NewIntKeys creates an integer key strategy.
func NewIntKeys() *IntKeys {
	return &IntKeys{}
}

// Next returns the next identifier.
func (k *IntKeys) Next() int64 {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.last++
	return k.last
}

// Observe advances the counter past id.
func (k *IntKeys) Observe(id int64) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if id > k.last {
		k.last = id
	}
}

// Parse parses a decimal identifier.
func (k *IntKeys) Parse(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

// Format renders id in decimal.
func (k *IntKeys) Format(id int64) string {
	return strconv.FormatInt(id, 10)
}

// UUIDKeys hands out random (version 4) UUIDs.
type UUIDKeys struct{}

// NewUUIDKeys creates a UUID key strategy.
func NewUUIDKeys() UUIDKeys {
	return UUIDKeys{}
}

// Next returns a new random UUID.
func (UUIDKeys) Next() uuid.UUID {
	return uuid.New()
}

// Observe is a no-op; random UUIDs do not collide with existing ones.
func (UUIDKeys) Observe(uuid.UUID) {}

// Parse parses a UUID in any of the forms accepted by uuid.Parse.
func (UUIDKeys) Parse(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

// Format renders id in canonical form.
func (UUIDKeys) Format(id uuid.UUID) string {
	return id.String()
}
