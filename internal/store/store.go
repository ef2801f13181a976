// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/todo-api/internal/model"
)

// Store errors.
var (
	ErrNotFound  = errors.New("todo not found")
	ErrInvalidID = errors.New("invalid todo ID")
	ErrNilInput  = errors.New("input cannot be nil")
)

// Store defines the todo operations exposed to the HTTP layer.
type Store[K model.ID] interface {
	// List returns all todos in insertion order.
	List(ctx context.Context) ([]model.TodoItem[K], error)

	// Get retrieves a todo by its ID.
	Get(ctx context.Context, id K) (*model.TodoItem[K], error)

	// Create adds a new todo and returns it with its assigned ID.
	Create(ctx context.Context, in *model.CreateTodoInput) (*model.TodoItem[K], error)

	// Update replaces the mutable fields of an existing todo.
	Update(ctx context.Context, id K, in *model.UpdateTodoInput) (*model.TodoItem[K], error)

	// Patch applies the set fields of in to an existing todo.
	Patch(ctx context.Context, id K, in *model.PatchTodoInput) (*model.TodoItem[K], error)

	// Delete removes a todo by its ID.
	Delete(ctx context.Context, id K) error

	// Ping reports whether the underlying storage is reachable.
	Ping(ctx context.Context) error
}

// Publisher receives change events for todos.
type Publisher interface {
	Publish(event any)
}

type discardPublisher struct{}

func (discardPublisher) Publish(any) {}

// Backend is the storage capability a TodoStore is built on.
// Implementations return ErrNotFound for unknown IDs.
type Backend[K model.ID] interface {
	List(ctx context.Context) ([]model.TodoItem[K], error)
	Get(ctx context.Context, id K) (*model.TodoItem[K], error)
	Insert(ctx context.Context, item model.TodoItem[K]) error
	Update(ctx context.Context, item model.TodoItem[K]) error
	Remove(ctx context.Context, id K) error
	Ping(ctx context.Context) error
	Close() error
}

// IssuedKeyRecorder is implemented by backends that persist the last
// identifier they were asked to insert. Open uses it so identifiers of
// deleted todos are not assigned again after a restart.
type IssuedKeyRecorder[K model.ID] interface {
	LastIssued(ctx context.Context) (id K, ok bool, err error)
}
