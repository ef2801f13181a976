package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/vyrodovalexey/todo-api/internal/model"
)

// TodoStore implements Store on top of a Backend, assigning identifiers
// with a KeyStrategy. Operations are serialized, so every mutation is
// atomic with respect to the others and reads see a consistent state.
type TodoStore[K model.ID] struct {
	mu      sync.Mutex
	backend Backend[K]
	keys    KeyStrategy[K]
	events  Publisher
}

// Open creates a TodoStore over backend. Every ID already held by the
// backend, and the last one it recorded as issued, is reported to keys so
// it is never assigned again.
func Open[K model.ID](ctx context.Context, backend Backend[K], keys KeyStrategy[K]) (*TodoStore[K], error) {
	if backend == nil || keys == nil {
		return nil, fmt.Errorf("open todo store: %w", ErrNilInput)
	}

	existing, err := backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("open todo store: %w", err)
	}

	for _, item := range existing {
		keys.Observe(item.ID)
	}

	if recorder, ok := backend.(IssuedKeyRecorder[K]); ok {
		last, found, err := recorder.LastIssued(ctx)
		if err != nil {
			return nil, fmt.Errorf("open todo store: %w", err)
		}
		if found {
			keys.Observe(last)
		}
	}

	return &TodoStore[K]{
		backend: backend,
		keys:    keys,
		events:  discardPublisher{},
	}, nil
}

// PublishTo sends change events for successful mutations to p. Events are
// published before the store is unlocked, so p receives them in the order
// the mutations were applied. p must not block.
func (s *TodoStore[K]) PublishTo(p Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p == nil {
		p = discardPublisher{}
	}
	s.events = p
}

// Keys returns the store's identifier codec.
func (s *TodoStore[K]) Keys() KeyCodec[K] {
	return s.keys
}

// List returns all todos in insertion order.
func (s *TodoStore[K]) List(ctx context.Context) ([]model.TodoItem[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, observe(opList, fmt.Errorf("list todos: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.backend.List(ctx)
	if err != nil {
		return nil, observe(opList, fmt.Errorf("list todos: %w", err))
	}

	if items == nil {
		items = []model.TodoItem[K]{}
	}

	return items, observe(opList, nil)
}

// Get retrieves a todo by its ID.
func (s *TodoStore[K]) Get(ctx context.Context, id K) (*model.TodoItem[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, observe(opGet, fmt.Errorf("get todo: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.backend.Get(ctx, id)
	if err != nil {
		return nil, observe(opGet, err)
	}

	return item, observe(opGet, nil)
}

// Create assigns a fresh ID, appends the todo and returns it.
func (s *TodoStore[K]) Create(ctx context.Context, in *model.CreateTodoInput) (*model.TodoItem[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, observe(opCreate, fmt.Errorf("create todo: %w", err))
	}

	if in == nil {
		return nil, observe(opCreate, fmt.Errorf("create todo: %w", ErrNilInput))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := model.TodoItem[K]{
		ID:          s.keys.Next(),
		Title:       in.Title,
		IsCompleted: in.IsCompleted,
	}

	if err := s.backend.Insert(ctx, item); err != nil {
		return nil, observe(opCreate, fmt.Errorf("create todo: %w", err))
	}
	s.events.Publish(model.NewTodoEvent(model.EventTodoCreated, item))

	return &item, observe(opCreate, nil)
}

// Update replaces the title and completion flag of an existing todo.
func (s *TodoStore[K]) Update(ctx context.Context, id K, in *model.UpdateTodoInput) (*model.TodoItem[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, observe(opUpdate, fmt.Errorf("update todo: %w", err))
	}

	if in == nil {
		return nil, observe(opUpdate, fmt.Errorf("update todo: %w", ErrNilInput))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := model.TodoItem[K]{
		ID:          id,
		Title:       in.Title,
		IsCompleted: in.IsCompleted,
	}

	if err := s.backend.Update(ctx, item); err != nil {
		return nil, observe(opUpdate, err)
	}
	s.events.Publish(model.NewTodoEvent(model.EventTodoUpdated, item))

	return &item, observe(opUpdate, nil)
}

// Patch applies the set fields of in to an existing todo and returns the result.
func (s *TodoStore[K]) Patch(ctx context.Context, id K, in *model.PatchTodoInput) (*model.TodoItem[K], error) {
	if err := ctx.Err(); err != nil {
		return nil, observe(opPatch, fmt.Errorf("patch todo: %w", err))
	}

	if in == nil {
		return nil, observe(opPatch, fmt.Errorf("patch todo: %w", ErrNilInput))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.backend.Get(ctx, id)
	if err != nil {
		return nil, observe(opPatch, err)
	}

	if in.Empty() {
		return current, observe(opPatch, nil)
	}

	patched := model.ApplyPatch(*current, *in)
	if err := s.backend.Update(ctx, patched); err != nil {
		return nil, observe(opPatch, err)
	}
	s.events.Publish(model.NewTodoEvent(model.EventTodoUpdated, patched))

	return &patched, observe(opPatch, nil)
}

// Delete removes a todo. It returns ErrNotFound if no todo has the ID.
func (s *TodoStore[K]) Delete(ctx context.Context, id K) error {
	if err := ctx.Err(); err != nil {
		return observe(opDelete, fmt.Errorf("delete todo: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Remove(ctx, id); err != nil {
		return observe(opDelete, err)
	}
	s.events.Publish(model.NewTodoEvent(model.EventTodoDeleted, model.TodoItem[K]{ID: id}))

	return observe(opDelete, nil)
}

// Ping reports whether the backend is reachable.
func (s *TodoStore[K]) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close releases the backend.
func (s *TodoStore[K]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.backend.Close()
}
