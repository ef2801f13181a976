package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vyrodovalexey/todo-api/internal/model"
)

// MemoryBackend implements Backend with in-memory storage.
// Items are kept in insertion order.
type MemoryBackend[K model.ID] struct {
	mu    sync.RWMutex
	items []model.TodoItem[K]
	index map[K]int
}

// NewMemoryBackend creates a new MemoryBackend instance.
func NewMemoryBackend[K model.ID]() *MemoryBackend[K] {
	return &MemoryBackend[K]{
		index: make(map[K]int),
	}
}

// List returns a copy of all items.
func (b *MemoryBackend[K]) List(ctx context.Context) ([]model.TodoItem[K], error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list items: %w", ctx.Err())
	default:
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	return slices.Clone(b.items), nil
}

// Get retrieves an item by its ID.
func (b *MemoryBackend[K]) Get(ctx context.Context, id K) (*model.TodoItem[K], error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get item: %w", ctx.Err())
	default:
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	pos, exists := b.index[id]
	if !exists {
		return nil, ErrNotFound
	}

	item := b.items[pos]
	return &item, nil
}

// Insert appends a new item.
func (b *MemoryBackend[K]) Insert(ctx context.Context, item model.TodoItem[K]) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("insert item: %w", ctx.Err())
	default:
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.index[item.ID]; exists {
		return fmt.Errorf("insert item: duplicate id %v", item.ID)
	}

	b.index[item.ID] = len(b.items)
	b.items = append(b.items, item)

	return nil
}

// Update replaces the stored item with the same ID.
func (b *MemoryBackend[K]) Update(ctx context.Context, item model.TodoItem[K]) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("update item: %w", ctx.Err())
	default:
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	pos, exists := b.index[item.ID]
	if !exists {
		return ErrNotFound
	}

	b.items[pos] = item

	return nil
}

// Remove deletes an item by its ID.
func (b *MemoryBackend[K]) Remove(ctx context.Context, id K) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("remove item: %w", ctx.Err())
	default:
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	pos, exists := b.index[id]
	if !exists {
		return ErrNotFound
	}

	b.items = slices.Delete(b.items, pos, pos+1)
	delete(b.index, id)
	for i := pos; i < len(b.items); i++ {
		b.index[b.items[i].ID] = i
	}

	return nil
}

// Ping always succeeds.
func (b *MemoryBackend[K]) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (b *MemoryBackend[K]) Close() error {
	return nil
}
