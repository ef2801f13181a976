// Package model defines data structures used throughout the application.
package model

import (
	"github.com/google/uuid"
)

// ID is the set of identifier types a todo store can be keyed by.
type ID interface {
	int64 | uuid.UUID
}

// TodoItem represents a single todo entry.
type TodoItem[K ID] struct {
	ID          K      `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"isCompleted"`
}

// CreateTodoInput is the payload for creating a todo.
type CreateTodoInput struct {
	Title       string `json:"title" toml:"title"`
	IsCompleted bool   `json:"isCompleted" toml:"isCompleted"`
}

// UpdateTodoInput replaces every mutable field of a todo.
type UpdateTodoInput struct {
	Title       string `json:"title"`
	IsCompleted bool   `json:"isCompleted"`
}

// PatchTodoInput carries a partial update. Only fields that are set are applied.
type PatchTodoInput struct {
	Title       Optional[string] `json:"title"`
	IsCompleted Optional[bool]   `json:"isCompleted"`
}

// Empty reports whether the patch would change nothing.
func (p PatchTodoInput) Empty() bool {
	return !p.Title.IsSet() && !p.IsCompleted.IsSet()
}

// ApplyPatch returns a copy of item with the set fields of p applied.
func ApplyPatch[K ID](item TodoItem[K], p PatchTodoInput) TodoItem[K] {
	if title, ok := p.Title.Get(); ok {
		item.Title = title
	}
	if completed, ok := p.IsCompleted.Get(); ok {
		item.IsCompleted = completed
	}
	return item
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status string `json:"status"`
}
