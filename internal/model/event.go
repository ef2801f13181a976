package model

import "time"

// Todo event types pushed to websocket subscribers.
const (
	EventTodoCreated = "todo.created"
	EventTodoUpdated = "todo.updated"
	EventTodoDeleted = "todo.deleted"
)

// TodoEvent describes a change applied to the todo collection.
type TodoEvent[K ID] struct {
	Type      string       `json:"type"`
	ID        K            `json:"id"`
	Item      *TodoItem[K] `json:"item,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewTodoEvent creates an event for item. Item is omitted for deletions.
func NewTodoEvent[K ID](eventType string, item TodoItem[K]) TodoEvent[K] {
	event := TodoEvent[K]{
		Type:      eventType,
		ID:        item.ID,
		Timestamp: time.Now().UTC(),
	}
	if eventType != EventTodoDeleted {
		event.Item = &item
	}
	return event
}
