package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/todo-api/internal/model"
	"github.com/vyrodovalexey/todo-api/internal/store"
)

// TodoHandler handles REST API requests for todos.
type TodoHandler[K model.ID] struct {
	responder
	store store.Store[K]
	keys  store.KeyCodec[K]
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler[K model.ID](s store.Store[K], keys store.KeyCodec[K], logger *zap.Logger) *TodoHandler[K] {
	return &TodoHandler[K]{
		responder: responder{logger: logger},
		store:     s,
		keys:      keys,
	}
}

// RegisterRoutes registers the todo routes with the router.
func (h *TodoHandler[K]) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/todos", h.ListTodos).Methods(http.MethodGet)
	router.HandleFunc("/todos", h.CreateTodo).Methods(http.MethodPost)
	router.HandleFunc("/todos/{id}", h.GetTodo).Methods(http.MethodGet)
	router.HandleFunc("/todos/{id}", h.UpdateTodo).Methods(http.MethodPut)
	router.HandleFunc("/todos/{id}", h.PatchTodo).Methods(http.MethodPatch)
	router.HandleFunc("/todos/{id}", h.DeleteTodo).Methods(http.MethodDelete)
}

// ListTodos handles GET /todos requests.
func (h *TodoHandler[K]) ListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.store.List(r.Context())
	if err != nil {
		h.handleStoreError(w, err, "list todos")
		return
	}

	h.writeJSON(w, http.StatusOK, todos)
}

// GetTodo handles GET /todos/{id} requests.
func (h *TodoHandler[K]) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	todo, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.handleStoreError(w, err, "get todo")
		return
	}

	h.writeJSON(w, http.StatusOK, todo)
}

// CreateTodo handles POST /todos requests.
func (h *TodoHandler[K]) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var input model.CreateTodoInput
	if !h.decode(w, r, &input) {
		return
	}

	todo, err := h.store.Create(r.Context(), &input)
	if err != nil {
		h.handleStoreError(w, err, "create todo")
		return
	}

	w.Header().Set("Location", "/todos/"+h.keys.Format(todo.ID))
	h.writeJSON(w, http.StatusCreated, todo)
}

// UpdateTodo handles PUT /todos/{id} requests.
func (h *TodoHandler[K]) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var input model.UpdateTodoInput
	if !h.decode(w, r, &input) {
		return
	}

	todo, err := h.store.Update(r.Context(), id, &input)
	if err != nil {
		h.handleStoreError(w, err, "update todo")
		return
	}

	h.writeJSON(w, http.StatusOK, todo)
}

// PatchTodo handles PATCH /todos/{id} requests.
func (h *TodoHandler[K]) PatchTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var input model.PatchTodoInput
	if !h.decode(w, r, &input) {
		return
	}

	todo, err := h.store.Patch(r.Context(), id, &input)
	if err != nil {
		h.handleStoreError(w, err, "patch todo")
		return
	}

	h.writeJSON(w, http.StatusOK, todo)
}

// DeleteTodo handles DELETE /todos/{id} requests.
func (h *TodoHandler[K]) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.handleStoreError(w, err, "delete todo")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} path variable, writing a 400 response on failure.
func (h *TodoHandler[K]) pathID(w http.ResponseWriter, r *http.Request) (K, bool) {
	raw := mux.Vars(r)["id"]

	id, err := h.keys.Parse(raw)
	if err != nil {
		h.logger.Warn("invalid todo id", zap.String("id", raw), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid todo ID")
		var zero K
		return zero, false
	}

	return id, true
}

// decode reads a JSON request body into dst, writing a 400 response on failure.
func (h *TodoHandler[K]) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// handleStoreError handles store errors and writes appropriate HTTP responses.
func (h *TodoHandler[K]) handleStoreError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "todo not found")
	case errors.Is(err, store.ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, "invalid todo ID")
	case errors.Is(err, store.ErrNilInput):
		h.writeError(w, http.StatusBadRequest, "invalid request body")
	default:
		h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
