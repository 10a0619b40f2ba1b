package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmehra2102/TodoList/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const routeGetTodoItem = "GetTodoItem"

var (
	todoItemsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "todo_items_created_total",
		Help: "Total number of todo items created",
	})

	todoItemConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_item_update_conflicts_total",
			Help: "Update conflicts by resolution (not_found or fatal)",
		},
		[]string{"resolution"},
	)
)

// TodoItemsHandler is the HTTP surface over the todo item repository.
type TodoItemsHandler struct {
	repo   domain.Repository
	logger *zap.Logger
	tracer trace.Tracer
	router *mux.Router
}

func NewTodoItemsHandler(repo domain.Repository, logger *zap.Logger) *TodoItemsHandler {
	return &TodoItemsHandler{
		repo:   repo,
		logger: logger,
		tracer: otel.Tracer("todo-items-api"),
	}
}

// RegisterRoutes mounts the todo item routes on r.
func (h *TodoItemsHandler) RegisterRoutes(r *mux.Router) {
	h.router = r

	r.Handle("/todoItems", h.handle(h.GetTodoItems)).Methods(http.MethodGet)
	r.Handle("/todoItems", h.handle(h.PostTodoItem)).Methods(http.MethodPost)
	r.Handle("/todoItems/{id}", h.handle(h.GetTodoItem)).Methods(http.MethodGet).Name(routeGetTodoItem)
	r.Handle("/todoItems/{id}", h.handle(h.PutTodoItem)).Methods(http.MethodPut)
}

// handlerFunc returns errors it could not turn into a response. They reach
// the client as a 500.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (h *TodoItemsHandler) handle(fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.logger.Error("unhandled error",
				zap.Error(err),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	})
}

// GetTodoItems handles GET /todoItems.
func (h *TodoItemsHandler) GetTodoItems(w http.ResponseWriter, r *http.Request) error {
	ctx, span := h.tracer.Start(r.Context(), "GetTodoItems")
	defer span.End()

	items, err := h.repo.ListIncomplete(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("list incomplete todo items: %w", err)
	}

	span.SetAttributes(attribute.Int("todo_items.count", len(items)))
	writeJSON(w, http.StatusOK, items)
	return nil
}

// GetTodoItem handles GET /todoItems/{id}.
func (h *TodoItemsHandler) GetTodoItem(w http.ResponseWriter, r *http.Request) error {
	ctx, span := h.tracer.Start(r.Context(), "GetTodoItem")
	defer span.End()

	id, ok := pathID(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return nil
	}
	span.SetAttributes(attribute.String("todo_item.id", id.String()))

	item, found, err := h.repo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("get todo item %s: %w", id, err)
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		return nil
	}

	writeJSON(w, http.StatusOK, item)
	return nil
}

// PutTodoItem handles PUT /todoItems/{id}. The body replaces the stored item.
func (h *TodoItemsHandler) PutTodoItem(w http.ResponseWriter, r *http.Request) error {
	ctx, span := h.tracer.Start(r.Context(), "PutTodoItem")
	defer span.End()

	id, ok := pathID(r)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return nil
	}
	span.SetAttributes(attribute.String("todo_item.id", id.String()))

	var item domain.TodoItem
	if err := decodeJSON(r, &item); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil
	}

	if id != item.ID {
		span.RecordError(domain.ErrIDMismatch)
		w.WriteHeader(http.StatusBadRequest)
		return nil
	}

	err := h.repo.Update(ctx, item)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrConcurrencyConflict):
		exists, existsErr := h.repo.IDExists(ctx, id)
		if existsErr != nil {
			span.RecordError(existsErr)
			return fmt.Errorf("check todo item %s after conflict: %w", id, existsErr)
		}
		if !exists {
			todoItemConflicts.WithLabelValues("not_found").Inc()
			w.WriteHeader(http.StatusNotFound)
			return nil
		}
		todoItemConflicts.WithLabelValues("fatal").Inc()
		span.RecordError(err)
		return fmt.Errorf("update todo item %s: %w", id, err)
	case errors.Is(err, domain.ErrDescriptionExists):
		writeText(w, http.StatusBadRequest, err.Error())
		return nil
	default:
		span.RecordError(err)
		return fmt.Errorf("update todo item %s: %w", id, err)
	}

	h.logger.Info("todo item updated",
		zap.String("todo_item_id", id.String()),
		zap.Bool("is_completed", item.IsCompleted),
	)

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// PostTodoItem handles POST /todoItems.
func (h *TodoItemsHandler) PostTodoItem(w http.ResponseWriter, r *http.Request) error {
	ctx, span := h.tracer.Start(r.Context(), "PostTodoItem")
	defer span.End()

	var req domain.TodoItem
	if err := decodeJSON(r, &req); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid request body")
		return nil
	}

	item, err := domain.NewTodoItem(req.Description)
	if err != nil {
		writeText(w, http.StatusBadRequest, err.Error())
		return nil
	}

	exists, err := h.repo.DescriptionExists(ctx, item.Description)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("check todo item description: %w", err)
	}
	if exists {
		writeText(w, http.StatusBadRequest, domain.ErrDescriptionExists.Error())
		return nil
	}

	created, err := h.repo.Create(ctx, item)
	if errors.Is(err, domain.ErrDescriptionExists) {
		writeText(w, http.StatusBadRequest, err.Error())
		return nil
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("create todo item: %w", err)
	}

	todoItemsCreated.Inc()
	span.SetAttributes(attribute.String("todo_item.id", created.ID.String()))
	h.logger.Info("todo item created", zap.String("todo_item_id", created.ID.String()))

	if location, err := h.itemURL(created.ID); err == nil {
		w.Header().Set("Location", location)
	} else {
		h.logger.Warn("failed to build todo item location", zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, created)
	return nil
}

func (h *TodoItemsHandler) itemURL(id uuid.UUID) (string, error) {
	if h.router == nil {
		return "", errors.New("routes not registered")
	}
	route := h.router.Get(routeGetTodoItem)
	if route == nil {
		return "", fmt.Errorf("route %q not found", routeGetTodoItem)
	}
	u, err := route.URL("id", id.String())
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// decodeJSON leaves v untouched when the body is empty.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}
