package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/TodoList/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultQueryTimeout = 5 * time.Second

	// SQLSTATE raised by the partial unique index on incomplete descriptions.
	uniqueViolation = "23505"
)

type PostgresRepository struct {
	db           *sql.DB
	tracer       trace.Tracer
	queryTimeout time.Duration
	newID        func() uuid.UUID
}

func NewPostgresRepository(db *sql.DB, queryTimeout time.Duration) *PostgresRepository {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	return &PostgresRepository{
		db:           db,
		tracer:       otel.Tracer("postgres-repository"),
		queryTimeout: queryTimeout,
		newID:        uuid.New,
	}
}

func (r *PostgresRepository) ListIncomplete(ctx context.Context) ([]domain.TodoItem, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.ListIncomplete")
	defer span.End()

	query := `
		SELECT id, description, is_completed
		FROM todo_items
		WHERE is_completed = FALSE
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list todo items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.TodoItem, 0)
	for rows.Next() {
		var item domain.TodoItem
		if err := rows.Scan(&item.ID, &item.Description, &item.IsCompleted); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan todo item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error iterating todo items: %w", err)
	}

	span.SetAttributes(attribute.Int("returned_count", len(items)))
	return items, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.TodoItem, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.GetByID")
	defer span.End()

	span.SetAttributes(attribute.String("todo_item.id", id.String()))

	query := `
		SELECT id, description, is_completed
		FROM todo_items
		WHERE id = $1
	`

	var item domain.TodoItem
	err := r.db.QueryRowContext(ctx, query, id).Scan(&item.ID, &item.Description, &item.IsCompleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			span.SetAttributes(attribute.Bool("not_found", true))
			return domain.TodoItem{}, false, nil
		}
		span.RecordError(err)
		return domain.TodoItem{}, false, fmt.Errorf("failed to get todo item: %w", err)
	}

	return item, true, nil
}

func (r *PostgresRepository) Create(ctx context.Context, item domain.TodoItem) (domain.TodoItem, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.Create")
	defer span.End()

	item.ID = r.newID()
	span.SetAttributes(attribute.String("todo_item.id", item.ID.String()))

	query := `
		INSERT INTO todo_items (id, description, is_completed)
		VALUES ($1, $2, $3)
	`

	if _, err := r.db.ExecContext(ctx, query, item.ID, item.Description, item.IsCompleted); err != nil {
		if isUniqueViolation(err) {
			span.SetAttributes(attribute.Bool("duplicate_description", true))
			return domain.TodoItem{}, domain.ErrDescriptionExists
		}
		span.RecordError(err)
		return domain.TodoItem{}, fmt.Errorf("failed to create todo item: %w", err)
	}

	return item, nil
}

func (r *PostgresRepository) Update(ctx context.Context, item domain.TodoItem) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.Update")
	defer span.End()

	span.SetAttributes(
		attribute.String("todo_item.id", item.ID.String()),
		attribute.Bool("todo_item.is_completed", item.IsCompleted),
	)

	query := `
		UPDATE todo_items
		SET description = $1, is_completed = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, item.Description, item.IsCompleted, item.ID)
	if err != nil {
		if isUniqueViolation(err) {
			span.SetAttributes(attribute.Bool("duplicate_description", true))
			return domain.ErrDescriptionExists
		}
		span.RecordError(err)
		return fmt.Errorf("failed to update todo item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		span.SetAttributes(attribute.Bool("concurrency_conflict", true))
		return domain.ErrConcurrencyConflict
	}

	return nil
}

func (r *PostgresRepository) IDExists(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.IDExists")
	defer span.End()

	span.SetAttributes(attribute.String("todo_item.id", id.String()))

	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM todo_items WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check todo item id: %w", err)
	}

	return exists, nil
}

func (r *PostgresRepository) DescriptionExists(ctx context.Context, description string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "repository.DescriptionExists")
	defer span.End()

	query := `
		SELECT EXISTS (
			SELECT 1 FROM todo_items
			WHERE lower(description) = lower($1) AND is_completed = FALSE
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, description).Scan(&exists); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check todo item description: %w", err)
	}

	return exists, nil
}

func (r *PostgresRepository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

var _ domain.Repository = (*PostgresRepository)(nil)
