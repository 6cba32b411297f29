package repository

import (
	"context"
	"fmt"

	"github.com/velikanovdm/todo-planner/internal/models"
)

// CreateTodo сохраняет новую запись списка дел и возвращает её ID.
func (s *Storage) CreateTodo(ctx context.Context, todo models.Todo) (string, error) {
	const op = "storage.CreateTodo"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO todos (user_uid, title, done)
			  VALUES ($1, $2, $3)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		todo.UserUID, todo.Title, todo.Done).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListTodos возвращает все записи пользователя в порядке создания.
func (s *Storage) ListTodos(ctx context.Context, userUID string) ([]*models.Todo, error) {
	const op = "storage.ListTodos"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, title, done, created_at
			  FROM todos
			  WHERE user_uid = $1
			  ORDER BY created_at`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Todo
	for rows.Next() {
		var t models.Todo
		if err = rows.Scan(&t.ID, &t.UserUID, &t.Title, &t.Done, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateTodo обновляет текст и признак выполнения записи пользователя.
func (s *Storage) UpdateTodo(ctx context.Context, todo models.Todo) error {
	const op = "storage.UpdateTodo"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE todos
			  SET title = $1, done = $2
			  WHERE id = $3 AND user_uid = $4`
	res, err := s.DB.ExecContext(ctx, query, todo.Title, todo.Done, todo.ID, todo.UserUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// RemoveTodo удаляет запись пользователя.
func (s *Storage) RemoveTodo(ctx context.Context, id, userUID string) error {
	const op = "storage.RemoveTodo"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM todos
			  WHERE id = $1 AND user_uid = $2`
	res, err := s.DB.ExecContext(ctx, query, id, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
