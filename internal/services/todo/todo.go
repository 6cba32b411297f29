// Package services содержит бизнес-логику для управления записями списка дел и кешированием.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/velikanovdm/todo-planner/internal/lib/sl"
	"github.com/velikanovdm/todo-planner/internal/models"
	"github.com/velikanovdm/todo-planner/internal/storage/repository"
)

// ErrTodoNotFound возвращается, когда запись отсутствует или принадлежит другому пользователю.
var ErrTodoNotFound = errors.New("todo not found")

// TodoRepository определяет методы для работы с записями в хранилище.
type TodoRepository interface {
	// CreateTodo добавляет новую запись и возвращает её ID.
	CreateTodo(ctx context.Context, todo models.Todo) (string, error)
	// ListTodos возвращает записи пользователя.
	ListTodos(ctx context.Context, userUID string) ([]*models.Todo, error)
	// UpdateTodo обновляет текст и признак выполнения записи.
	UpdateTodo(ctx context.Context, todo models.Todo) error
	// RemoveTodo удаляет запись пользователя.
	RemoveTodo(ctx context.Context, id, userUID string) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// TodoService реализует бизнес-логику работы со списком дел, включая кеширование.
type TodoService struct {
	repo  TodoRepository
	cache Cache
	log   *slog.Logger
}

// NewTodoService создает новый экземпляр TodoService.
func NewTodoService(repo TodoRepository, cache Cache, log *slog.Logger) *TodoService {
	return &TodoService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Create создает новую запись и инвалидирует кеш списка пользователя.
func (s *TodoService) Create(ctx context.Context, userUID, title string) (string, error) {
	todo := models.Todo{
		UserUID: userUID,
		Title:   title,
	}
	id, err := s.repo.CreateTodo(ctx, todo)
	if err != nil {
		return "", err
	}
	s.log.Info("created new todo", slog.String("id", id))

	s.invalidateList(ctx, userUID)
	return id, nil
}

// List возвращает записи пользователя, по возможности из кеша.
func (s *TodoService) List(ctx context.Context, userUID string) ([]*models.Todo, error) {
	cacheKey := listCacheKey(userUID)

	var cached []*models.Todo
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read todos from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	todos, err := s.repo.ListTodos(ctx, userUID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, todos, 5*time.Minute); err != nil {
		s.log.Warn("failed to cache todos", slog.String("key", cacheKey), sl.Err(err))
	}
	return todos, nil
}

// Update обновляет запись пользователя и инвалидирует кеш.
func (s *TodoService) Update(ctx context.Context, userUID, id, title string, done bool) error {
	todo := models.Todo{
		ID:      id,
		UserUID: userUID,
		Title:   title,
		Done:    done,
	}
	if err := s.repo.UpdateTodo(ctx, todo); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTodoNotFound
		}
		return err
	}
	s.invalidateList(ctx, userUID)
	return nil
}

// Remove удаляет запись пользователя и инвалидирует кеш.
func (s *TodoService) Remove(ctx context.Context, userUID, id string) error {
	if err := s.repo.RemoveTodo(ctx, id, userUID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTodoNotFound
		}
		return err
	}
	s.invalidateList(ctx, userUID)
	return nil
}

func (s *TodoService) invalidateList(ctx context.Context, userUID string) {
	cacheKey := listCacheKey(userUID)
	if err := s.cache.Invalidate(ctx, cacheKey); err != nil {
		s.log.Warn("failed to invalidate todos cache", slog.String("key", cacheKey), sl.Err(err))
	}
}

func listCacheKey(userUID string) string {
	return fmt.Sprintf("todos:%s", userUID)
}
