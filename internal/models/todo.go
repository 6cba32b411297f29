package models

import "time"

// Todo представляет запись списка дел пользователя.
type Todo struct {
	ID        string    // Уникальный идентификатор записи
	UserUID   string    // Владелец записи
	Title     string    // Текст задачи
	Done      bool      // Признак выполнения
	CreatedAt time.Time // Дата создания
}
