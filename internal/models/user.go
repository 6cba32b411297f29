// Package models содержит доменные модели пользователя, профиля внешнего
// провайдера и записей списка дел. Структуры используются в бизнес‑логике
// и при работе с хранилищем.
package models

import "time"

// Роли пользователя. Переход возможен только COMMON -> PREMIUM.
const (
	RoleCommon  = "COMMON"
	RolePremium = "PREMIUM"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID          string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта (уникальная)
	Username     string    // Отображаемое имя пользователя
	PasswordHash *string   // Хэш пароля; nil для аккаунтов, созданных через социальный вход
	Role         string    // Роль пользователя, COMMON или PREMIUM
	ProfileImage string    // Имя файла аватара либо абсолютный внешний URL
	AccessToken  *string   // Токен внешнего провайдера после социального входа
	CreatedAt    time.Time // Дата создания учетной записи
}

// ExternalProfile — профиль пользователя, полученный от внешнего провайдера.
// Не сохраняется напрямую, служит для поиска или создания локального User.
type ExternalProfile struct {
	ProviderID int64  // Идентификатор аккаунта у провайдера
	Email      string // Электронная почта аккаунта
	Nickname   string // Отображаемое имя
	PictureURL string // URL аватара у провайдера
}
