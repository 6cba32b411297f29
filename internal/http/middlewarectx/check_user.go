package middlewarectx

import "context"

// UserUIDFromContext извлекает идентификатор пользователя, добавленный JWTMiddleware.
func UserUIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserUID).(string)
	return uid, ok
}

// RoleFromContext извлекает роль пользователя, добавленную JWTMiddleware.
func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(Role).(string)
	return role, ok
}
