package services

// UserRegisteredEvent публикуется после успешной регистрации,
// в том числе созданной социальным входом.
type UserRegisteredEvent struct {
	UserUID  string `json:"user_uid"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// UserPromotedEvent публикуется после повышения роли пользователя.
type UserPromotedEvent struct {
	UserUID string `json:"user_uid"`
	Role    string `json:"role"`
}
