package authprovider

// Ответ эндпоинта обмена кода авторизации на токен.
// Дополнительные поля ответа провайдера игнорируются.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Ответ эндпоинта профиля пользователя у провайдера.
type profileResponse struct {
	ID      int64 `json:"id"`
	Account struct {
		Email   string `json:"email"`
		Profile struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}
