// Package authprovider реализует HTTP-клиент внешнего провайдера социального входа.
//
// Протокол двухшаговый: обмен кода авторизации на access token провайдера
// и запрос профиля пользователя с этим токеном. Дополнительно поддерживается
// выход у провайдера. Все вызовы блокирующие, без повторов; таймаут задается
// в конфигурации и превышение возвращается как ошибка, а не зависание.
package authprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/velikanovdm/todo-planner/internal/config"
	"github.com/velikanovdm/todo-planner/internal/models"
)

// Client выполняет запросы к внешнему провайдеру.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string
	tokenURL     string
	profileURL   string
	logoutURL    string
	httpClient   *http.Client
}

// NewClient создаёт новый клиент провайдера из конфигурации.
func NewClient(cfg config.OAuthProvider) *Client {
	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		tokenURL:     cfg.TokenURL,
		profileURL:   cfg.ProfileURL,
		logoutURL:    cfg.LogoutURL,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
	}
}

// ExchangeCode обменивает код авторизации на access token провайдера.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	const op = "authprovider.ExchangeCode"

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.clientID)
	form.Set("redirect_uri", c.redirectURI)
	form.Set("code", code)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%s: %w", op, errors.New("response has no access_token"))
	}
	return tokenResp.AccessToken, nil
}

// FetchProfile запрашивает профиль пользователя у провайдера по access token.
//
// Профиль обязан содержать email, иначе локальную учетную запись
// не с чем сверять.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*models.ExternalProfile, error) {
	const op = "authprovider.FetchProfile"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var profileResp profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profileResp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if profileResp.Account.Email == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("profile has no email"))
	}

	return &models.ExternalProfile{
		ProviderID: profileResp.ID,
		Email:      profileResp.Account.Email,
		Nickname:   profileResp.Account.Profile.Nickname,
		PictureURL: profileResp.Account.Profile.ProfileImageURL,
	}, nil
}

// Logout завершает сессию пользователя у провайдера.
//
// Тело ответа провайдера возвращается вызывающему без изменений.
func (c *Client) Logout(ctx context.Context, accessToken string) (string, error) {
	const op = "authprovider.Logout"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.logoutURL, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}
	return string(body), nil
}
