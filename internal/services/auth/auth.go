// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/velikanovdm/todo-planner/internal/lib/jwt"
	"github.com/velikanovdm/todo-planner/internal/lib/password"
	"github.com/velikanovdm/todo-planner/internal/lib/sl"
	"github.com/velikanovdm/todo-planner/internal/models"
	"github.com/velikanovdm/todo-planner/internal/storage/repository"
)

// Ошибки аутентификации, которые обработчики транслируют в HTTP-статусы.
var (
	// ErrEmailTaken возвращается при регистрации на занятый email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrUserNotFound возвращается, когда пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials возвращается при неверном пароле.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrExternalAuth возвращается при сбое обмена с внешним провайдером.
	ErrExternalAuth = errors.New("external provider authentication failed")
	// ErrInvalidToken возвращается при невалидном или истекшем токене.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// GetUserByEmail возвращает пользователя по email или ошибку, если не найден.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUser возвращает пользователя по UID или ошибку, если не найден.
	GetUser(ctx context.Context, userUID string) (*models.User, error)

	// ExistsByEmail сообщает, занят ли email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// UpdateRole меняет роль пользователя.
	UpdateRole(ctx context.Context, userUID, role string) error

	// UpdateAccessToken перезаписывает токен внешнего провайдера.
	UpdateAccessToken(ctx context.Context, userUID, accessToken string) error

	// UpdateProfileImage сохраняет имя файла аватара.
	UpdateProfileImage(ctx context.Context, userUID, profileImage string) error
}

// IdentityProvider описывает клиента внешнего провайдера социального входа.
type IdentityProvider interface {
	// ExchangeCode обменивает код авторизации на access token провайдера.
	ExchangeCode(ctx context.Context, code string) (string, error)
	// FetchProfile запрашивает профиль пользователя по access token.
	FetchProfile(ctx context.Context, accessToken string) (*models.ExternalProfile, error)
	// Logout завершает сессию у провайдера и возвращает тело ответа.
	Logout(ctx context.Context, accessToken string) (string, error)
}

// Notifier публикует события аутентификации для внешних потребителей.
type Notifier interface {
	Publish(routingKey string, event any) error
}

// AuthService отвечает за регистрацию, авторизацию, социальный вход и валидацию JWT.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	provider IdentityProvider
	notifier Notifier
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
// notifier может быть nil, тогда события не публикуются.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, provider IdentityProvider,
	notifier Notifier, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		provider: provider,
		notifier: notifier,
		log:      log,
	}
}

// Register создает нового пользователя с хэшированием пароля и ролью COMMON.
// Токен при регистрации не выдается.
func (s *AuthService) Register(ctx context.Context, email, username, rawPassword, profileImage string) (*models.User, error) {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: &hashed,
		Role:         models.RoleCommon,
		ProfileImage: profileImage,
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		// Гонка двух регистраций на один email решается уникальным
		// индексом в базе; проигравший запрос получает ту же ошибку,
		// что и при обычном дубликате.
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	user.UID = uid

	s.publish("user.registered", UserRegisteredEvent{
		UserUID:  uid,
		Email:    email,
		Username: username,
	})
	return &user, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}
	if user.PasswordHash == nil {
		// Аккаунт создан через социальный вход, локального пароля нет.
		return nil, "", ErrInvalidCredentials
	}
	if err := password.CompareHash(*user.PasswordHash, rawPassword); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.jwtMaker.GenerateToken(user.UID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// PromoteToPremium повышает роль пользователя до PREMIUM и перевыпускает токен.
//
// Операция идемпотентна: повторное повышение уже премиального пользователя
// не является ошибкой. Ранее выданные токены остаются валидны до истечения
// собственного срока.
func (s *AuthService) PromoteToPremium(ctx context.Context, userUID string) (*models.User, string, error) {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}

	if err := s.users.UpdateRole(ctx, userUID, models.RolePremium); err != nil {
		return nil, "", err
	}
	user.Role = models.RolePremium

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Role)
	if err != nil {
		return nil, "", err
	}

	s.publish("user.promoted", UserPromotedEvent{
		UserUID: userUID,
		Role:    models.RolePremium,
	})
	return user, token, nil
}

// SocialLogin выполняет вход через внешнего провайдера по коду авторизации.
//
// Код обменивается на токен провайдера, по токену запрашивается профиль.
// Если пользователя с email профиля еще нет, он создается без локального
// пароля; повторные входы не создают дубликатов. Токен провайдера
// перезаписывается при каждом входе, после чего выдается локальный JWT.
func (s *AuthService) SocialLogin(ctx context.Context, code string) (*models.User, string, error) {
	providerToken, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrExternalAuth, err)
	}

	profile, err := s.provider.FetchProfile(ctx, providerToken)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrExternalAuth, err)
	}

	exists, err := s.users.ExistsByEmail(ctx, profile.Email)
	if err != nil {
		return nil, "", err
	}
	if !exists {
		newUser := models.User{
			Email:        profile.Email,
			Username:     profile.Nickname,
			Role:         models.RoleCommon,
			ProfileImage: profile.PictureURL,
		}
		if newUser.Username == "" {
			newUser.Username = profile.Email
		}
		uid, err := s.users.RegisterUser(ctx, newUser)
		if err != nil && !errors.Is(err, repository.ErrEmailTaken) {
			return nil, "", err
		}
		if err == nil {
			s.log.Info("created user from social profile", slog.String("uid", uid))
			s.publish("user.registered", UserRegisteredEvent{
				UserUID:  uid,
				Email:    newUser.Email,
				Username: newUser.Username,
			})
		}
	}

	user, err := s.users.GetUserByEmail(ctx, profile.Email)
	if err != nil {
		return nil, "", err
	}
	if err := s.users.UpdateAccessToken(ctx, user.UID, providerToken); err != nil {
		return nil, "", err
	}
	user.AccessToken = &providerToken

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout завершает сессию пользователя у внешнего провайдера, если тот
// когда-либо входил через него. Локальные токены не отзываются и действуют
// до истечения срока.
func (s *AuthService) Logout(ctx context.Context, userUID string) (string, error) {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if user.AccessToken == nil {
		return "", nil
	}

	body, err := s.provider.Logout(ctx, *user.AccessToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExternalAuth, err)
	}
	return body, nil
}

// SetProfileImage сохраняет имя файла аватара в профиле пользователя.
func (s *AuthService) SetProfileImage(ctx context.Context, userUID, profileImage string) error {
	if err := s.users.UpdateProfileImage(ctx, userUID, profileImage); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// GetUser возвращает пользователя по UID.
func (s *AuthService) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ValidateToken проверяет JWT и возвращает claims.
// Проверка чисто криптографическая, без обращения к базе.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*jwt.CustomClaims, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

func (s *AuthService) publish(routingKey string, event any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(routingKey, event); err != nil {
		s.log.Warn("failed to publish event", slog.String("routing_key", routingKey), sl.Err(err))
	}
}
