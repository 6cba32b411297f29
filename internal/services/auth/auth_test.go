package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	customjwt "github.com/velikanovdm/todo-planner/internal/lib/jwt"
	"github.com/velikanovdm/todo-planner/internal/lib/password"
	"github.com/velikanovdm/todo-planner/internal/models"
	services "github.com/velikanovdm/todo-planner/internal/services/auth"
	"github.com/velikanovdm/todo-planner/internal/storage/repository"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepoMock) UpdateRole(ctx context.Context, userUID, role string) error {
	args := m.Called(ctx, userUID, role)
	return args.Error(0)
}

func (m *UserRepoMock) UpdateAccessToken(ctx context.Context, userUID, accessToken string) error {
	args := m.Called(ctx, userUID, accessToken)
	return args.Error(0)
}

func (m *UserRepoMock) UpdateProfileImage(ctx context.Context, userUID, profileImage string) error {
	args := m.Called(ctx, userUID, profileImage)
	return args.Error(0)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(userUID, role string) (string, error) {
	args := m.Called(userUID, role)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

// Мок для IdentityProvider
type ProviderMock struct {
	mock.Mock
}

func (m *ProviderMock) ExchangeCode(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *ProviderMock) FetchProfile(ctx context.Context, accessToken string) (*models.ExternalProfile, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExternalProfile), args.Error(1)
}

func (m *ProviderMock) Logout(ctx context.Context, accessToken string) (string, error) {
	args := m.Called(ctx, accessToken)
	return args.String(0), args.Error(1)
}

// Мок для Notifier
type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Publish(routingKey string, event any) error {
	args := m.Called(routingKey, event)
	return args.Error(0)
}

func newTestService(repo *UserRepoMock, jwtMock *JwtMakerMock, provider *ProviderMock, notifier *NotifierMock) *services.AuthService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	var n services.Notifier
	if notifier != nil {
		n = notifier
	}
	return services.NewAuthService(repo, jwtMock, provider, n, log)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		username   string
		password   string
		setupMocks func(r *UserRepoMock)
		wantErr    error
		wantUID    string
	}{
		{
			name:     "successful registration",
			email:    "test@example.com",
			username: "testuser",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("ExistsByEmail", mock.Anything, "test@example.com").Return(false, nil).Once()
				r.On("RegisterUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
					return user.Email == "test@example.com" &&
						user.Username == "testuser" &&
						user.PasswordHash != nil && *user.PasswordHash != "" &&
						user.Role == models.RoleCommon
				})).Return("some-uuid-string", nil).Once()
			},
			wantUID: "some-uuid-string",
		},
		{
			name:     "email already taken",
			email:    "taken@example.com",
			username: "testuser",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("ExistsByEmail", mock.Anything, "taken@example.com").Return(true, nil).Once()
			},
			wantErr: services.ErrEmailTaken,
		},
		{
			name:     "duplicate lost the insert race",
			email:    "race@example.com",
			username: "testuser",
			password: "password123",
			setupMocks: func(r *UserRepoMock) {
				r.On("ExistsByEmail", mock.Anything, "race@example.com").Return(false, nil).Once()
				r.On("RegisterUser", mock.Anything, mock.Anything).Return("", repository.ErrEmailTaken).Once()
			},
			wantErr: services.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			svc := newTestService(repo, new(JwtMakerMock), new(ProviderMock), nil)

			tt.setupMocks(repo)

			user, err := svc.Register(context.Background(), tt.email, tt.username, tt.password, "")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUID, user.UID)
				assert.Equal(t, models.RoleCommon, user.Role)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Register_PublishesEvent(t *testing.T) {
	repo := new(UserRepoMock)
	notifier := new(NotifierMock)
	svc := newTestService(repo, new(JwtMakerMock), new(ProviderMock), notifier)

	repo.On("ExistsByEmail", mock.Anything, "new@example.com").Return(false, nil).Once()
	repo.On("RegisterUser", mock.Anything, mock.Anything).Return("uid-1", nil).Once()
	notifier.On("Publish", "user.registered", mock.MatchedBy(func(ev any) bool {
		e, ok := ev.(services.UserRegisteredEvent)
		return ok && e.UserUID == "uid-1" && e.Email == "new@example.com"
	})).Return(nil).Once()

	_, err := svc.Register(context.Background(), "new@example.com", "newuser", "password123", "")
	require.NoError(t, err)

	notifier.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	rawPassword := "correctpassword"
	hashedPassword, err := password.GetHash(rawPassword)
	require.NoError(t, err)

	testUser := &models.User{
		UID:          "uid-1",
		Email:        "test@example.com",
		Username:     "testuser",
		PasswordHash: &hashedPassword,
		Role:         models.RoleCommon,
	}
	socialUser := &models.User{
		UID:      "uid-2",
		Email:    "social@example.com",
		Username: "socialuser",
		Role:     models.RoleCommon,
	}

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantToken  string
		wantErr    error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(testUser, nil).Once()
				j.On("GenerateToken", "uid-1", models.RoleCommon).Return("jwt-token-123", nil).Once()
			},
			wantToken: "jwt-token-123",
		},
		{
			name:     "user not found",
			email:    "nonexistent@example.com",
			password: "password",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "nonexistent@example.com").Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: services.ErrUserNotFound,
		},
		{
			name:     "wrong password",
			email:    "test@example.com",
			password: "wrongpassword",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(testUser, nil).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "social account has no local password",
			email:    "social@example.com",
			password: "anything",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "social@example.com").Return(socialUser, nil).Once()
			},
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:     "token generation error",
			email:    "test@example.com",
			password: rawPassword,
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "test@example.com").Return(testUser, nil).Once()
				j.On("GenerateToken", "uid-1", models.RoleCommon).Return("", errors.New("token error")).Once()
			},
			wantErr: nil, // проверяется только наличие ошибки
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			svc := newTestService(repo, jwtMock, new(ProviderMock), nil)

			tt.setupMocks(repo, jwtMock)

			user, token, err := svc.Login(context.Background(), tt.email, tt.password)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantToken != "":
				require.NoError(t, err)
				assert.Equal(t, tt.wantToken, token)
				assert.Equal(t, "uid-1", user.UID)
			default:
				assert.Error(t, err)
			}

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_PromoteToPremium(t *testing.T) {
	commonUser := func() *models.User {
		return &models.User{UID: "uid-1", Email: "test@example.com", Role: models.RoleCommon}
	}
	premiumUser := func() *models.User {
		return &models.User{UID: "uid-1", Email: "test@example.com", Role: models.RolePremium}
	}

	tests := []struct {
		name       string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantErr    error
	}{
		{
			name: "promotes common user",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUser", mock.Anything, "uid-1").Return(commonUser(), nil).Once()
				r.On("UpdateRole", mock.Anything, "uid-1", models.RolePremium).Return(nil).Once()
				j.On("GenerateToken", "uid-1", models.RolePremium).Return("premium-token", nil).Once()
			},
		},
		{
			name: "idempotent for already premium user",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUser", mock.Anything, "uid-1").Return(premiumUser(), nil).Once()
				r.On("UpdateRole", mock.Anything, "uid-1", models.RolePremium).Return(nil).Once()
				j.On("GenerateToken", "uid-1", models.RolePremium).Return("premium-token", nil).Once()
			},
		},
		{
			name: "user not found",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUser", mock.Anything, "uid-1").Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: services.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			jwtMock := new(JwtMakerMock)
			svc := newTestService(repo, jwtMock, new(ProviderMock), nil)

			tt.setupMocks(repo, jwtMock)

			user, token, err := svc.PromoteToPremium(context.Background(), "uid-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, models.RolePremium, user.Role)
				assert.Equal(t, "premium-token", token)
			}

			repo.AssertExpectations(t)
			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_SocialLogin_NewUser(t *testing.T) {
	repo := new(UserRepoMock)
	jwtMock := new(JwtMakerMock)
	provider := new(ProviderMock)
	svc := newTestService(repo, jwtMock, provider, nil)

	profile := &models.ExternalProfile{
		ProviderID: 12345,
		Email:      "kakao@example.com",
		Nickname:   "kakaouser",
		PictureURL: "http://img.example.com/p.jpg",
	}
	created := &models.User{
		UID:      "uid-new",
		Email:    "kakao@example.com",
		Username: "kakaouser",
		Role:     models.RoleCommon,
	}

	provider.On("ExchangeCode", mock.Anything, "auth-code").Return("provider-token", nil).Once()
	provider.On("FetchProfile", mock.Anything, "provider-token").Return(profile, nil).Once()
	repo.On("ExistsByEmail", mock.Anything, "kakao@example.com").Return(false, nil).Once()
	repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
		return user.Email == "kakao@example.com" &&
			user.PasswordHash == nil &&
			user.Role == models.RoleCommon
	})).Return("uid-new", nil).Once()
	repo.On("GetUserByEmail", mock.Anything, "kakao@example.com").Return(created, nil).Once()
	repo.On("UpdateAccessToken", mock.Anything, "uid-new", "provider-token").Return(nil).Once()
	jwtMock.On("GenerateToken", "uid-new", models.RoleCommon).Return("local-jwt", nil).Once()

	user, token, err := svc.SocialLogin(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "local-jwt", token)
	assert.Equal(t, "uid-new", user.UID)
	require.NotNil(t, user.AccessToken)
	assert.Equal(t, "provider-token", *user.AccessToken)

	repo.AssertExpectations(t)
	provider.AssertExpectations(t)
	jwtMock.AssertExpectations(t)
}

func TestAuthService_SocialLogin_ExistingUserNoDuplicate(t *testing.T) {
	repo := new(UserRepoMock)
	jwtMock := new(JwtMakerMock)
	provider := new(ProviderMock)
	svc := newTestService(repo, jwtMock, provider, nil)

	profile := &models.ExternalProfile{Email: "kakao@example.com", Nickname: "kakaouser"}
	existing := &models.User{UID: "uid-old", Email: "kakao@example.com", Role: models.RolePremium}

	provider.On("ExchangeCode", mock.Anything, "auth-code").Return("fresh-token", nil).Once()
	provider.On("FetchProfile", mock.Anything, "fresh-token").Return(profile, nil).Once()
	repo.On("ExistsByEmail", mock.Anything, "kakao@example.com").Return(true, nil).Once()
	repo.On("GetUserByEmail", mock.Anything, "kakao@example.com").Return(existing, nil).Once()
	repo.On("UpdateAccessToken", mock.Anything, "uid-old", "fresh-token").Return(nil).Once()
	jwtMock.On("GenerateToken", "uid-old", models.RolePremium).Return("local-jwt", nil).Once()

	user, token, err := svc.SocialLogin(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "local-jwt", token)
	assert.Equal(t, "uid-old", user.UID)

	// RegisterUser не должен вызываться для существующего пользователя
	repo.AssertNotCalled(t, "RegisterUser", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestAuthService_SocialLogin_ProviderErrors(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(p *ProviderMock)
	}{
		{
			name: "code exchange fails",
			setupMocks: func(p *ProviderMock) {
				p.On("ExchangeCode", mock.Anything, "bad-code").Return("", errors.New("invalid grant")).Once()
			},
		},
		{
			name: "profile fetch fails",
			setupMocks: func(p *ProviderMock) {
				p.On("ExchangeCode", mock.Anything, "bad-code").Return("provider-token", nil).Once()
				p.On("FetchProfile", mock.Anything, "provider-token").Return(nil, errors.New("unauthorized")).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := new(ProviderMock)
			svc := newTestService(new(UserRepoMock), new(JwtMakerMock), provider, nil)

			tt.setupMocks(provider)

			_, _, err := svc.SocialLogin(context.Background(), "bad-code")
			assert.ErrorIs(t, err, services.ErrExternalAuth)

			provider.AssertExpectations(t)
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	token := "provider-token"
	socialUser := &models.User{UID: "uid-1", AccessToken: &token}
	localUser := &models.User{UID: "uid-2"}

	t.Run("calls provider for social user", func(t *testing.T) {
		repo := new(UserRepoMock)
		provider := new(ProviderMock)
		svc := newTestService(repo, new(JwtMakerMock), provider, nil)

		repo.On("GetUser", mock.Anything, "uid-1").Return(socialUser, nil).Once()
		provider.On("Logout", mock.Anything, "provider-token").Return(`{"id":12345}`, nil).Once()

		body, err := svc.Logout(context.Background(), "uid-1")
		require.NoError(t, err)
		assert.Equal(t, `{"id":12345}`, body)

		provider.AssertExpectations(t)
	})

	t.Run("no-op for local-only user", func(t *testing.T) {
		repo := new(UserRepoMock)
		provider := new(ProviderMock)
		svc := newTestService(repo, new(JwtMakerMock), provider, nil)

		repo.On("GetUser", mock.Anything, "uid-2").Return(localUser, nil).Once()

		body, err := svc.Logout(context.Background(), "uid-2")
		require.NoError(t, err)
		assert.Empty(t, body)

		provider.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	})

	t.Run("provider failure", func(t *testing.T) {
		repo := new(UserRepoMock)
		provider := new(ProviderMock)
		svc := newTestService(repo, new(JwtMakerMock), provider, nil)

		repo.On("GetUser", mock.Anything, "uid-1").Return(socialUser, nil).Once()
		provider.On("Logout", mock.Anything, "provider-token").Return("", errors.New("provider down")).Once()

		_, err := svc.Logout(context.Background(), "uid-1")
		assert.ErrorIs(t, err, services.ErrExternalAuth)
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	validClaims := &customjwt.CustomClaims{
		Role: models.RoleCommon,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-1",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	tests := []struct {
		name       string
		token      string
		setupMocks func(j *JwtMakerMock)
		wantErr    bool
	}{
		{
			name:  "valid token",
			token: "valid-token",
			setupMocks: func(j *JwtMakerMock) {
				j.On("ParseToken", "valid-token").Return(validClaims, nil).Once()
			},
		},
		{
			name:  "invalid token",
			token: "invalid-token",
			setupMocks: func(j *JwtMakerMock) {
				j.On("ParseToken", "invalid-token").Return(nil, errors.New("invalid token")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jwtMock := new(JwtMakerMock)
			svc := newTestService(new(UserRepoMock), jwtMock, new(ProviderMock), nil)

			tt.setupMocks(jwtMock)

			claims, err := svc.ValidateToken(context.Background(), tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, services.ErrInvalidToken)
				assert.Nil(t, claims)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "uid-1", claims.UserUID())
				assert.Equal(t, models.RoleCommon, claims.Role)
			}

			jwtMock.AssertExpectations(t)
		})
	}
}

func TestAuthService_SetProfileImage(t *testing.T) {
	repo := new(UserRepoMock)
	svc := newTestService(repo, new(JwtMakerMock), new(ProviderMock), nil)

	repo.On("UpdateProfileImage", mock.Anything, "uid-1", "abc_avatar.png").Return(nil).Once()
	require.NoError(t, svc.SetProfileImage(context.Background(), "uid-1", "abc_avatar.png"))

	repo.On("UpdateProfileImage", mock.Anything, "missing", "x.png").Return(repository.ErrNotFound).Once()
	err := svc.SetProfileImage(context.Background(), "missing", "x.png")
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	repo.AssertExpectations(t)
}
