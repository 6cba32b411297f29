package todoplanner

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/velikanovdm/todo-planner/internal/authprovider"
	"github.com/velikanovdm/todo-planner/internal/cache"
	"github.com/velikanovdm/todo-planner/internal/config"
	jwtlib "github.com/velikanovdm/todo-planner/internal/lib/jwt"
	"github.com/velikanovdm/todo-planner/internal/lib/upload"
	"github.com/velikanovdm/todo-planner/internal/migrations"
	"github.com/velikanovdm/todo-planner/internal/rabbitmq"
	authservice "github.com/velikanovdm/todo-planner/internal/services/auth"
	todoservice "github.com/velikanovdm/todo-planner/internal/services/todo"
	"github.com/velikanovdm/todo-planner/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер и ресурсы приложения.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
}

// New собирает приложение: хранилище, миграции, кеш, клиент провайдера,
// сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	var notifier authservice.Notifier
	if cfg.RabbitURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitURL, 5, 2*time.Second)
		if err != nil {
			return nil, err
		}
		ch, err := rabbitmq.SetupChannel(conn, []rabbitmq.QueueConfig{
			{QueueName: "notifications.welcome", RoutingKey: "user.registered"},
			{QueueName: "notifications.premium", RoutingKey: "user.promoted"},
		})
		if err != nil {
			return nil, err
		}
		notifier = rabbitmq.NewPublisher(ch)
	}

	uploads, err := upload.New(cfg.UploadRoot)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwtlib.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	provider := authprovider.NewClient(cfg.OAuthProvider)

	auth := authservice.NewAuthService(db, jwtMaker, provider, notifier, logger)
	todos := todoservice.NewTodoService(db, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, auth, todos, uploads)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.db.DB.Close()
		return err
	}
}
