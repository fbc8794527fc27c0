package usersapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/users-api/internal/cache"
	"github.com/magabrotheeeer/users-api/internal/config"
	"github.com/magabrotheeeer/users-api/internal/geocoder"
	"github.com/magabrotheeeer/users-api/internal/lib/jwt"
	"github.com/magabrotheeeer/users-api/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/users-api/internal/lib/sl"
	"github.com/magabrotheeeer/users-api/internal/metrics"
	"github.com/magabrotheeeer/users-api/internal/migrations"
	authservice "github.com/magabrotheeeer/users-api/internal/services/auth"
	locationservice "github.com/magabrotheeeer/users-api/internal/services/location"
	userservice "github.com/magabrotheeeer/users-api/internal/services/users"
	"github.com/magabrotheeeer/users-api/internal/storage/repository"
)

// App HTTP-приложение со всеми внешними соединениями.
type App struct {
	server          *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
	db              *repository.Storage
	cache           *cache.Cache
	amqpConn        *amqp.Connection
	amqpCh          *amqp.Channel
}

// New подключается к хранилищам, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		shutdownTimeout: cfg.HTTPServer.ShutdownTimeout,
		logger:          logger,
		db:              db,
		cache:           cacheRedis,
	}

	var publisher userservice.Publisher
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.close()
			return nil, err
		}
		app.amqpConn = conn
		ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Exchange, rabbitmq.UserQueues(cfg.RabbitMQ))
		if err != nil {
			app.close()
			return nil, err
		}
		app.amqpCh = ch
		publisher = rabbitmq.NewPublisher(ch, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
	} else {
		logger.Info("rabbitmq url is empty, user events are not published")
	}

	var geo userservice.Geocoder = geocoder.Nop{}
	if cfg.Geocoder.URL != "" {
		geo = geocoder.NewCached(geocoder.New(cfg.Geocoder), cacheRedis, cfg.RedisConnection.TTL, logger)
	}

	appMetrics := metrics.New(prometheus.DefaultRegisterer)
	usersService := userservice.NewService(userservice.Deps{
		Repo:      db,
		Cache:     cacheRedis,
		Geocoder:  geo,
		Publisher: publisher,
		Metrics:   appMetrics,
		CacheTTL:  cfg.RedisConnection.TTL,
		Log:       logger,
	})
	locationService := locationservice.NewService(db, appMetrics, cfg.Location.DefaultRadiusKm, logger)
	authService := authservice.NewAuthService(db, jwt.NewJWTMaker(cfg.JWTToken.SecretKey, cfg.JWTToken.TokenTTL))

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Users:          usersService,
		Location:       locationService,
		Auth:           authService,
		Health:         db,
		Metrics:        appMetrics,
		MetricsHandler: promhttp.Handler(),
		RateLimit:      cfg.RateLimit,
	})

	app.server = &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	return app, nil
}

// Run запускает HTTP-сервер и корректно останавливает его при отмене ctx.
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
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.amqpCh != nil {
		if err := a.amqpCh.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
