// Package huygym собирает приложение: удалённое хранилище, цикл сессии,
// синхронизацию коллекции, журнал, сервисы и HTTP-сервер.
package huygym

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/BaoQuyyy/HuyGym/internal/activity"
	"github.com/BaoQuyyy/HuyGym/internal/config"
	"github.com/BaoQuyyy/HuyGym/internal/lib/eventloop"
	"github.com/BaoQuyyy/HuyGym/internal/lib/expiry"
	"github.com/BaoQuyyy/HuyGym/internal/lib/jwt"
	"github.com/BaoQuyyy/HuyGym/internal/lib/rabbitmq"
	"github.com/BaoQuyyy/HuyGym/internal/lib/sl"
	"github.com/BaoQuyyy/HuyGym/internal/localstore"
	"github.com/BaoQuyyy/HuyGym/internal/memberstore"
	"github.com/BaoQuyyy/HuyGym/internal/metrics"
	"github.com/BaoQuyyy/HuyGym/internal/migrations"
	"github.com/BaoQuyyy/HuyGym/internal/notify"
	"github.com/BaoQuyyy/HuyGym/internal/reconciler"
	"github.com/BaoQuyyy/HuyGym/internal/remote"
	"github.com/BaoQuyyy/HuyGym/internal/remote/pgstore"
	"github.com/BaoQuyyy/HuyGym/internal/remote/redisstore"
	authservice "github.com/BaoQuyyy/HuyGym/internal/services/auth"
	gymservice "github.com/BaoQuyyy/HuyGym/internal/services/gym"
	"github.com/BaoQuyyy/HuyGym/internal/services/reminder"
	statsservice "github.com/BaoQuyyy/HuyGym/internal/services/stats"
)

const (
	shutdownTimeout = 15 * time.Second
	loopQueueSize   = 256
	amqpRetries     = 5
	amqpRetryDelay  = 2 * time.Second
)

// remoteStore — удалённое хранилище, общее для коллекции и журнала.
type remoteStore interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, value []byte) error
	Subscribe(ctx context.Context, path string, onSnapshot func([]byte), onError func(error)) (remote.Subscription, error)
	Close() error
}

// App — собранное приложение.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	loop       *eventloop.Loop
	remote     remoteStore
	reconciler *reconciler.Reconciler
	journal    *activity.Journal
	reminder   *reminder.Service
	amqpConn   *amqp.Connection
	publisher  *rabbitmq.Publisher
}

// New подключает хранилища и собирает сервисы. Синхронизация начинается в Run.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "huygym.New"
	loc := cfg.Location()
	now := func() time.Time { return time.Now().In(loc) }

	store, err := openRemote(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	local, err := localstore.New(cfg.LocalStorage.Dir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hub := notify.New(logger, 0)
	m := metrics.New(prometheus.DefaultRegisterer)
	loop := eventloop.New(loopQueueSize)
	members := memberstore.New(func() time.Time { return expiry.Today(time.Now(), loc) })

	rec := reconciler.New(logger, loop, members, store, local, hub, m, reconciler.Options{
		Timeout:      cfg.Sync.Timeout,
		WriteTimeout: cfg.Sync.WriteTimeout,
	})
	journal := activity.New(logger, loop, members, store, rec, hub, m, now)

	gym := gymservice.New(logger, loop, members, rec, journal, hub, now)
	maker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	auth := authservice.New(cfg.AdminPasswordHash, maker, gym, logger)
	stats := statsservice.New(gym, now)

	app := &App{
		logger:     logger,
		loop:       loop,
		remote:     store,
		reconciler: rec,
		journal:    journal,
	}

	if cfg.RabbitMQ.URL != "" {
		if err = app.setupReminders(ctx, cfg, gym, m); err != nil {
			store.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		logger.Info("rabbitmq url is empty, expiry reminders disabled")
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Gym:        gym,
		Stats:      stats,
		Auth:       auth,
		Hub:        hub,
		Reconciler: rec,
		Now:        now,
	}, Limits{RPS: cfg.RateLimit, Burst: cfg.RateBurst})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func openRemote(ctx context.Context, cfg *config.Config, logger *slog.Logger) (remoteStore, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := pgstore.New(cfg.StorageConnectionString, logger)
		if err != nil {
			return nil, err
		}
		if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	default:
		return redisstore.InitServer(ctx, cfg.RedisConnection, logger)
	}
}

func (a *App) setupReminders(ctx context.Context, cfg *config.Config, source reminder.Source, m *metrics.Metrics) error {
	conn, err := rabbitmq.Dial(ctx, cfg.RabbitMQ.URL, amqpRetries, amqpRetryDelay, a.logger)
	if err != nil {
		return err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return err
	}
	a.amqpConn = conn
	a.publisher = rabbitmq.NewPublisher(ch)
	a.reminder = reminder.New(source, a.publisher, m, cfg.RabbitMQ.ReminderInterval, a.logger)
	return nil
}

// Run запускает цикл сессии, синхронизацию и HTTP-сервер. При отмене ctx
// сервер и подписки останавливаются за shutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go a.loop.Run(loopCtx)

	if err := a.reconciler.Start(ctx); err != nil {
		return err
	}
	if err := a.journal.Start(ctx); err != nil {
		return err
	}
	if a.reminder != nil {
		go a.reminder.Run(ctx)
	}

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

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down HTTP server gracefully")
	if err := a.server.Shutdown(timeoutCtx); err != nil && runErr == nil {
		runErr = err
	}
	a.reconciler.Stop(timeoutCtx)
	a.journal.Stop(timeoutCtx)
	stopLoop()
	a.close()
	return runErr
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close amqp channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Warn("failed to close amqp connection", sl.Err(err))
		}
	}
	if err := a.remote.Close(); err != nil {
		a.logger.Warn("failed to close remote store", sl.Err(err))
	}
}
