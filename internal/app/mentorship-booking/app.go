// Package mentorshipbooking собирает HTTP-приложение бронирования:
// хранилище, миграции, кеш, очередь уведомлений и все сервисы.
package mentorshipbooking

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/mentorship-booking/internal/cache"
	"github.com/magabrotheeeer/mentorship-booking/internal/config"
	"github.com/magabrotheeeer/mentorship-booking/internal/lib/jwt"
	"github.com/magabrotheeeer/mentorship-booking/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/mentorship-booking/internal/meetingprovider"
	"github.com/magabrotheeeer/mentorship-booking/internal/migrations"
	bookingservice "github.com/magabrotheeeer/mentorship-booking/internal/services/booking"
	cancellationservice "github.com/magabrotheeeer/mentorship-booking/internal/services/cancellation"
	ledgerservice "github.com/magabrotheeeer/mentorship-booking/internal/services/ledger"
	mentorservice "github.com/magabrotheeeer/mentorship-booking/internal/services/mentor"
	"github.com/magabrotheeeer/mentorship-booking/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер и его ресурсы.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	amqp   *amqp.Connection
}

// New собирает приложение из конфига: подключает Postgres и прогоняет
// миграции, поднимает Redis и RabbitMQ, создает сервисы и маршруты.
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

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch)

	meetings := meetingprovider.NewClient(cfg.MeetingAPIURL, cfg.MeetingAPIToken, cfg.MeetingTimeout)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	ledger := ledgerservice.NewLedgerService(db, logger)
	mentors := mentorservice.NewMentorService(db, cacheRedis, logger)
	booking := bookingservice.NewBookingService(ledger, mentors, db, meetings, publisher, cfg.HostEmail, logger)
	cancellation := cancellationservice.NewCancellationService(ledger, db, publisher, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, cfg.WebhookSecret, ledger, booking, cancellation, mentors)

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
		amqp:   conn,
	}, nil
}

// Run запускает HTTP-сервер и корректно останавливает его при отмене контекста.
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
		a.db.DB.Close()
		a.amqp.Close()
		return err
	}
}
