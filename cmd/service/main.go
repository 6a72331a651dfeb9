package main

import (
	"context"
	"log"

	"center-booking-service/internal/models/config"
	"center-booking-service/internal/notification"
	"center-booking-service/internal/repository"
	"center-booking-service/internal/repository/record"
	"center-booking-service/internal/repository/schedule"
	"center-booking-service/internal/repository/section"
	"center-booking-service/internal/repository/subscription"
	"center-booking-service/internal/repository/user"
	"center-booking-service/internal/service"
	booking_service "center-booking-service/internal/service/booking"
	schedule_service "center-booking-service/internal/service/schedule"
	subscription_service "center-booking-service/internal/service/subscription"
	"center-booking-service/internal/worker"
	database "center-booking-service/pkg"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// Конфигурацию загружаем до сборки графа зависимостей
	if err := config.Load(); err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	app := fx.New(
		fx.Provide(
			newLogger,
			newDatabase,

			user.NewUserRepository,
			section.NewSectionRepository,
			subscription.NewSubscriptionRepository,
			schedule.NewScheduleRepository,
			record.NewRecordRepository,

			notification.NewTelegramDispatcher,

			subscription_service.NewSubscriptionService,
			schedule_service.NewScheduleService,
			booking_service.NewBookingService,
		),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Invoke(runWorkers),
	)

	app.Run()
}

func newLogger() (*zap.Logger, error) {
	if config.AppConfig.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newDatabase(lc fx.Lifecycle, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := database.NewPostgres()
	if err != nil {
		return nil, err
	}

	if err := database.RunMigrations(db, "migrations"); err != nil {
		return nil, err
	}

	cfg := config.AppConfig.Database
	logger.Info("connected to postgres",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("db", cfg.Name))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("closing database connection")
			return db.Close()
		},
	})

	return db, nil
}

// runWorkers запускает фоновые задачи и останавливает их на shutdown
func runWorkers(
	lc fx.Lifecycle,
	subscriptionService service.SubscriptionService,
	recordRepo repository.RecordRepository,
	userRepo repository.UserRepository,
	dispatcher service.NotificationDispatcher,
	logger *zap.Logger,
) {
	cfg := config.AppConfig.Workers

	expiry := worker.NewExpirySweepWorker(subscriptionService, cfg.ExpirySweepInterval, logger)
	reminder := worker.NewReminderWorker(recordRepo, userRepo, dispatcher, cfg.ReminderInterval, cfg.ReminderHorizon, logger)

	workerCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go expiry.Start(workerCtx)
			go reminder.Start(workerCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return nil
		},
	})
}
