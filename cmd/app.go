package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/expense-reporting/internal"
	"github.com/frahmantamala/expense-reporting/internal/approval"
	approvalPostgres "github.com/frahmantamala/expense-reporting/internal/approval/postgres"
	"github.com/frahmantamala/expense-reporting/internal/auth"
	authPostgres "github.com/frahmantamala/expense-reporting/internal/auth/postgres"
	"github.com/frahmantamala/expense-reporting/internal/category"
	categoryPostgres "github.com/frahmantamala/expense-reporting/internal/category/postgres"
	"github.com/frahmantamala/expense-reporting/internal/core/database"
	"github.com/frahmantamala/expense-reporting/internal/core/events"
	"github.com/frahmantamala/expense-reporting/internal/expense"
	expensePostgres "github.com/frahmantamala/expense-reporting/internal/expense/postgres"
	"github.com/frahmantamala/expense-reporting/internal/notification"
	notificationPostgres "github.com/frahmantamala/expense-reporting/internal/notification/postgres"
	"github.com/frahmantamala/expense-reporting/internal/ocr"
	"github.com/frahmantamala/expense-reporting/internal/realtime"
	"github.com/frahmantamala/expense-reporting/internal/refund"
	refundPostgres "github.com/frahmantamala/expense-reporting/internal/refund/postgres"
	"github.com/frahmantamala/expense-reporting/internal/report"
	reportPostgres "github.com/frahmantamala/expense-reporting/internal/report/postgres"
	"github.com/frahmantamala/expense-reporting/internal/statistics"
	statisticsPostgres "github.com/frahmantamala/expense-reporting/internal/statistics/postgres"
	"github.com/frahmantamala/expense-reporting/internal/storage"
	"github.com/frahmantamala/expense-reporting/internal/transport"
	"github.com/frahmantamala/expense-reporting/internal/transport/rest"
	"github.com/frahmantamala/expense-reporting/internal/trip"
	tripPostgres "github.com/frahmantamala/expense-reporting/internal/trip/postgres"
	"github.com/frahmantamala/expense-reporting/internal/user"
	userPostgres "github.com/frahmantamala/expense-reporting/internal/user/postgres"
)

// Dependencies is the process wide object graph shared by the server and the CLI commands.
type Dependencies struct {
	Config     *internal.Config
	Conns      *database.Connections
	Redis      *redis.Client
	EventBus   *events.EventBus
	Hub        *realtime.Hub
	Subscriber *realtime.RedisSubscriber
	Dispatcher *notification.Dispatcher
	Services   Services
	Logger     *slog.Logger
}

type Services struct {
	Auth         *auth.Service
	User         *user.Service
	Category     *category.Service
	Expense      *expense.Service
	Report       *report.Service
	Approval     *approval.Service
	Trip         *trip.Service
	Refund       *refund.Service
	Notification *notification.Service
	Statistics   *statistics.Service
}

func initializeDependencies(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (*Dependencies, error) {
	conns, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps := &Dependencies{
		Config:   cfg,
		Conns:    conns,
		EventBus: events.NewEventBus(logger),
		Hub:      realtime.NewHub(logger),
		Logger:   logger,
	}

	var pusher notification.Pusher = realtime.NewLocalPusher(deps.Hub)
	if cfg.Redis.Enabled {
		client, err := realtime.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			conns.Close()
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		deps.Redis = client
		pusher = realtime.NewRedisPublisher(client, cfg.Redis.Channel)
		deps.Subscriber = realtime.NewRedisSubscriber(client, cfg.Redis.Channel, deps.Hub, logger)
	}

	deps.Dispatcher = notification.NewDispatcher(notification.DispatcherConfig{
		Workers:   cfg.Notification.Workers,
		QueueSize: cfg.Notification.QueueSize,
	}, pusher, logger)

	receipts, err := newReceiptStore(ctx, cfg.Storage, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}

	deps.Services = buildServices(cfg, conns, deps.EventBus, deps.Dispatcher, receipts, newExtractor(ctx, cfg.OCR, logger), logger)

	notification.NewEventHandler(deps.Services.Notification, logger).RegisterEventHandlers(deps.EventBus)

	return deps, nil
}

func buildServices(
	cfg *internal.Config,
	conns *database.Connections,
	bus *events.EventBus,
	dispatcher *notification.Dispatcher,
	receipts *storage.Receipts,
	extractor ocr.Extractor,
	logger *slog.Logger,
) Services {
	txManager := database.NewTransactionManager(conns.Gorm)

	userRepo := userPostgres.NewUserRepository(conns.Gorm)
	categoryRepo := categoryPostgres.NewCategoryRepository(conns.Gorm)
	expenseRepo := expensePostgres.NewExpenseRepository(conns.Gorm)
	reportRepo := reportPostgres.NewReportRepository(conns.Gorm)
	tripRepo := tripPostgres.NewTripRepository(conns.Gorm)
	refundRepo := refundPostgres.NewRefundRepository(conns.Gorm)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)

	categoryService := category.NewService(categoryRepo, logger)
	reportService := report.NewService(reportRepo, expenseRepo, userRepo, categoryRepo, tripRepo, txManager, logger)

	return Services{
		Auth: auth.NewService(authPostgres.NewRepository(conns.Gorm), tokens, cfg.Security.BCryptCost, logger).
			WithResetTokenTTL(cfg.Security.ResetTokenDuration),
		User:         user.NewService(userRepo, cfg.Security.BCryptCost, logger),
		Category:     categoryService,
		Expense:      expense.NewService(expenseRepo, categoryService, tripRepo, reportRepo, receipts, extractor, logger),
		Report:       reportService,
		Approval:     approval.NewService(approvalPostgres.NewApprovalRepository(conns.Gorm), reportRepo, expenseRepo, txManager, bus, logger),
		Trip:         trip.NewService(tripRepo, reportRepo, refundRepo, reportService, txManager, bus, cfg.Refund.DueDays, logger),
		Refund:       refund.NewService(refundRepo, userRepo, tripRepo, txManager, bus, logger),
		Notification: notification.NewService(notificationPostgres.NewNotificationRepository(conns.Gorm), dispatcher, logger),
		Statistics:   statistics.NewService(statisticsPostgres.NewStatisticsRepository(conns.SQLX), logger),
	}
}

func newReceiptStore(ctx context.Context, cfg internal.StorageConfig, logger *slog.Logger) (*storage.Receipts, error) {
	var store storage.Store
	switch cfg.Driver {
	case internal.StorageDriverGCS:
		gcs, err := storage.NewGCSStore(ctx, cfg.Bucket, cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gcs storage: %w", err)
		}
		store = gcs
	default:
		local, err := storage.NewLocalStore(cfg.LocalDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		store = local
	}
	return storage.NewReceipts(store, logger), nil
}

// newExtractor falls back to the mock extractor when Vision is disabled or unavailable.
func newExtractor(ctx context.Context, cfg internal.OCRConfig, logger *slog.Logger) ocr.Extractor {
	if !cfg.Enabled {
		return ocr.NewMockExtractor()
	}
	extractor, err := ocr.NewVisionExtractor(ctx, cfg.CredentialsFile, cfg.Timeout, logger)
	if err != nil {
		logger.Warn("vision ocr unavailable, using mock extractor", "error", err)
		return ocr.NewMockExtractor()
	}
	return extractor
}

func (d *Dependencies) handlers() rest.Handlers {
	base := transport.NewBaseHandler(d.Logger)

	checks := map[string]rest.Check{"database": rest.DatabaseCheck(d.Conns.SQLX)}
	if d.Redis != nil {
		checks["redis"] = rest.RedisCheck(d.Redis)
	}

	s := d.Services
	return rest.Handlers{
		Health:       rest.NewHealthHandler(checks),
		Auth:         auth.NewHandler(base, s.Auth, !d.Config.IsProduction()),
		User:         user.NewHandler(base, s.User),
		Category:     category.NewHandler(base, s.Category),
		Expense:      expense.NewHandler(base, s.Expense),
		Report:       report.NewHandler(base, s.Report),
		Approval:     approval.NewHandler(base, s.Approval),
		Trip:         trip.NewHandler(base, s.Trip),
		Refund:       refund.NewHandler(base, s.Refund),
		Notification: notification.NewHandler(base, s.Notification),
		Statistics:   statistics.NewHandler(base, s.Statistics),
		Realtime:     realtime.NewHandler(base, d.Hub, s.Auth),
	}
}

// Close releases the connections in reverse order of acquisition.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
	}
	if err := d.Conns.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}
