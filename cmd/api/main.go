package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fkhayef/cityreports/internal/config"
	"github.com/fkhayef/cityreports/internal/database"
	"github.com/fkhayef/cityreports/internal/imagestore"
	"github.com/fkhayef/cityreports/internal/logger"
	"github.com/fkhayef/cityreports/internal/metrics"
	"github.com/fkhayef/cityreports/internal/notification"
	"github.com/fkhayef/cityreports/internal/report"
	"github.com/fkhayef/cityreports/internal/taskqueue"
	"github.com/fkhayef/cityreports/internal/user"
)

// @title           City Reports API
// @version         1.0
// @description     Citizens file infrastructure reports; administrators triage them and everyone is notified.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	appLogger := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(appLogger)

	appMetrics := metrics.New()
	ctx := context.Background()

	stores, err := openStores(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to open stores", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	// Image storage is optional; without a bucket, image payloads are rejected
	var images report.ImageUploader
	if cfg.Storage.Bucket != "" {
		backend, err := imagestore.NewGCSBackend(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsFile)
		if err != nil {
			appLogger.Error("failed to initialize image storage", "bucket", cfg.Storage.Bucket, "error", err)
			os.Exit(1)
		}
		store := imagestore.New(backend, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
		defer store.Close()
		images = store
		appLogger.Info("image storage enabled", "bucket", cfg.Storage.Bucket)
	}

	queue := taskqueue.New(appLogger,
		taskqueue.WithWorkers(cfg.Tasks.Workers),
		taskqueue.WithQueueSize(cfg.Tasks.QueueSize),
		taskqueue.WithTimeout(cfg.Tasks.Timeout),
		taskqueue.WithMetrics(appMetrics),
	)

	// User feature
	userService := user.NewService(stores.users)
	userHandler := user.NewHandler(userService, appLogger)

	// Notification feature
	notificationService := notification.NewService(stores.notifications,
		notification.WithLogger(appLogger),
		notification.WithMetrics(appMetrics),
		notification.WithFanoutConcurrency(cfg.Workflow.FanoutConcurrency),
	)
	notificationHandler := notification.NewHandler(notificationService, appLogger)

	// Report feature (notifies through the notification service, off-request via the queue)
	reportService := report.NewService(stores.reports, notificationService, queue,
		report.WithLogger(appLogger),
		report.WithMetrics(appMetrics),
		report.WithNotifyOnStatusChange(cfg.Workflow.NotifyOnStatusChange),
	)
	reportHandler := report.NewHandler(reportService, images, appLogger, cfg.MaxBodyBytes)

	router, err := newRouter(cfg, appMetrics, appLogger, userService, routes{
		users:         userHandler,
		reports:       reportHandler,
		notifications: notificationHandler,
	})
	if err != nil {
		appLogger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("server starting",
			"port", cfg.Port,
			"store", cfg.StoreDriver,
			"dev_auth", cfg.Auth.DevAuth,
			"notify_on_status_change", cfg.Workflow.NotifyOnStatusChange,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
	}
	// Pending admin alerts get the rest of the shutdown budget
	if err := queue.Close(shutdownCtx); err != nil {
		appLogger.Error("task queue did not drain", "error", err)
	}

	appLogger.Info("server stopped")
}

type storeSet struct {
	users         user.Repository
	reports       report.Repository
	notifications notification.Repository
	db            *sql.DB
}

func (s *storeSet) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// openStores builds the repositories for the configured driver
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storeSet, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		users := user.NewInMemory()
		for _, id := range cfg.Auth.DevAdminIDs {
			users.Put(&user.User{ID: id, Name: id, Role: user.RoleAdmin})
		}
		logger.Warn("using in-memory stores; data is lost on restart", "admins", len(cfg.Auth.DevAdminIDs))
		return &storeSet{
			users:         users,
			reports:       report.NewInMemory(),
			notifications: notification.NewInMemory(users),
		}, nil

	case config.StoreDriverPostgres:
		db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL, database.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLife,
		})
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("connected to database")
		return &storeSet{
			users:         user.NewRepository(db),
			reports:       report.NewRepository(db),
			notifications: notification.NewRepository(db),
			db:            db,
		}, nil

	default:
		return nil, errors.New("unknown store driver " + cfg.StoreDriver)
	}
}
