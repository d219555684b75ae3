package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"restaurant-ordering/internal/adapter/db"
	"restaurant-ordering/internal/adapter/memory"
	"restaurant-ordering/internal/cart"
	"restaurant-ordering/internal/config"
	"restaurant-ordering/internal/database"
	"restaurant-ordering/internal/httpapi"
	"restaurant-ordering/internal/kvstore"
	"restaurant-ordering/internal/ledger"
	"restaurant-ordering/internal/logger"
	"restaurant-ordering/internal/menu"
	"restaurant-ordering/internal/messaging"
	"restaurant-ordering/internal/models"
	"restaurant-ordering/internal/notification"
	"restaurant-ordering/internal/services/kitchen"
	"restaurant-ordering/internal/services/order"
	"restaurant-ordering/internal/services/tracking"
	"restaurant-ordering/internal/tables"
)

// repository is the order, station and invoice store: PostgreSQL when
// configured, memory otherwise
type repository interface {
	order.Repository
	kitchen.Store
	tracking.Reader
}

func main() {
	var (
		mode              = flag.String("mode", "api-server", "Service mode (api-server, kitchen-worker, notification-subscriber)")
		configPath        = flag.String("config", "config.yaml", "Path to the YAML configuration file")
		port              = flag.Int("port", 0, "HTTP port, overrides the config file")
		maxConcurrent     = flag.Int("max-concurrent", 0, "Maximum concurrent HTTP requests, overrides the config file")
		workerName        = flag.String("worker-name", "", "Station name (required for kitchen-worker mode)")
		orderTypes        = flag.String("order-types", "", "Comma-separated order types the station cooks")
		heartbeatInterval = flag.Int("heartbeat-interval", 30, "Heartbeat interval in seconds")
		prefetch          = flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *maxConcurrent > 0 {
		cfg.Server.MaxConcurrent = *maxConcurrent
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("service_started", fmt.Sprintf("Starting %s", *mode), requestID, map[string]interface{}{
		"mode":           *mode,
		"port":           cfg.Server.Port,
		"max_concurrent": cfg.Server.MaxConcurrent,
		"database":       cfg.DatabaseEnabled(),
		"rabbitmq":       cfg.RabbitMQEnabled(),
		"redis":          cfg.RedisEnabled(),
	})

	heartbeat := time.Duration(*heartbeatInterval) * time.Second

	switch *mode {
	case "api-server":
		err = runAPIServer(ctx, cfg, log, heartbeat)
	case "kitchen-worker":
		if *workerName == "" {
			log.Error("validation_failed", "worker-name is required for kitchen-worker mode", requestID, nil, nil)
			os.Exit(1)
		}
		err = runKitchenWorker(ctx, cfg, log, kitchen.Options{
			Name:              *workerName,
			OrderTypes:        models.ParseOrderTypes(*orderTypes),
			HeartbeatInterval: heartbeat,
			CookingTimes:      cookingTimes(cfg),
		}, *prefetch)
	case "notification-subscriber":
		err = runNotificationSubscriber(ctx, cfg, log)
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	if err != nil {
		log.Error("service_failed", fmt.Sprintf("%s failed", *mode), requestID, err, nil)
		os.Exit(1)
	}
	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

func cookingTimes(cfg *config.Config) models.CookingTimes {
	return models.CookingTimes{
		models.DineIn:   cfg.Kitchen.DineInCookTime,
		models.Takeout:  cfg.Kitchen.TakeoutCookTime,
		models.Delivery: cfg.Kitchen.DeliveryCookTime,
	}
}

// openRepository connects to PostgreSQL and applies migrations, or falls back to memory
func openRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository, httpapi.HealthCheck, func(), error) {
	if !cfg.DatabaseEnabled() {
		log.Warn("db_disabled", "No database configured, orders are kept in memory", "startup", nil)
		return memory.NewRepository(), nil, func() {}, nil
	}

	conn, err := database.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := conn.RunMigrations(ctx); err != nil {
		conn.Close()
		return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db.NewRepository(conn), conn.Ping, conn.Close, nil
}

// openKVStore connects to Redis, or falls back to memory
func openKVStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (kvstore.Store, httpapi.HealthCheck, func(), error) {
	if !cfg.RedisEnabled() {
		log.Warn("redis_disabled", "No Redis configured, ledger and carts are kept in memory", "startup", nil)
		return kvstore.NewMemory(), nil, func() {}, nil
	}

	client, err := kvstore.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	log.Info("redis_connected", "Connected to Redis", "startup", map[string]interface{}{
		"addr":       cfg.Redis.Addr,
		"key_prefix": cfg.Redis.KeyPrefix,
	})
	health := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return kvstore.NewRedis(client, cfg.Redis.KeyPrefix), health, func() { _ = client.Close() }, nil
}

// ledgerSync applies kitchen status updates to the order ledger
func ledgerSync(l *ledger.Ledger, log *logger.Logger) notification.Handler {
	return func(ctx context.Context, update *models.StatusUpdateMessage) error {
		status, err := models.ParseOrderStatus(update.NewStatus)
		if err != nil {
			log.Warn("status_update_ignored", "Unknown status in update", "", map[string]interface{}{
				"order_number": update.OrderNumber,
				"new_status":   update.NewStatus,
			})
			return nil
		}
		if _, err := l.UpdateStatus(ctx, update.OrderNumber, status, update.ChangedBy, update.Timestamp); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				log.Warn("status_update_ignored", "Order not in ledger", "", map[string]interface{}{
					"order_number": update.OrderNumber,
				})
				return nil
			}
			return err
		}
		return nil
	}
}

// repositorySync mirrors status updates made by remote stations into the
// in-memory repository, so tracking works without a shared database
func repositorySync(repo repository, log *logger.Logger) notification.Handler {
	return func(ctx context.Context, update *models.StatusUpdateMessage) error {
		status, err := models.ParseOrderStatus(update.NewStatus)
		if err != nil {
			return nil
		}
		err = repo.UpdateOrderStatus(ctx, update.OrderNumber, status, update.ChangedBy, "", update.Timestamp)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		if status == models.StatusCooking {
			// remote stations are unknown to this process until they cook something
			if err := repo.RegisterStation(ctx, update.ChangedBy, nil); err != nil {
				log.Warn("station_sync_failed", "Failed to record remote station", "", map[string]interface{}{
					"worker_name":  update.ChangedBy,
					"order_number": update.OrderNumber,
					"error":        err.Error(),
				})
			}
		}
		if status == models.StatusReady {
			if err := repo.StationHeartbeat(ctx, update.ChangedBy, 1); err != nil {
				log.Warn("station_sync_failed", "Failed to count order for remote station", "", map[string]interface{}{
					"worker_name":  update.ChangedBy,
					"order_number": update.OrderNumber,
					"error":        err.Error(),
				})
			}
		}
		return nil
	}
}

// runAPIServer serves the ordering API. Without RabbitMQ the kitchen runs in-process.
func runAPIServer(ctx context.Context, cfg *config.Config, log *logger.Logger, heartbeat time.Duration) error {
	requestID := logger.GenerateRequestID()

	repo, dbHealth, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	kv, kvHealth, closeKV, err := openKVStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeKV()

	catalog, err := menu.NewCatalog(menu.Seed())
	if err != nil {
		return err
	}
	tableRegistry, err := tables.NewRegistry(tables.Seed())
	if err != nil {
		return err
	}
	orderLedger := ledger.New(kv, cfg.Ledger.PrimaryKey, cfg.Ledger.MirrorKey, log)
	notifications := notification.NewList(0)

	handlers := []notification.Handler{ledgerSync(orderLedger, log)}
	health := map[string]httpapi.HealthCheck{}
	if dbHealth != nil {
		health["database"] = dbHealth
	}
	if kvHealth != nil {
		health["redis"] = kvHealth
	}

	g, gctx := errgroup.WithContext(ctx)

	var (
		kitchenPublisher order.KitchenPublisher
		local            *kitchen.Local
	)
	if cfg.RabbitMQEnabled() {
		conn, err := messaging.New(ctx, cfg.RabbitMQURL(), log)
		if err != nil {
			return fmt.Errorf("failed to initialize messaging: %w", err)
		}
		defer conn.Close()
		kitchenPublisher = messaging.NewPublisher(conn, log)
		health["rabbitmq"] = func(context.Context) error {
			if conn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}

		feedConn, err := messaging.New(ctx, cfg.RabbitMQURL(), log)
		if err != nil {
			return fmt.Errorf("failed to initialize notification feed: %w", err)
		}
		if !cfg.DatabaseEnabled() {
			handlers = append(handlers, repositorySync(repo, log))
		}
		handlers = append(handlers, notification.Feed(notifications))
		feed := notification.NewSubscriber(messaging.NewFeedConsumer(feedConn, log, "api-feed-"+uuid.NewString()[:8]), log, handlers...)
		g.Go(func() error { return feed.Start(gctx) })
	} else {
		log.Warn("rabbitmq_disabled", "No RabbitMQ configured, orders are cooked in-process", requestID, nil)
		handlers = append(handlers, notification.Feed(notifications))
		dispatcher := notification.NewSubscriber(nil, log, handlers...)
		worker := kitchen.NewWorker(kitchen.Options{
			Name:              "local-" + uuid.NewString()[:8],
			HeartbeatInterval: heartbeat,
			CookingTimes:      cookingTimes(cfg),
		}, repo, kitchen.StatusPublisherFunc(dispatcher.Dispatch), log)
		local = kitchen.NewLocal(gctx, worker)
		kitchenPublisher = local
		g.Go(func() error { return worker.Start(gctx) })
	}

	carts := cart.NewRegistry(kv, log, cfg.Cart.IdleTTL)
	g.Go(func() error { return carts.Run(gctx) })

	orders := order.NewService(repo, kitchenPublisher, orderLedger, tableRegistry, catalog, log)
	tracker := tracking.NewService(repo, cookingTimes(cfg), heartbeat, log)

	api := httpapi.NewServer(httpapi.Deps{
		Catalog:       catalog,
		Carts:         carts,
		Orders:        orders,
		Tracking:      tracker,
		Ledger:        orderLedger,
		Tables:        tableRegistry,
		Notifications: notifications,
		Health:        health,
		MaxConcurrent: cfg.Server.MaxConcurrent,
	}, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info("service_started", fmt.Sprintf("API server listening on port %d", cfg.Server.Port), requestID, map[string]interface{}{
			"port":           cfg.Server.Port,
			"max_concurrent": cfg.Server.MaxConcurrent,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("graceful_shutdown", "Shutting down HTTP server", requestID, nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if local != nil {
		local.Wait()
	}
	return err
}

// runKitchenWorker runs one station consuming the queues for its order types
func runKitchenWorker(ctx context.Context, cfg *config.Config, log *logger.Logger, opts kitchen.Options, prefetch int) error {
	if !cfg.RabbitMQEnabled() {
		return errors.New("kitchen-worker mode requires RabbitMQ")
	}

	repo, _, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	pubConn, err := messaging.New(ctx, cfg.RabbitMQURL(), log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	defer pubConn.Close()

	var sources []kitchen.Source
	for _, queue := range messaging.KitchenQueuesFor(opts.OrderTypes) {
		// one connection per queue so reconnects do not interfere
		conn, err := messaging.New(ctx, cfg.RabbitMQURL(), log)
		if err != nil {
			return fmt.Errorf("failed to connect consumer for %s: %w", queue, err)
		}
		sources = append(sources, messaging.NewConsumer(conn, log, queue, opts.Name+"@"+queue, prefetch))
	}

	worker := kitchen.NewWorker(opts, repo, messaging.NewPublisher(pubConn, log), log, sources...)
	return worker.Start(ctx)
}

// runNotificationSubscriber prints every status update to stdout
func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if !cfg.RabbitMQEnabled() {
		return errors.New("notification-subscriber mode requires RabbitMQ")
	}

	conn, err := messaging.New(ctx, cfg.RabbitMQURL(), log)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}

	consumer := messaging.NewConsumer(conn, log, messaging.NotificationsQueue, "notification-subscriber", 10)
	subscriber := notification.NewSubscriber(consumer, log, notification.Printer(os.Stdout))
	return subscriber.Start(ctx)
}
