package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/wholesalehub-backend/api/controllers"
	"github.com/angelmondragon/wholesalehub-backend/api/routes"
	"github.com/angelmondragon/wholesalehub-backend/internal/auth"
	"github.com/angelmondragon/wholesalehub-backend/internal/invoices"
	"github.com/angelmondragon/wholesalehub-backend/internal/notifications"
	"github.com/angelmondragon/wholesalehub-backend/internal/orders"
	"github.com/angelmondragon/wholesalehub-backend/internal/payments"
	"github.com/angelmondragon/wholesalehub-backend/internal/products"
	"github.com/angelmondragon/wholesalehub-backend/internal/reports"
	"github.com/angelmondragon/wholesalehub-backend/internal/users"
	"github.com/angelmondragon/wholesalehub-backend/pkg/auth/session"
	"github.com/angelmondragon/wholesalehub-backend/pkg/config"
	"github.com/angelmondragon/wholesalehub-backend/pkg/db"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	"github.com/angelmondragon/wholesalehub-backend/pkg/logger"
	"github.com/angelmondragon/wholesalehub-backend/pkg/metrics"
	"github.com/angelmondragon/wholesalehub-backend/pkg/migrate"
	"github.com/angelmondragon/wholesalehub-backend/pkg/outbox"
	"github.com/angelmondragon/wholesalehub-backend/pkg/razorpay"
	"github.com/angelmondragon/wholesalehub-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	gateway, err := razorpay.NewClient(ctx, cfg.Payments, logg)
	if err != nil {
		logg.Error(ctx, "failed to create payment gateway client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	domainMetrics := metrics.NewDomain(registry)

	deps, err := buildServices(cfg, logg, dbClient, sessionManager, gateway, domainMetrics)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}
	deps.Config = cfg
	deps.Logger = logg
	deps.Sessions = sessionManager
	deps.Redis = redisClient
	deps.Ready = map[string]controllers.Pinger{"database": dbClient, "redis": redisClient}
	deps.Gatherer = registry
	deps.HTTPMetrics = metrics.NewHTTP(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	sessions *session.Manager,
	gatewayClient *razorpay.Client,
	domainMetrics *metrics.Domain,
) (routes.Deps, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	catalog := products.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	invoiceRepo := invoices.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(conn),
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	productService, err := products.NewService(catalog)
	if err != nil {
		return routes.Deps{}, err
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:               orderRepo,
		Products:           catalog,
		TxRunner:           dbClient,
		Outbox:             emitter,
		Logger:             logg,
		Metrics:            domainMetrics,
		AllowClientPricing: cfg.FeatureFlags.AllowClientPricing,
		RestockOnCancel:    cfg.FeatureFlags.RestockOnCancel,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	dashboard, err := orders.NewDashboardService(orderRepo, catalog, cfg.Dashboard.LowStockThreshold)
	if err != nil {
		return routes.Deps{}, err
	}

	reportService, err := reports.NewService(reports.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, err
	}

	currency, err := enums.ParseCurrency(cfg.Invoices.Currency)
	if err != nil {
		return routes.Deps{}, err
	}
	invoiceService, err := invoices.NewService(invoices.ServiceParams{
		Repo:      invoiceRepo,
		Orders:    orderRepo,
		TxRunner:  dbClient,
		Outbox:    emitter,
		Sequencer: invoices.NewSequencer(cfg.DB.IsSQLite()),
		Currency:  currency,
		Logger:    logg,
		Metrics:   domainMetrics,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Invoices: invoiceRepo,
		TxRunner: dbClient,
		Outbox:   emitter,
		Gateway:  payments.NewRazorpayGateway(gatewayClient),
		Secret:   cfg.Payments.KeySecret,
		Logger:   logg,
		Metrics:  domainMetrics,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	inbox, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Auth:          authService,
		Products:      productService,
		Orders:        orderService,
		Dashboard:     dashboard,
		Reports:       reportService,
		Invoices:      invoiceService,
		Payments:      paymentService,
		Notifications: inbox,
	}, nil
}
