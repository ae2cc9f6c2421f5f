package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/wholesalehub-backend/api/controllers"
	invoicecontrollers "github.com/angelmondragon/wholesalehub-backend/api/controllers/invoices"
	ordercontrollers "github.com/angelmondragon/wholesalehub-backend/api/controllers/orders"
	"github.com/angelmondragon/wholesalehub-backend/api/middleware"
	"github.com/angelmondragon/wholesalehub-backend/internal/auth"
	"github.com/angelmondragon/wholesalehub-backend/internal/invoices"
	"github.com/angelmondragon/wholesalehub-backend/internal/notifications"
	"github.com/angelmondragon/wholesalehub-backend/internal/orders"
	"github.com/angelmondragon/wholesalehub-backend/internal/payments"
	"github.com/angelmondragon/wholesalehub-backend/internal/products"
	"github.com/angelmondragon/wholesalehub-backend/internal/reports"
	"github.com/angelmondragon/wholesalehub-backend/pkg/auth/session"
	"github.com/angelmondragon/wholesalehub-backend/pkg/config"
	"github.com/angelmondragon/wholesalehub-backend/pkg/enums"
	"github.com/angelmondragon/wholesalehub-backend/pkg/logger"
	"github.com/angelmondragon/wholesalehub-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/wholesalehub-backend/pkg/redis"
)

// rateCounter backs the idempotency store and the rate limiter.
type rateCounter interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(policy, dimension, subject string) string
}

// Deps is everything the HTTP surface needs.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Sessions      session.AccessSessionChecker
	Redis         rateCounter
	Ready         map[string]controllers.Pinger
	Gatherer      prometheus.Gatherer
	HTTPMetrics   *metrics.HTTP
	Auth          auth.Service
	Products      products.Service
	Orders        orders.Service
	Dashboard     orders.DashboardService
	Reports       reports.Service
	Invoices      invoices.Service
	Payments      payments.Service
	Notifications notifications.Service
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		d.HTTPMetrics.Middleware,
	)

	limits := cfg.RateLimit
	loginPolicy := middleware.NewRateLimitPolicy("login", limits.LoginWindow).
		PerIP(limits.LoginIPLimit).
		PerEmail(limits.LoginEmailLimit)
	registerPolicy := middleware.NewRateLimitPolicy("register", limits.RegisterWindow).
		PerIP(limits.RegisterIPLimit).
		PerEmail(limits.RegisterEmailLimit)
	// Signature checks are the only gate on settling an invoice.
	verifyPolicy := middleware.NewRateLimitPolicy("payment_verify", limits.VerifyWindow).
		PerIP(limits.VerifyIPLimit).
		PerUser(limits.VerifyUserLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Ready))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))

	authenticated := middleware.Auth(cfg.JWT, d.Sessions, logg)
	idempotent := middleware.Idempotency(d.Redis, logg)
	retailer := middleware.RequireRole(logg, enums.RoleRetailer)
	wholesaler := middleware.RequireRole(logg, enums.RoleWholesaler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(cfg.App.RequestTimeout))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(registerPolicy, d.Redis, logg), idempotent).Post("/register", controllers.AuthRegister(d.Auth, logg))
			r.With(middleware.RateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Auth, cfg.JWT, logg))
			r.With(authenticated).Post("/logout", controllers.AuthLogout(d.Auth, logg))
			r.With(authenticated).Get("/me", controllers.AuthMe(d.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticated, idempotent)

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListProducts(d.Products, logg))
				r.Get("/{productId}", controllers.GetProduct(d.Products, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(retailer).Post("/", ordercontrollers.Create(d.Orders, logg))
				r.Get("/", ordercontrollers.List(d.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(d.Orders, logg))
				r.With(wholesaler).Put("/{orderId}/status", ordercontrollers.UpdateStatus(d.Orders, logg))
			})

			r.Route("/invoices", func(r chi.Router) {
				r.With(wholesaler).Post("/order/{orderId}", invoicecontrollers.CreateForOrder(d.Invoices, logg))
				r.With(retailer).Get("/", invoicecontrollers.ListForRetailer(d.Invoices, logg))
				r.With(wholesaler).Get("/wholesaler", invoicecontrollers.ListForWholesaler(d.Invoices, logg))
				r.Get("/{invoiceId}", invoicecontrollers.Detail(d.Invoices, logg))
				r.Get("/{invoiceId}/pdf", invoicecontrollers.PDF(d.Invoices, logg))
			})

			r.Route("/payments", func(r chi.Router) {
				r.With(retailer).Post("/intents", controllers.CreatePaymentIntent(d.Payments, logg))
				r.With(middleware.RateLimit(verifyPolicy, d.Redis, logg)).Post("/verify", controllers.VerifyPayment(d.Payments, logg))
			})

			r.With(wholesaler).Get("/dashboard/overview", controllers.WholesalerOverview(d.Dashboard, logg))
			r.With(retailer).Get("/retailer/overview", controllers.RetailerOverview(d.Dashboard, logg))

			r.Route("/reports", func(r chi.Router) {
				r.Use(wholesaler)
				r.Get("/sales", controllers.SalesReport(d.Reports, logg))
				r.Get("/inventory", controllers.InventoryReport(d.Reports, logg))
				r.Get("/customers", controllers.CustomersReport(d.Reports, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(d.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(d.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(d.Notifications, logg))
			})
		})
	})

	return r
}
