package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/martinquesada/tienda-backend/api/controllers"
	webhookcontrollers "github.com/martinquesada/tienda-backend/api/controllers/webhooks"
	"github.com/martinquesada/tienda-backend/api/middleware"
	"github.com/martinquesada/tienda-backend/internal/auth"
	cartsvc "github.com/martinquesada/tienda-backend/internal/cart"
	"github.com/martinquesada/tienda-backend/internal/catalog"
	checkoutsvc "github.com/martinquesada/tienda-backend/internal/checkout"
	emailsvc "github.com/martinquesada/tienda-backend/internal/emails"
	invoicesvc "github.com/martinquesada/tienda-backend/internal/invoices"
	ordersvc "github.com/martinquesada/tienda-backend/internal/orders"
	paymentsvc "github.com/martinquesada/tienda-backend/internal/payments"
	mpwebhook "github.com/martinquesada/tienda-backend/internal/webhooks/mercadopago"
	"github.com/martinquesada/tienda-backend/pkg/auth/session"
	"github.com/martinquesada/tienda-backend/pkg/config"
	"github.com/martinquesada/tienda-backend/pkg/db"
	"github.com/martinquesada/tienda-backend/pkg/logger"
	"github.com/martinquesada/tienda-backend/pkg/metrics"
	"github.com/martinquesada/tienda-backend/pkg/redis"
	"github.com/martinquesada/tienda-backend/pkg/storage/local"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	Storage        local.Pinger
	SessionChecker session.AccessSessionChecker
	Metrics        *prometheus.Registry
	HTTPMetrics    *metrics.HTTPMetrics

	Catalog  catalog.Service
	Cart     cartsvc.Service
	Auth     auth.Service
	Checkout checkoutsvc.Service
	Payments paymentsvc.Service
	Orders   ordersvc.Service
	Invoices invoicesvc.Service
	Emails   emailsvc.Service
	Webhooks mpwebhook.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.App.StoreOrigin),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	requireAuth := middleware.Auth(cfg.JWT, p.SessionChecker, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, p.SessionChecker, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis, p.Storage))
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/mercadopago", webhookcontrollers.MercadoPagoWebhook(p.Webhooks, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).Post("/register", controllers.AuthRegister(p.Auth, logg))
		r.With(requireAuth).Post("/logout", controllers.AuthLogout(p.Auth, logg))
	})

	r.Route("/api/v1/catalog/products", func(r chi.Router) {
		r.Get("/", controllers.CatalogList(p.Catalog, logg))
		r.Get("/{slug}", controllers.CatalogGet(p.Catalog, logg))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.CartToken(logg))
		r.Get("/", controllers.CartFetch(p.Cart, logg))
		r.Post("/items", controllers.CartAddItem(p.Cart, logg))
		r.Patch("/items/{slug}", controllers.CartUpdateItem(p.Cart, logg))
		r.Delete("/items/{slug}", controllers.CartRemoveItem(p.Cart, logg))
		r.Delete("/", controllers.CartClear(p.Cart, logg))
	})

	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(optionalAuth)
		r.Use(middleware.CartToken(logg))
		r.Use(middleware.Idempotency(p.Redis, logg))
		r.Post("/quote", controllers.CheckoutQuote(p.Checkout, logg))
		r.Post("/orders", controllers.CheckoutCreateOrder(p.Checkout, logg))
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Use(middleware.Idempotency(p.Redis, logg))
		r.Post("/preferences", controllers.PaymentCreatePreference(p.Payments, logg))
	})

	r.With(optionalAuth).Get("/api/v1/orders/{key}", controllers.OrderDetail(p.Orders, logg))

	r.With(requireAuth).Get("/api/v1/invoices/{number}/download", controllers.InvoiceDownload(p.Invoices, logg))

	r.Post("/api/v1/emails/order-confirmation", controllers.ResendOrderConfirmation(p.Emails, cfg.Mail, logg))

	return r
}
