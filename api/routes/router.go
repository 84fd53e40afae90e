package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/forrajeria-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/forrajeria-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/forrajeria-backend/api/controllers/orders"
	"github.com/angelmondragon/forrajeria-backend/api/middleware"
	"github.com/angelmondragon/forrajeria-backend/internal/auth"
	"github.com/angelmondragon/forrajeria-backend/internal/cart"
	"github.com/angelmondragon/forrajeria-backend/internal/catalog"
	checkoutsvc "github.com/angelmondragon/forrajeria-backend/internal/checkout"
	"github.com/angelmondragon/forrajeria-backend/internal/orders"
	"github.com/angelmondragon/forrajeria-backend/internal/session"
	"github.com/angelmondragon/forrajeria-backend/pkg/config"
	"github.com/angelmondragon/forrajeria-backend/pkg/logger"
	"github.com/angelmondragon/forrajeria-backend/pkg/redis"
)

type sessionStore interface {
	session.AccessSessionChecker
	Load(ctx context.Context, accessID string) (*session.Record, bool, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	readiness map[string]controllers.Pinger,
	redisClient *redis.Client,
	sessions sessionStore,
	authService auth.Service,
	catalogService catalog.Service,
	carts *cart.Provider,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginPhoneLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterPhoneLimit,
	)

	checks := map[string]controllers.Pinger{}
	for name, dep := range readiness {
		checks[name] = dep
	}
	if redisClient != nil {
		checks["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, checks, logg))
	})
	r.Handle("/metrics", promhttp.Handler())

	idempotent := middleware.Idempotency(redisClient, logg)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			idempotent,
		).Post("/register", controllers.AuthRegister(authService, logg))
		r.With(middleware.Auth(cfg.JWT, sessions, logg)).Post("/logout", controllers.AuthLogout(authService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Get("/catalog", controllers.CatalogList(catalogService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(carts, logg))
			r.Delete("/", cartcontrollers.CartClear(carts, logg))
			r.Get("/events", cartcontrollers.CartEvents(carts, cfg.Storefront.CartSyncInterval, logg))
			r.Post("/items", cartcontrollers.CartAddItem(carts, catalogService, logg))
			r.Patch("/items/{index}", cartcontrollers.CartChangeQuantity(carts, logg))
			r.Delete("/items/{index}", cartcontrollers.CartRemoveItem(carts, logg))
		})

		r.With(idempotent).Post("/checkout", controllers.Checkout(checkoutService, sessions, carts, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(ordersService, logg))
			r.With(idempotent).Post("/{orderId}/repeat", ordercontrollers.Repeat(ordersService, carts, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminKey(cfg.Admin.APIKey, logg))
		r.With(idempotent).Patch("/orders/{orderId}/status", ordercontrollers.AdminUpdateStatus(ordersService, logg))
	})

	return r
}
