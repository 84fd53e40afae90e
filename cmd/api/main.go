package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/forrajeria-backend/api/controllers"
	"github.com/angelmondragon/forrajeria-backend/api/routes"
	"github.com/angelmondragon/forrajeria-backend/internal/auth"
	"github.com/angelmondragon/forrajeria-backend/internal/cart"
	"github.com/angelmondragon/forrajeria-backend/internal/catalog"
	"github.com/angelmondragon/forrajeria-backend/internal/checkout"
	"github.com/angelmondragon/forrajeria-backend/internal/checkout/helpers"
	"github.com/angelmondragon/forrajeria-backend/internal/customers"
	"github.com/angelmondragon/forrajeria-backend/internal/docstore"
	"github.com/angelmondragon/forrajeria-backend/internal/localstore"
	"github.com/angelmondragon/forrajeria-backend/internal/orders"
	"github.com/angelmondragon/forrajeria-backend/internal/session"
	"github.com/angelmondragon/forrajeria-backend/pkg/config"
	"github.com/angelmondragon/forrajeria-backend/pkg/db"
	"github.com/angelmondragon/forrajeria-backend/pkg/firestore"
	"github.com/angelmondragon/forrajeria-backend/pkg/instance"
	"github.com/angelmondragon/forrajeria-backend/pkg/logger"
	"github.com/angelmondragon/forrajeria-backend/pkg/metrics"
	"github.com/angelmondragon/forrajeria-backend/pkg/migrate"
	"github.com/angelmondragon/forrajeria-backend/pkg/pubsub"
	"github.com/angelmondragon/forrajeria-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i].Close())
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	closers = append(closers, redisClient)

	redisStore, err := localstore.NewRedis(redisClient, cfg.JWT.SessionTTL())
	if err != nil {
		return err
	}
	var local localstore.Store = redisStore
	if !cfg.FeatureFlags.CartPushSync {
		local = localstore.WithoutNotifications(redisStore)
	}

	store, storeCloser, err := openDocStore(ctx, cfg, logg)
	if err != nil {
		return err
	}
	closers = append(closers, storeCloser)

	readiness := map[string]controllers.Pinger{"store": store}
	storefrontMetrics := metrics.NewStorefrontMetrics(prometheus.DefaultRegisterer)

	checkoutParams := checkout.ServiceParams{
		Orders:  store,
		Policy:  helpers.PolicyFromConfig(cfg.Storefront),
		Metrics: storefrontMetrics,
		Logger:  logg,
	}
	ordersParams := orders.ServiceParams{
		Store:         store,
		Logger:        logg,
		RepeatCeiling: cfg.Storefront.RepeatOrderStockLimit,
		ValidateStock: cfg.Storefront.RepeatOrderValidate,
	}
	if cfg.PubSub.Enabled() {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return fmt.Errorf("bootstrap pubsub: %w", err)
		}
		closers = append(closers, psClient)
		readiness["pubsub"] = psClient

		publisher, err := pubsub.NewOrderPublisher(psClient.OrdersPublisher())
		if err != nil {
			return err
		}
		checkoutParams.Publisher = publisher
		ordersParams.Publisher = publisher
	}

	sessions, err := session.NewStore(local, redisClient)
	if err != nil {
		return err
	}
	carts, err := cart.NewProvider(local, redisClient, cart.WithLogger(logg), cart.WithMetrics(storefrontMetrics))
	if err != nil {
		return err
	}

	catalogService, err := catalog.NewService(store)
	if err != nil {
		return err
	}
	ordersParams.Catalog = catalogService

	customerService, err := customers.NewService(store)
	if err != nil {
		return err
	}
	authService, err := auth.NewService(auth.ServiceParams{
		Customers: customerService,
		Sessions:  sessions,
		Carts:     local,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		return fmt.Errorf("create auth service: %w", err)
	}
	checkoutService, err := checkout.NewService(checkoutParams)
	if err != nil {
		return fmt.Errorf("create checkout service: %w", err)
	}
	ordersService, err := orders.NewService(ordersParams)
	if err != nil {
		return fmt.Errorf("create orders service: %w", err)
	}

	addr := ":" + cfg.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"instance":  instance.GetID(),
		"doc_store": cfg.FeatureFlags.DocStoreDriver,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, readiness, redisClient, sessions,
			authService, catalogService, carts, checkoutService, ordersService),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

// openDocStore connects the configured document store driver.
func openDocStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (docstore.Store, io.Closer, error) {
	switch cfg.FeatureFlags.DocStoreDriver {
	case config.DocStoreSQL:
		client, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap database: %w", err)
		}
		if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("run dev migrations: %w", err)
		}
		store, err := docstore.NewSQLStore(client)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client, nil
	default:
		client, err := firestore.New(ctx, cfg.GCP, logg)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap firestore: %w", err)
		}
		store, err := docstore.NewFirestoreStore(client.Raw(), cfg.Firestore)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client, nil
	}
}
