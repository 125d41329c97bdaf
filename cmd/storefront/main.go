package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/joao-fontenele/campuseats/internal/badge"
	"github.com/joao-fontenele/campuseats/internal/cart"
	"github.com/joao-fontenele/campuseats/internal/config"
	"github.com/joao-fontenele/campuseats/internal/httpapi"
	"github.com/joao-fontenele/campuseats/internal/menu"
	"github.com/joao-fontenele/campuseats/internal/messaging"
	"github.com/joao-fontenele/campuseats/internal/orders"
	"github.com/joao-fontenele/campuseats/internal/pricing"
	"github.com/joao-fontenele/campuseats/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(logger); err != nil {
		logger.Error("storefront stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("8080")
	if err != nil {
		return err
	}
	if err := cfg.RequirePostgres(); err != nil {
		return err
	}

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    "storefront",
		ServiceVersion: cfg.ServiceVersion,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() { _ = providers.Shutdown(context.Background()) }()

	metrics, err := telemetry.NewStorefrontMetrics()
	if err != nil {
		return err
	}

	unit, err := pricing.ParseCurrency(cfg.Currency)
	if err != nil {
		return err
	}
	pricer := pricing.NewPricer(unit)

	db, err := telemetry.OpenDB(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var (
		badgeCache badge.Cache
		mirror     cart.CountMirror
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		client := redis.NewClient(opts)
		defer func() { _ = client.Close() }()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, cart badge served from database", "error", err)
		}
		cache := badge.NewRedisCache(client, badge.DefaultTTL)
		badgeCache, mirror = cache, cache
	}

	var publisher orders.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic)
		defer func() { _ = producer.Close() }()
		publisher = producer
	}

	menuRepo := menu.NewMenuRepository(db)
	orderRepo := orders.NewOrderRepository(db)

	cartStore := cart.NewStore(cart.NewCartRepository(db), pricer, mirror, metrics, logger)
	checkout := orders.NewCheckoutService(orderRepo, pricer, publisher, mirror, metrics, logger)
	machine := orders.NewStatusMachine(orderRepo, menuRepo, publisher, metrics, logger)

	cartHandler := cart.NewHandler(cartStore, logger)
	badgeHandler := badge.NewHandler(badge.NewService(badgeCache, cartStore, logger), logger)
	ordersHandler := orders.NewHandler(checkout, machine, orderRepo, menuRepo, logger)
	menuHandler := menu.NewHandler(menuRepo, logger)

	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(httpapi.RequireUser(logger, h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/cart/add", authed(cartHandler.HandleAdd))
	mux.HandleFunc("PATCH /api/cart/{lineId}", authed(cartHandler.HandleSetQuantity))
	mux.HandleFunc("DELETE /api/cart/remove/{lineId}", authed(cartHandler.HandleRemove))
	mux.HandleFunc("GET /api/cart", authed(cartHandler.HandleList))
	mux.HandleFunc("GET /api/cart/badge", authed(badgeHandler.HandleCount))
	mux.HandleFunc("POST /api/order/checkout", authed(ordersHandler.HandleCheckout))
	mux.HandleFunc("GET /api/orders", authed(ordersHandler.HandleListMine))
	mux.HandleFunc("GET /api/orders/{id}", authed(ordersHandler.HandleGet))
	mux.HandleFunc("GET /api/owner-orders/my-cafe-orders", authed(ordersHandler.HandleListCafe))
	mux.HandleFunc("PATCH /api/order-status/ready/{id}", authed(ordersHandler.HandleMarkReady))
	mux.HandleFunc("PATCH /api/order-status/undo/{id}", authed(ordersHandler.HandleUndoReady))
	mux.HandleFunc("PATCH /api/order-status/advance/{id}", authed(ordersHandler.HandleAdvance))
	mux.HandleFunc("GET /api/cafe/{id}", telemetry.WithHTTPRoute(menuHandler.HandleGetCafe))
	mux.HandleFunc("GET /api/cafe/{id}/foods", telemetry.WithHTTPRoute(menuHandler.HandleListFoods))
	mux.HandleFunc("GET /api/food/{id}", telemetry.WithHTTPRoute(menuHandler.HandleGetFood))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			httpapi.WriteError(w, logger, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		httpapi.WriteJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", providers.MetricsHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      telemetry.NewServerHandler(mux, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting storefront service", "port", cfg.Port, "currency", pricer.Currency().String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
