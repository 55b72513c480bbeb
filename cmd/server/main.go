package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/balkan_kitchen/internal/auth"
	"github.com/Skotchmaster/balkan_kitchen/internal/cart"
	"github.com/Skotchmaster/balkan_kitchen/internal/checkout"
	"github.com/Skotchmaster/balkan_kitchen/internal/config"
	"github.com/Skotchmaster/balkan_kitchen/internal/db"
	"github.com/Skotchmaster/balkan_kitchen/internal/events"
	"github.com/Skotchmaster/balkan_kitchen/internal/feed"
	"github.com/Skotchmaster/balkan_kitchen/internal/httpserver"
	"github.com/Skotchmaster/balkan_kitchen/internal/i18n"
	"github.com/Skotchmaster/balkan_kitchen/internal/logging"
	authmw "github.com/Skotchmaster/balkan_kitchen/internal/middleware/auth"
	"github.com/Skotchmaster/balkan_kitchen/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/balkan_kitchen/internal/middleware/logging"
	"github.com/Skotchmaster/balkan_kitchen/internal/repo"
	"github.com/Skotchmaster/balkan_kitchen/internal/search"
	"github.com/Skotchmaster/balkan_kitchen/internal/service"
	"github.com/Skotchmaster/balkan_kitchen/internal/storage"
)

const purgeInterval = time.Hour

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(initCtx, gdb); err != nil {
		cancel()
		log.Fatalf("db migrate error: %v", err)
	}
	cancel()

	r := repo.New(gdb)

	authSvc := auth.NewService(r, cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	if cfg.AdminUsername != "" {
		created, err := authSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("ensure admin error: %v", err)
		}
		logger.Info("admin_account_ready", "username", cfg.AdminUsername, "created", created)
	}

	var pub events.Publisher = events.Nop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		tctx, tcancel := context.WithTimeout(ctx, 10*time.Second)
		if err := events.EnsureTopics(tctx, cfg.KafkaBrokers[0], events.TopicMenuEvents, events.TopicOrderEvents); err != nil {
			logger.Warn("kafka_ensure_topics_failed", "error", err)
		}
		tcancel()
		producer, err = events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka init error: %v", err)
		}
		pub = producer
	}

	var idx *search.MenuIndex
	if cfg.ESURL != "" {
		es, err := search.NewClient(&cfg)
		if err != nil {
			log.Fatalf("es init error: %v", err)
		}
		idx = &search.MenuIndex{ES: es, Index: cfg.ESIndex}
		if err := idx.EnsureIndex(ctx); err != nil {
			logger.Warn("es_ensure_index_failed", "error", err)
		}
	}

	var images *storage.ImageStore
	if cfg.S3.Enabled() {
		images, err = storage.NewImageStore(cfg.S3)
		if err != nil {
			log.Fatalf("s3 init error: %v", err)
		}
	}

	catalogSvc := service.NewCatalogService(r, pub, idx, cfg.StoreTimeout)
	if err := catalogSvc.Refresh(ctx); err != nil {
		log.Fatalf("menu load error: %v", err)
	}
	if idx != nil {
		if err := catalogSvc.Reindex(ctx); err != nil {
			logger.Warn("menu_reindex_failed", "error", err)
		}
	}

	orderSvc := service.NewOrderService(r, pub, cfg.StoreTimeout)

	hub := feed.NewHub(64, logger)
	board := feed.NewBoard()
	existing, err := orderSvc.All(ctx)
	if err != nil {
		log.Fatalf("orders load error: %v", err)
	}
	board.Replace(existing)
	go board.Follow(ctx, hub)

	src, err := feedSource(cfg, r)
	if err != nil {
		log.Fatalf("feed source error: %v", err)
	}
	if src == nil {
		orderSvc.Feed = hub
	} else {
		go func() {
			if err := src.Run(ctx, hub); err != nil {
				logger.Error("feed_source_stopped", "source", cfg.FeedSource, "error", err)
			}
		}()
	}
	logger.Info("order_feed_ready", "source", cfg.FeedSource, "orders", len(existing))

	go purgeRefreshTokens(ctx, authSvc)

	carts := cart.NewRegistry(cfg.CartMaxSessions, cfg.CartSessionTTL)
	loc := httpserver.Localizer{T: i18n.New(cfg.DefaultLanguage)}
	csrfCfg := csrf.DefaultConfig()

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		DB:       r,
		Auth:     authmw.NewAutoRefreshMiddleware(authSvc),
		CSRF:     &csrfCfg,
		Catalog:  &httpserver.CatalogHTTP{Svc: catalogSvc, Localizer: loc},
		Cart:     &httpserver.CartHTTP{Carts: carts, Catalog: catalogSvc, TTL: cfg.CartSessionTTL, Localizer: loc},
		Checkout: &httpserver.CheckoutHTTP{
			Carts:     carts,
			Submitter: &checkout.Submitter{Orders: orderSvc, Timeout: cfg.StoreTimeout},
			Localizer: loc,
		},
		AuthHTTP:  &httpserver.AuthHTTP{Svc: authSvc, Localizer: loc},
		Admin:     &httpserver.AdminHTTP{Catalog: catalogSvc, Orders: orderSvc, Images: images, Localizer: loc},
		OrderFeed: &httpserver.OrderFeedHTTP{Hub: hub, Board: board},
	})

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	go func() {
		logger.Info("http_server_started", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	hub.Close()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_failed", "error", err)
		}
	}
	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db_close_failed", "error", err)
		}
	}
	logger.Info("shutdown_complete")
}

// feedSource picks where live order events come from. nil means the order
// service publishes straight into the hub.
func feedSource(cfg config.Config, r *repo.GormRepo) (feed.Source, error) {
	switch cfg.FeedSource {
	case "", "memory":
		return nil, nil
	case "notify":
		if db.IsSQLite(cfg.DatabaseURL) {
			return nil, errors.New("notify feed needs postgres")
		}
		return &feed.NotifySource{DSN: cfg.DatabaseURL, Channel: db.NotifyChannel, Orders: r}, nil
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("kafka feed needs KAFKA_BROKERS")
		}
		return &feed.KafkaSource{
			Brokers: cfg.KafkaBrokers,
			Topic:   events.TopicOrderEvents,
			GroupID: feed.InstanceGroupID(cfg.ServiceName),
		}, nil
	case "poll":
		return &feed.PollSource{Orders: r, Interval: cfg.FeedPollInterval}, nil
	}
	return nil, fmt.Errorf("unknown FEED_SOURCE %q", cfg.FeedSource)
}

func purgeRefreshTokens(ctx context.Context, svc *auth.Service) {
	l := logging.FromContext(ctx)
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := svc.PurgeExpired(ctx)
			if err != nil {
				l.Warn("refresh_token_purge_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("refresh_tokens_purged", "count", n)
			}
		}
	}
}
