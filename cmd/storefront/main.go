package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dukahq/storefront/internal/auth"
	"github.com/dukahq/storefront/internal/cart"
	"github.com/dukahq/storefront/internal/catalog"
	"github.com/dukahq/storefront/internal/checkout"
	checkoutlogsqlite "github.com/dukahq/storefront/internal/checkout/checkoutlog/sqlite"
	"github.com/dukahq/storefront/internal/config"
	"github.com/dukahq/storefront/internal/httpx"
	"github.com/dukahq/storefront/internal/payment"
	"github.com/dukahq/storefront/internal/pkg/cache"
	"github.com/dukahq/storefront/internal/pkg/telemetry"
	"github.com/dukahq/storefront/internal/realtime"
	"github.com/dukahq/storefront/internal/restock"
	"github.com/dukahq/storefront/internal/storage/sqlite"
)

func main() {
	telemetry.InitLogger()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, "storefront")
	if err != nil {
		log.Fatalf("failed to set up tracer: %v", err)
	}
	defer shutdownTracer(context.Background())

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}

	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	auditRepo, err := checkoutlogsqlite.Open(cfg.CheckoutLogPath)
	if err != nil {
		log.Fatalf("failed to open checkout log: %v", err)
	}
	defer auditRepo.Close()

	hub := realtime.NewHub()

	// Redis is optional: with no address the cache is skipped and the feed
	// stays in-process.
	var cacheSvc cache.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()

		cacheSvc = cache.NewRedisCache(client, "storefront")
		hub.AttachRemote(realtime.NewRedisPublisher(client, cfg.RealtimeChannel))

		bridge := realtime.NewRedisBridge(client, cfg.RealtimeChannel, hub)
		go func() {
			if err := bridge.Run(ctx); err != nil {
				slog.Error("realtime bridge stopped", "error", err)
			}
		}()
	}

	catalogRepo := sqlite.NewCatalogRepository(db)
	stockRepo := sqlite.NewStockRepository(db)
	orderRepo := sqlite.NewOrderRepository(db, hub)
	userRepo := sqlite.NewUserRepository(db)

	catalogSvc := catalog.NewService(catalogRepo, stockRepo, orderRepo, cacheSvc)
	restockSvc := restock.NewService(stockRepo, stockRepo, catalogSvc, hub)
	authSvc := auth.NewService(userRepo, auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenLifespan), cacheSvc)

	// Feed stock changes into the catalog read model so every open view
	// converges without a refresh.
	stockEvents, cancelStockFeed := hub.Subscribe(realtime.TableStock, "", 64)
	defer cancelStockFeed()
	go func() {
		for event := range stockEvents {
			catalogSvc.ApplyStockChange(event.BranchID, event.ProductID, event.Quantity)
		}
	}()

	gateway := payment.NewSimulator(cfg.PaymentLatency, cfg.PaymentApprovalRate)
	carts := cart.NewRegistry()
	checkouts := checkout.NewRegistry(gateway, orderRepo, auditRepo, cfg.SuccessDisplayDelay)

	handler := httpx.NewHandler(authSvc, catalogSvc, restockSvc, carts, checkouts, hub)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(handler, authSvc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("storefront listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
