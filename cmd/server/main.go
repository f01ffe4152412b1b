package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"belanjaku/backend/internal/cache"
	"belanjaku/backend/internal/config"
	"belanjaku/backend/internal/httpapi"
	"belanjaku/backend/internal/payment"
	"belanjaku/backend/internal/service"
	"belanjaku/backend/internal/sms"
	"belanjaku/backend/internal/store"
	"belanjaku/backend/internal/store/memory"
	pgstore "belanjaku/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory")
	}

	// OTP codes and rate counters live in the cache store, so the no-redis
	// fallback must actually hold values between requests.
	cacheStore := cache.Store(cache.NewMemoryStore())
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using in-memory cache", err)
		} else {
			cacheStore = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: in-memory")
	}

	gateway := &payment.DevGateway{BaseURL: cfg.PaymentGatewayURL}
	svc := service.New(repo, cacheStore, gateway,
		time.Duration(cfg.ProductCacheTTLSeconds)*time.Second,
		time.Duration(cfg.CategoryCacheTTLSeconds)*time.Second)
	auth := httpapi.NewAuthManager(cfg.AuthSecret,
		time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute,
		time.Duration(cfg.OTPTTLSeconds)*time.Second,
		repo, cacheStore, sms.LogSender{})
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, cfg.PaymentWebhookSecret)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("store backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.PaymentWebhookSecret == "" {
		return fmt.Errorf("PAYMENT_WEBHOOK_SECRET must be set")
	}
	return nil
}
