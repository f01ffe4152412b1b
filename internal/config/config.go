package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                    string
	AllowedOrigin           string
	DatabaseURL             string
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	AuthSecret              string
	AccessTokenTTLMinutes   int
	OTPTTLSeconds           int
	PaymentWebhookSecret    string
	PaymentGatewayURL       string
	ProductCacheTTLSeconds  int
	CategoryCacheTTLSeconds int
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	otpTTL, err := strconv.Atoi(getEnv("OTP_TTL_SECONDS", "300"))
	if err != nil || otpTTL < 1 {
		otpTTL = 300
	}
	productTTL, err := strconv.Atoi(getEnv("PRODUCT_CACHE_TTL_SECONDS", "60"))
	if err != nil || productTTL < 1 {
		productTTL = 60
	}
	categoryTTL, err := strconv.Atoi(getEnv("CATEGORY_CACHE_TTL_SECONDS", "3600"))
	if err != nil || categoryTTL < 1 {
		categoryTTL = 3600
	}

	cfg := Config{
		Port:                    getEnv("PORT", "8080"),
		AllowedOrigin:           getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 redisDB,
		AuthSecret:              strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes:   tokenTTL,
		OTPTTLSeconds:           otpTTL,
		PaymentWebhookSecret:    strings.TrimSpace(os.Getenv("PAYMENT_WEBHOOK_SECRET")),
		PaymentGatewayURL:       getEnv("PAYMENT_GATEWAY_URL", "http://127.0.0.1:8089"),
		ProductCacheTTLSeconds:  productTTL,
		CategoryCacheTTLSeconds: categoryTTL,
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
