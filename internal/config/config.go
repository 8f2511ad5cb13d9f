// Package config reads process settings from the environment, after loading
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/pricing"
)

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

type Config struct {
	HTTPAddr        string
	GRPCAddr        string
	StorageDriver   string
	MySQLDSN        string
	MaxOpenConns    int
	MaxIdleConns    int
	RedisAddr       string
	JWTSecret       string
	JWTTTL          time.Duration
	IdempotencyTTL  time.Duration
	Pricing         pricing.Policy
	PaymentMethods  []string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads .env if present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	var errs []error
	defaults := pricing.DefaultPolicy()

	cfg := Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:      getEnv("GRPC_ADDR", ":50051"),
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageMySQL)),
		MySQLDSN:      getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/storefront?parseTime=true"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		LogFormat:     strings.ToLower(getEnv("LOG_FORMAT", "json")),
		PaymentMethods: splitList(getEnv("PAYMENT_METHODS",
			"COD,CARD,UPI,NETBANKING")),
	}

	cfg.MaxOpenConns = getInt("MYSQL_MAX_OPEN_CONNS", 50, &errs)
	cfg.MaxIdleConns = getInt("MYSQL_MAX_IDLE_CONNS", 25, &errs)
	cfg.JWTTTL = getDuration("JWT_TTL", 7*24*time.Hour, &errs)
	cfg.IdempotencyTTL = getDuration("IDEMPOTENCY_TTL", 24*time.Hour, &errs)
	cfg.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", 5*time.Second, &errs)

	cfg.Pricing = pricing.Policy{
		FreeShippingThreshold: getMoney("PRICING_FREE_SHIPPING_THRESHOLD", defaults.FreeShippingThreshold, &errs),
		ShippingFee:           getMoney("PRICING_SHIPPING_FEE", defaults.ShippingFee, &errs),
		TaxRate:               getDecimal("PRICING_TAX_RATE", defaults.TaxRate, &errs),
	}

	if cfg.StorageDriver != StorageMySQL && cfg.StorageDriver != StorageMemory {
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER: unknown driver %q", cfg.StorageDriver))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if len(cfg.PaymentMethods) == 0 {
		errs = append(errs, errors.New("PAYMENT_METHODS must list at least one method"))
	}
	if cfg.Pricing.TaxRate.IsNegative() {
		errs = append(errs, errors.New("PRICING_TAX_RATE must not be negative"))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]error) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

// getMoney parses a major-unit amount such as "500" or "49.99".
func getMoney(key string, fallback domain.Money, errs *[]error) domain.Money {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := domain.MoneyFromString(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	if v < 0 {
		*errs = append(*errs, fmt.Errorf("%s: must not be negative", key))
		return fallback
	}
	return v
}

func getDecimal(key string, fallback decimal.Decimal, errs *[]error) decimal.Decimal {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
