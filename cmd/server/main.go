package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/cache"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/cart"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/checkout"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/currency"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/fulfillment"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/httpapi"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/inventory"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/payment"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/publisher"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/repository"
	"github.com/Diabloxx/GlobalBazaar-sub001/internal/session"
)

type Config struct {
	HTTPPort string

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	MigrationsPath   string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string

	ProcessorURL     string
	ProcessorAPIKey  string
	ProcessorTimeout time.Duration

	JWTSecret string

	ExchangeRates string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	pgPort, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		pgPort = 5432
	}
	return &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getEnv("POSTGRES_DB", "storefront"),
		MigrationsPath:   getEnv("MIGRATIONS_PATH", "migrations"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:     strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		ProcessorURL:     getEnv("PAYMENT_PROCESSOR_URL", "http://localhost:9090"),
		ProcessorAPIKey:  getEnv("PAYMENT_PROCESSOR_API_KEY", ""),
		ProcessorTimeout: 10 * time.Second,
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret-change-me"),
		ExchangeRates:    getEnv("EXCHANGE_RATES", "EUR:0.92,GBP:0.79,JPY:147.10"),
		RequestTimeout:   30 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseRates reads "EUR:0.92,GBP:0.79" into converter rates. Bad entries are
// skipped with a warning so a typo never takes the service down.
func parseRates(raw string, log *zap.Logger) map[string]decimal.Decimal {
	rates := make(map[string]decimal.Decimal)
	for _, pair := range strings.Split(raw, ",") {
		code, value, found := strings.Cut(strings.TrimSpace(pair), ":")
		if !found {
			continue
		}
		rate, err := decimal.NewFromString(value)
		if err != nil || !rate.IsPositive() {
			log.Warn("skipping invalid exchange rate", zap.String("entry", pair))
			continue
		}
		rates[code] = rate
	}
	return rates
}

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	cfg := loadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	creds := &repository.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.PostgresDB,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer repo.Close()
	if err := repo.RunMigrations(creds); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("connected to postgres", zap.String("host", cfg.PostgresHost))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("redis connection failed", zap.Error(err))
	}
	log.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))

	cartCache := cache.NewRedisCache(redisClient)
	sessions := session.NewRedisRepository(redisClient)
	converter := currency.NewConverter(parseRates(cfg.ExchangeRates, log))
	guard := inventory.NewGuard(repo, repo)

	processor := payment.NewClient(cfg.ProcessorURL, cfg.ProcessorAPIKey, cfg.ProcessorTimeout)
	coordinator := payment.NewCoordinator(processor, repo, cfg.ProcessorTimeout, log)

	cartService := cart.NewService(repo, cartCache, guard, log)
	checkoutService := checkout.NewService(repo, coordinator, cartService, log)

	poller := publisher.NewOutboxPoller(repo, log, cfg.KafkaBrokers...)
	go poller.Run(ctx)

	consumer := fulfillment.NewConsumer(repo, log, cfg.KafkaBrokers...)
	defer consumer.Close()
	go consumer.Run(ctx)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		JWTSecret:      []byte(cfg.JWTSecret),
		Sessions:       sessions,
		RequestTimeout: cfg.RequestTimeout,
	}, httpapi.Handlers{
		Cart:     httpapi.NewCartHandler(cartService),
		Checkout: httpapi.NewCheckoutHandler(checkoutService),
		Orders:   httpapi.NewOrdersHandler(repo, converter),
		Products: httpapi.NewProductsHandler(repo, converter),
		Wishlist: httpapi.NewWishlistHandler(repo),
		Reviews:  httpapi.NewReviewsHandler(repo),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
