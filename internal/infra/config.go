package infra

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort         string
	GRPCPort         string
	MetricsPort      string
	DatabaseDSN      string
	DatabaseHost     string
	DatabasePort     string
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string
	ArchiveWorkers   int
	ArchiveBuffer    int
	WarmUpMillis     int
	TickMillis       int
	SampleCap        int
	Policy           string
	RandSeed         int64
	LogLevel         string
}

func LoadConfig() Config {
	return Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		GRPCPort:         getEnv("GRPC_PORT", "50051"),
		MetricsPort:      getEnv("METRICS_PORT", "2112"),
		DatabaseDSN:      os.Getenv("DB_DSN"),
		DatabaseHost:     os.Getenv("DB_HOST"),
		DatabasePort:     os.Getenv("DB_PORT"),
		DatabaseUser:     os.Getenv("DB_USER"),
		DatabasePassword: os.Getenv("DB_PASSWORD"),
		DatabaseName:     os.Getenv("DB_NAME"),
		ArchiveWorkers:   getEnvInt("ARCHIVE_WORKERS", 2),
		ArchiveBuffer:    getEnvInt("ARCHIVE_BUFFER", 16),
		WarmUpMillis:     getEnvInt("WARMUP_MS", 5000),
		TickMillis:       getEnvInt("TICK_MS", 3000),
		SampleCap:        getEnvInt("SAMPLE_CAP", 10),
		Policy:           getEnv("POLICY", "all"),
		RandSeed:         getEnvInt64("RAND_SEED", 0),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

// LoadDotEnv reads KEY=VALUE files into the environment without overriding
// variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	var errs []error
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func LogConfig(ctx context.Context, logger *Logger, cfg Config) {
	logger.Printf(ctx, "HTTP_PORT=%s", EmptyFallback(cfg.HTTPPort, "(disabled)"))
	logger.Printf(ctx, "GRPC_PORT=%s", EmptyFallback(cfg.GRPCPort, "(disabled)"))
	logger.Printf(ctx, "METRICS_PORT=%s", EmptyFallback(cfg.MetricsPort, "(disabled)"))
	if cfg.DatabaseDSN != "" {
		logger.Printf(ctx, "DB_DSN set (length %d)", len(cfg.DatabaseDSN))
	} else {
		logger.Println(ctx, "DB_DSN not provided")
	}
	logger.Printf(ctx, "DB_HOST=%s", EmptyFallback(cfg.DatabaseHost, "(not set)"))
	logger.Printf(ctx, "DB_PORT=%s", EmptyFallback(cfg.DatabasePort, "(not set)"))
	logger.Printf(ctx, "DB_USER=%s", EmptyFallback(cfg.DatabaseUser, "(not set)"))
	if cfg.DatabasePassword != "" {
		logger.Println(ctx, "DB_PASSWORD set (redacted)")
	} else {
		logger.Println(ctx, "DB_PASSWORD not provided")
	}
	logger.Printf(ctx, "DB_NAME=%s", EmptyFallback(cfg.DatabaseName, "(not set)"))
	logger.Printf(ctx, "ARCHIVE_WORKERS=%d", cfg.ArchiveWorkers)
	logger.Printf(ctx, "ARCHIVE_BUFFER=%d", cfg.ArchiveBuffer)
	logger.Printf(ctx, "WARMUP_MS=%d", cfg.WarmUpMillis)
	logger.Printf(ctx, "TICK_MS=%d", cfg.TickMillis)
	logger.Printf(ctx, "SAMPLE_CAP=%d", cfg.SampleCap)
	logger.Printf(ctx, "POLICY=%s", cfg.Policy)
	if cfg.RandSeed != 0 {
		logger.Printf(ctx, "RAND_SEED=%d", cfg.RandSeed)
	}
}

// DatabaseConfigured reports whether any postgres connection settings were given.
func (c Config) DatabaseConfigured() bool {
	return c.DatabaseDSN != "" || c.DatabaseHost != ""
}

func EmptyFallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
