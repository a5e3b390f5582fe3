package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Market
	Symbol          string
	ReferenceSymbol string
	Interval        string
	CandleLimit     int
	BinanceBaseURL  string
	BinanceWSURL    string

	// Persistence
	DatasetPath      string
	NetworkStatePath string
	SQLitePath       string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	MetricsAddr   string
	WebhookURL    string

	// Training
	MaxIterations int
	LearnRate     float64
	MaxError      float64
	HiddenSize    int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Symbol:          getEnv("SYMBOL", "ETHUSDT"),
		ReferenceSymbol: getEnv("REFERENCE_SYMBOL", "BTCUSDT"),
		Interval:        getEnv("INTERVAL", "1h"),
		CandleLimit:     getEnvInt("CANDLE_LIMIT", 200),
		BinanceBaseURL:  getEnv("BINANCE_BASE_URL", "https://api.binance.com"),
		BinanceWSURL:    getEnv("BINANCE_WS_URL", "wss://stream.binance.com:9443/ws"),

		DatasetPath:      getEnv("DATASET_PATH", "data/dataset.json"),
		NetworkStatePath: getEnv("NETWORK_STATE_PATH", "data/network.json"),
		SQLitePath:       getEnv("SQLITE_PATH", "data/candles.db"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		WebhookURL:    getEnv("WEBHOOK_URL", ""),

		MaxIterations: getEnvInt("TRAIN_MAX_ITERATIONS", 10000),
		LearnRate:     getEnvFloat("TRAIN_LEARN_RATE", 0.3),
		MaxError:      getEnvFloat("TRAIN_MAX_ERROR", 0.005),
		HiddenSize:    getEnvInt("NETWORK_HIDDEN_SIZE", 64),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] ignoring invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		log.Printf("[config] ignoring invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}
