package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// Remote gateway (Apex-style RPC backend)
	GatewayURL     string
	GatewayTimeout time.Duration // watchdog bound for any gateway call

	// Queue behaviour
	RefreshInterval time.Duration // auto-refresh poll interval
	DialDelay       time.Duration // gap between dial trigger and disposition form
	TwoStageConfirm bool          // experimental contact confirmation before dialing

	// Optional AMQP broadcast of context-change events
	AMQPURL      string
	AMQPExchange string

	// WebSocket timing
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:            getEnv("PORT", "8080"),
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		GatewayURL:      getEnv("GATEWAY_URL", "http://localhost:9090"),
		TwoStageConfirm: getEnv("TWO_STAGE_CONFIRM", "false") == "true",
		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "nba.context"),
	}

	gatewayTimeout, err := strconv.Atoi(getEnv("GATEWAY_TIMEOUT", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_TIMEOUT: %w", err)
	}
	config.GatewayTimeout = time.Duration(gatewayTimeout) * time.Second

	refreshInterval, err := strconv.Atoi(getEnv("REFRESH_INTERVAL", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	config.RefreshInterval = time.Duration(refreshInterval) * time.Second

	dialDelay, err := strconv.Atoi(getEnv("DIAL_DELAY_MS", "700"))
	if err != nil {
		return nil, fmt.Errorf("invalid DIAL_DELAY_MS: %w", err)
	}
	config.DialDelay = time.Duration(dialDelay) * time.Millisecond

	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}

	config.PongWait = time.Duration(wsReadTimeout) * time.Second
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = time.Duration(wsWriteTimeout) * time.Second
	config.MaxMessageSize = 4096

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
