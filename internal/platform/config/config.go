package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything main needs to wire the server.
type Config struct {
	Addr          string
	PostgresDSN   string
	Redis         RedisConfig
	Kafka         KafkaConfig
	JWTSigningKey string

	// CardRateLimit bounds anonymous resolutions per client IP per window on
	// the public card route.
	CardRateLimit  int
	CardRateWindow time.Duration
}

// RedisConfig holds connection settings for the rate limiter backend.
// An empty URL disables Redis (and with it, rate limiting).
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the event stream settings. Empty brokers disable
// publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:          getenv("CARDLINK_ADDR", ":8080"),
		PostgresDSN:   os.Getenv("CARDLINK_POSTGRES_DSN"),
		JWTSigningKey: getenv("CARDLINK_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          os.Getenv("CARDLINK_REDIS_URL"),
			PoolSize:     getint("CARDLINK_REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("CARDLINK_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: getenv("CARDLINK_KAFKA_TOPIC", "cardlink.events"),
		},
		CardRateLimit:  getint("CARDLINK_CARD_RATE_LIMIT", 60),
		CardRateWindow: time.Minute,
	}
	if brokers := os.Getenv("CARDLINK_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
