package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Mastery backends.
const (
	MasterySQLite = "sqlite"
	MasteryRedis  = "redis"
	MasteryMemory = "memory"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration

	// Storage
	DBPath         string
	MasteryBackend string // sqlite, redis or memory
	RedisAddr      string // required when MasteryBackend is redis

	// Questions
	FallbackDir string        // extra YAML topics, overriding the bundled ones
	LoadDelay   time.Duration // artificial delay before loading questions

	SessionTTL time.Duration
	CORSOrigin string

	// Telegram bot, disabled when empty
	TelegramToken string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()
	cfg := &Config{
		ServerAddress:   mustGetenv("SERVER_ADDRESS"),
		ShutdownTimeout: mustGetDuration("SHUTDOWN_TIMEOUT"),
		DBPath:          getenvDefault("DB_PATH", "quiz.db"),
		MasteryBackend:  getenvDefault("MASTERY_BACKEND", MasterySQLite),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		FallbackDir:     os.Getenv("FALLBACK_DIR"),
		LoadDelay:       getDurationDefault("LOAD_DELAY", 0),
		SessionTTL:      getDurationDefault("SESSION_TTL", 2*time.Hour),
		CORSOrigin:      getenvDefault("CORS_ORIGIN", "*"),
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
	}

	switch cfg.MasteryBackend {
	case MasterySQLite, MasteryMemory:
	case MasteryRedis:
		if cfg.RedisAddr == "" {
			log.Fatalf("config: REDIS_ADDR is required when MASTERY_BACKEND=%s", MasteryRedis)
		}
	default:
		log.Fatalf("config: MASTERY_BACKEND=%q must be one of sqlite, redis, memory", cfg.MasteryBackend)
	}
	if cfg.SessionTTL <= 0 {
		log.Fatalf("config: SESSION_TTL must be positive")
	}
	return cfg
}

func mustGetenv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("config: required environment variable %s is not set", k)
	}
	return v
}

func mustGetDuration(k string) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("config: required environment variable %s is not set", k)
	}
	return parseDuration(k, v)
}

func getDurationDefault(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return parseDuration(k, v)
}

func parseDuration(k, v string) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid duration: %v", k, v, err)
	}
	return d
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}
