package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	AppMode     string
	LogMode     string
	CORSOrigins []string

	DBHost         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBPort         string
	DBSSLMode      string
	DBMaxOpenConns int

	JWTSecret string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// TypingBackend is "postgres" or "redis".
	TypingBackend       string
	TypingSweepInterval time.Duration
	ProfileCacheTTL     time.Duration

	OutboxBatchSize  int
	OutboxInterval   time.Duration
	OutboxMaxRetries int

	MessageRateLimit  int
	MessageRateWindow time.Duration
	TypingRateLimit   int
	TypingRateWindow  time.Duration

	S3Region     string
	S3Bucket     string
	S3AccessKey  string
	S3SecretKey  string
	S3Endpoint   string
	S3PublicBase string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:     getEnv("APP_PORT", "8080"),
		AppMode:     getEnv("APP_MODE", "debug"),
		LogMode:     getEnv("LOG_MODE", "development"),
		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "coaching_messenger"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		TypingBackend:       getEnv("TYPING_BACKEND", "postgres"),
		TypingSweepInterval: getEnvAsSeconds("TYPING_SWEEP_INTERVAL_SEC", 30),
		ProfileCacheTTL:     getEnvAsSeconds("PROFILE_CACHE_TTL_SEC", 300),

		OutboxBatchSize:  getEnvAsInt("OUTBOX_BATCH_SIZE", 100),
		OutboxInterval:   getEnvAsSeconds("OUTBOX_INTERVAL_SEC", 2),
		OutboxMaxRetries: getEnvAsInt("OUTBOX_MAX_RETRIES", 5),

		MessageRateLimit:  getEnvAsInt("RATE_LIMIT_MESSAGES", 60),
		MessageRateWindow: getEnvAsSeconds("RATE_LIMIT_MESSAGES_WINDOW_SEC", 60),
		TypingRateLimit:   getEnvAsInt("RATE_LIMIT_TYPING", 120),
		TypingRateWindow:  getEnvAsSeconds("RATE_LIMIT_TYPING_WINDOW_SEC", 60),

		S3Region:     getEnv("S3_REGION", ""),
		S3Bucket:     getEnv("S3_BUCKET", ""),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:   getEnv("S3_ENDPOINT", ""),
		S3PublicBase: getEnv("S3_PUBLIC_BASE", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}

func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
