package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	RedisAddr      string
	WebhookURL     string
	JWTSecret      string
	StorageBackend string
	StorageDir     string
	AwsAccessKey   string
	AwsSecretKey   string
	AwsRegion      string
	BucketName     string
	PollInterval   time.Duration
	PollMaxTries   int
	CacheTTL       time.Duration
	MaxUploadBytes int64
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		WebhookURL:     getEnv("WEBHOOK_URL", "http://127.0.0.1:8080/webhook"),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		StorageBackend: getEnv("STORAGE_BACKEND", "local"),
		StorageDir:     getEnv("STORAGE_DIR", "uploaded_pdfs"),
		AwsAccessKey:   getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:   getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:      getEnv("AWS_REGION", "us-east-2"),
		BucketName:     getEnv("BUCKET_NAME", "extracta-docs"),
		PollInterval:   time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 600)) * time.Second,
		PollMaxTries:   getEnvInt("POLL_MAX_ATTEMPTS", 0),
		CacheTTL:       time.Duration(getEnvInt("CACHE_TTL_SECONDS", 600)) * time.Second,
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 104857600)), // 100MB
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
