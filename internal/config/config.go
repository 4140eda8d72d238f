package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"yatube/internal/model"
)

type Config struct {
	Env string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort string

	// JWTSecret verifies identity tokens issued by the identity provider.
	JWTSecret string
	// LoginURL is where anonymous mutation attempts are redirected. Empty means
	// answer 401 instead.
	LoginURL string

	RedisURL      string
	IndexCacheTTL time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	MaxImageSizeBytes int64

	OTELEndpoint    string
	OTELServiceName string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	indexCacheTTL, err := time.ParseDuration(os.Getenv("INDEX_CACHE_TTL"))
	if err != nil || indexCacheTTL <= 0 {
		indexCacheTTL = model.DefaultIndexCacheTTL
	}

	maxImageSize, err := strconv.ParseInt(os.Getenv("MAX_IMAGE_SIZE_BYTES"), 10, 64)
	if err != nil || maxImageSize <= 0 {
		maxImageSize = model.DefaultMaxImageSizeBytes
	}

	return &Config{
		Env: getEnv("ENV", "production"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnv("DB_SSLMODE", "require"),

		ServerPort: getEnv("SERVER_PORT", "8080"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		LoginURL:  os.Getenv("LOGIN_URL"),

		RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
		IndexCacheTTL: indexCacheTTL,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		MaxImageSizeBytes: maxImageSize,

		OTELEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTELServiceName: getEnv("OTEL_SERVICE_NAME", "yatube"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
