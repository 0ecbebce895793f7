package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultPageSize    = 2
	DefaultMaxPageSize = 100
	DefaultFeedWorkers = 2
)

type Config struct {
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	DBAutoMigrate bool

	ServerPort string

	JWTSecret string

	PageSize    int
	MaxPageSize int

	// RedisURL is optional. Without it the feed is read straight from
	// PostgreSQL and no events are published.
	RedisURL    string
	FeedWorkers int

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string
}

// StorageConfigured reports whether every R2 setting needed for uploads is set.
func (c *Config) StorageConfigured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	sslMode := os.Getenv("DB_SSLMODE")
	if sslMode == "" {
		sslMode = "require"
	}

	maxPageSize := positiveInt("MAX_PAGE_SIZE", DefaultMaxPageSize)
	pageSize := positiveInt("PAGE_SIZE", DefaultPageSize)
	if pageSize > maxPageSize {
		log.Printf("[Config] PAGE_SIZE=%d exceeds MAX_PAGE_SIZE=%d, clamping", pageSize, maxPageSize)
		pageSize = maxPageSize
	}

	autoMigrate, _ := strconv.ParseBool(os.Getenv("DB_AUTO_MIGRATE"))

	return &Config{
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		DBSSLMode:     sslMode,
		DBAutoMigrate: autoMigrate,

		ServerPort: serverPort,

		JWTSecret: jwtSecret,

		PageSize:    pageSize,
		MaxPageSize: maxPageSize,

		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),
		FeedWorkers: positiveInt("FEED_WORKERS", DefaultFeedWorkers),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),
	}, nil
}

// positiveInt reads an integer env var, falling back to def when it is
// missing, malformed or not positive.
func positiveInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
