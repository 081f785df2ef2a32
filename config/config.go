package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	// DefaultNamespace prefixes every storage key; it matches the layout
	// the stored data already uses, so existing blobs stay readable.
	DefaultNamespace = "firebase_db_"

	DefaultNotifyChannel = "arena_kv_changes"
)

// Config holds all application settings.
type Config struct {
	DatabaseURL   string
	ServerPort    int
	StorageDriver string
	KVNamespace   string
	NotifyChannel string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads configuration from environment variables, optionally seeded
// from a local .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	driver := os.Getenv("STORAGE_DRIVER")
	if driver == "" {
		driver = DriverPostgres
	}
	if driver != DriverPostgres && driver != DriverMemory {
		return nil, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, driver)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if driver == DriverPostgres && dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	namespace := os.Getenv("KV_NAMESPACE")
	if namespace == "" {
		namespace = DefaultNamespace
	}

	channel := os.Getenv("NOTIFY_CHANNEL")
	if channel == "" {
		channel = DefaultNotifyChannel
	}

	cfg := &Config{
		DatabaseURL:   dbURL,
		ServerPort:    port,
		StorageDriver: driver,
		KVNamespace:   namespace,
		NotifyChannel: channel,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

// HasR2 reports whether the upload backend is fully configured. Avatar
// uploads are disabled when it is not.
func (c *Config) HasR2() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}
