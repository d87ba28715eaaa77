package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the provisioning handler and the
// operator CLI.
type Config struct {
	// AWS connection
	AWS AWSConfig

	// AccountID is the workspace-owning AWS account. Empty means resolve
	// via the caller identity at startup.
	AccountID string

	// IdentityStoreID and InstanceARN pin the identity center instance.
	// Empty means auto-discover the account's instance.
	IdentityStoreID string
	InstanceARN     string

	// Namespace is the workspace namespace role memberships target.
	Namespace string

	// Provisioning
	PollInterval     time.Duration
	ProvisionTimeout time.Duration

	// Reconciliation
	SyncConcurrency   int
	RequestsPerSecond float64
	RequestBurst      int

	Env string
}

// AWSConfig holds AWS SDK connection settings.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for LocalStack local dev
	MaxAttempts     int
	MaxBackoff      time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("AWS_ENDPOINT", ""), // Empty = use AWS, set for LocalStack
			MaxAttempts:     getEnvInt("AWS_MAX_ATTEMPTS", 5),
			MaxBackoff:      getEnvDuration("AWS_MAX_BACKOFF", 20*time.Second),
		},
		AccountID:         getEnv("AWS_ACCOUNT_ID", ""),
		IdentityStoreID:   getEnv("IDENTITY_STORE_ID", ""),
		InstanceARN:       getEnv("IDENTITY_CENTER_INSTANCE_ARN", ""),
		Namespace:         getEnv("WORKSPACE_NAMESPACE", "default"),
		PollInterval:      getEnvDuration("PROVISION_POLL_INTERVAL", 15*time.Second),
		ProvisionTimeout:  getEnvDuration("PROVISION_TIMEOUT", 10*time.Minute),
		SyncConcurrency:   getEnvInt("SYNC_CONCURRENCY", 5),
		RequestsPerSecond: getEnvFloat("SYNC_REQUESTS_PER_SECOND", 10),
		RequestBurst:      getEnvInt("SYNC_REQUEST_BURST", 5),
		Env:               getEnv("ENV", "development"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.AWS.Region == "" {
		return fmt.Errorf("AWS_REGION is required")
	}
	if c.SyncConcurrency < 1 {
		return fmt.Errorf("SYNC_CONCURRENCY must be at least 1")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("PROVISION_POLL_INTERVAL must be positive")
	}
	if c.ProvisionTimeout <= 0 {
		return fmt.Errorf("PROVISION_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
