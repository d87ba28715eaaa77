package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"AWS_REGION", "WORKSPACE_NAMESPACE", "PROVISION_POLL_INTERVAL", "PROVISION_TIMEOUT", "SYNC_CONCURRENCY", "AWS_MAX_ATTEMPTS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.AWS.Region != "us-east-1" {
		t.Errorf("Expected default region us-east-1, got %s", cfg.AWS.Region)
	}
	if cfg.AWS.MaxAttempts != 5 {
		t.Errorf("Expected 5 max attempts, got %d", cfg.AWS.MaxAttempts)
	}
	if cfg.Namespace != "default" {
		t.Errorf("Expected default namespace, got %s", cfg.Namespace)
	}
	if cfg.PollInterval != 15*time.Second {
		t.Errorf("Expected 15s poll interval, got %s", cfg.PollInterval)
	}
	if cfg.ProvisionTimeout != 10*time.Minute {
		t.Errorf("Expected 10m provision timeout, got %s", cfg.ProvisionTimeout)
	}
	if cfg.SyncConcurrency != 5 {
		t.Errorf("Expected concurrency 5, got %d", cfg.SyncConcurrency)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("WORKSPACE_NAMESPACE", "analytics")
	t.Setenv("PROVISION_POLL_INTERVAL", "3s")
	t.Setenv("SYNC_CONCURRENCY", "12")
	t.Setenv("SYNC_REQUESTS_PER_SECOND", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.AWS.Region != "eu-west-1" {
		t.Errorf("Expected region eu-west-1, got %s", cfg.AWS.Region)
	}
	if cfg.Namespace != "analytics" {
		t.Errorf("Expected namespace analytics, got %s", cfg.Namespace)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Errorf("Expected 3s poll interval, got %s", cfg.PollInterval)
	}
	if cfg.SyncConcurrency != 12 {
		t.Errorf("Expected concurrency 12, got %d", cfg.SyncConcurrency)
	}
	if cfg.RequestsPerSecond != 2.5 {
		t.Errorf("Expected 2.5 requests per second, got %f", cfg.RequestsPerSecond)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("SYNC_CONCURRENCY", "0")

	if _, err := Load(); err == nil {
		t.Fatal("Expected error for zero concurrency")
	}
}

func TestGetEnvDuration_IgnoresUnparseable(t *testing.T) {
	t.Setenv("PROVISION_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.ProvisionTimeout != 10*time.Minute {
		t.Errorf("Expected fallback to default, got %s", cfg.ProvisionTimeout)
	}
}
