package config

import "testing"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HUB_MAC", "AA:BB:CC:DD:EE:FF")
	t.Setenv("HUB_USER", "admin")
	t.Setenv("HUB_PASSWORD", "secret")
	t.Setenv("HUB_BROKER_HOST", "192.168.1.10")
}

func TestLoadFromEnvAppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BrokerURL != "tcp://192.168.1.10:1883" {
		t.Fatalf("expected default port 1883, got %q", cfg.BrokerURL)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadFromEnvRequiresHubMAC(t *testing.T) {
	t.Setenv("HUB_USER", "admin")
	t.Setenv("HUB_PASSWORD", "secret")
	t.Setenv("HUB_BROKER_HOST", "192.168.1.10")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatalf("expected error when HUB_MAC is unset")
	}
}

func TestLoadFromEnvOverridesBrokerPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HUB_BROKER_PORT", "8883")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BrokerURL != "tcp://192.168.1.10:8883" {
		t.Fatalf("expected overridden port, got %q", cfg.BrokerURL)
	}
}

func TestLoadFromEnvRejectsNonNumericTiming(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HUB_WC_OPEN_TIME_SECONDS", "not-a-number")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatalf("expected error for non-numeric HUB_WC_OPEN_TIME_SECONDS")
	}
}

func TestValidateRejectsMissingCredentials(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HubMAC = "AA:BB:CC:DD:EE:FF"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing username/password")
	}
}
