package config

import "testing"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	vars := map[string]string{
		"REDIS_URL":              "redis://localhost:6379/0",
		"DATABASE_URL":           "postgres://localhost/corvus",
		"DOCKER_HOST":            "unix:///var/run/docker.sock",
		"DOCKER_COMPOSE_NETWORK": "corvus-net",
		"AUTH_JWT_SECRET":        "test-secret",
	}
	for key, value := range vars {
		t.Setenv(key, value)
	}
}

func TestLoadAppConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg := LoadAppConfig()

	if cfg.ServerHost != "0.0.0.0" {
		t.Errorf("ServerHost = %q, want default 0.0.0.0", cfg.ServerHost)
	}
	if cfg.ServerPort != "3000" {
		t.Errorf("ServerPort = %q, want default 3000", cfg.ServerPort)
	}
	if cfg.DefaultRuntime != "go" {
		t.Errorf("DefaultRuntime = %q, want default go", cfg.DefaultRuntime)
	}
	if cfg.MaxFunctionSize != 10485760 {
		t.Errorf("MaxFunctionSize = %d, want default 10485760", cfg.MaxFunctionSize)
	}
}

func TestLoadAppConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("MAX_FUNCTION_SIZE", "1024")
	t.Setenv("DEFAULT_RUNTIME", "python")

	cfg := LoadAppConfig()

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.MaxFunctionSize != 1024 {
		t.Errorf("MaxFunctionSize = %d, want 1024", cfg.MaxFunctionSize)
	}
	if cfg.DefaultRuntime != "python" {
		t.Errorf("DefaultRuntime = %q, want python", cfg.DefaultRuntime)
	}
}

func TestNewLoggerTextAndJSON(t *testing.T) {
	cfg := &AppConfig{LogFormat: "text"}
	if logger := cfg.NewLogger(); logger == nil {
		t.Fatal("NewLogger() returned nil for text format")
	}

	cfg.LogFormat = "json"
	if logger := cfg.NewLogger(); logger == nil {
		t.Fatal("NewLogger() returned nil for json format")
	}
}
