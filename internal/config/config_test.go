package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_UnknownCostCategory(t *testing.T) {
	cfg := validConfig()
	cfg.Budget.CostPerUnit = map[string]float64{"geocodding": 0.005}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown cost category")
	}
	if !strings.Contains(err.Error(), "geocodding") {
		t.Errorf("expected the offending category in the error, got %q", err.Error())
	}
}

func TestValidate_NegativeCost(t *testing.T) {
	cfg := validConfig()
	cfg.Budget.CostPerUnit = map[string]float64{"geocoding": -1}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative cost")
	}
}

func TestValidate_NegativeBudget(t *testing.T) {
	cfg := validConfig()
	cfg.Budget.DailyBudgetUSD = -5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative budget")
	}
}

func TestValidate_InvalidPersistenceMedium(t *testing.T) {
	cfg := validConfig()
	cfg.Persistence.Medium = "s3"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown persistence medium")
	}
	expected := `persistence.medium must be "none", "file" or "redis", got "s3"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_RedisMediumRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Persistence.Medium = "redis"
	cfg.Persistence.RedisAddrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis medium without addrs")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Cache.MaxSize != 1000 {
		t.Errorf("expected Cache.MaxSize=1000, got %d", cfg.Cache.MaxSize)
	}
	if cfg.Cache.DefaultTTLSec != 3600 {
		t.Errorf("expected Cache.DefaultTTLSec=3600, got %d", cfg.Cache.DefaultTTLSec)
	}
	if cfg.Persistence.Medium != "file" {
		t.Errorf("expected Persistence.Medium=file, got %q", cfg.Persistence.Medium)
	}
	if cfg.Persistence.KeyPrefix != "placegate:" {
		t.Errorf("expected Persistence.KeyPrefix=placegate:, got %q", cfg.Persistence.KeyPrefix)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Cache:  CacheConfig{MaxSize: 50},
		Budget: BudgetConfig{DailyBudgetUSD: 12.5},
	}
	cfg.ApplyDefaults()

	if cfg.Cache.MaxSize != 50 {
		t.Errorf("expected explicit MaxSize kept, got %d", cfg.Cache.MaxSize)
	}
	if cfg.Budget.DailyBudgetUSD != 12.5 {
		t.Errorf("expected explicit budget kept, got %v", cfg.Budget.DailyBudgetUSD)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PLACEGATE_TEST_KEY", "secret")

	out := expandEnvVars([]byte("api_key: ${PLACEGATE_TEST_KEY}\nport: ${PLACEGATE_TEST_PORT:-8080}"))

	got := string(out)
	if !strings.Contains(got, "api_key: secret") {
		t.Errorf("expected env var substituted, got %q", got)
	}
	if !strings.Contains(got, "port: 8080") {
		t.Errorf("expected default applied for unset var, got %q", got)
	}
}

func TestCostOverrides(t *testing.T) {
	cfg := validConfig()
	cfg.Budget.CostPerUnit = map[string]float64{"geocoding": 0.009}

	out := cfg.CostOverrides()
	if len(out) != 1 {
		t.Fatalf("expected 1 override, got %d", len(out))
	}
	if out["geocoding"] != 0.009 {
		t.Errorf("expected override 0.009, got %v", out["geocoding"])
	}
}
