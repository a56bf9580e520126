package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roamspot/placegate/internal/domain"
)

// Config holds the placegate API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Auth        AuthConfig        `yaml:"auth"`
	Provider    ProviderConfig    `yaml:"provider"`
	Cache       CacheConfig       `yaml:"cache"`
	Budget      BudgetConfig      `yaml:"budget"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ProviderConfig holds places provider settings.
type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
}

// CacheConfig holds cache store settings.
type CacheConfig struct {
	MaxSize            int `yaml:"max_size"`
	DefaultTTLSec      int `yaml:"default_ttl_sec"`
	CleanupIntervalSec int `yaml:"cleanup_interval_sec"`
	SnapshotLimit      int `yaml:"snapshot_limit"`
}

// BudgetConfig holds usage ledger settings.
type BudgetConfig struct {
	// DailyBudgetUSD is the spend ceiling. 0 = unlimited.
	DailyBudgetUSD float64 `yaml:"daily_budget_usd"`
	// CostPerUnit overrides the built-in per-call cost table, keyed by
	// category name.
	CostPerUnit map[string]float64 `yaml:"cost_per_unit"`
	// SingleFlight coalesces concurrent misses of the same key into
	// one provider call.
	SingleFlight bool `yaml:"single_flight"`
}

// PersistenceConfig holds snapshot persistence settings.
type PersistenceConfig struct {
	Medium          string   `yaml:"medium"` // none, file, redis (default: file)
	Dir             string   `yaml:"dir"`    // file medium: snapshot directory
	RedisAddrs      []string `yaml:"redis_addrs"`
	RedisPassword   string   `yaml:"redis_password"`
	KeyPrefix       string   `yaml:"key_prefix"`
	SaveIntervalSec int      `yaml:"save_interval_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 15
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = 1000
	}
	if c.Cache.DefaultTTLSec <= 0 {
		c.Cache.DefaultTTLSec = 3600
	}
	if c.Cache.CleanupIntervalSec <= 0 {
		c.Cache.CleanupIntervalSec = 600
	}
	if c.Cache.SnapshotLimit <= 0 {
		c.Cache.SnapshotLimit = 200
	}
	if c.Persistence.Medium == "" {
		c.Persistence.Medium = "file"
	}
	if c.Persistence.Dir == "" {
		c.Persistence.Dir = "data"
	}
	if c.Persistence.KeyPrefix == "" {
		c.Persistence.KeyPrefix = "placegate:"
	}
	if c.Persistence.SaveIntervalSec <= 0 {
		c.Persistence.SaveIntervalSec = 300
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Budget.DailyBudgetUSD < 0 {
		return fmt.Errorf("budget.daily_budget_usd must be non-negative, got %v", c.Budget.DailyBudgetUSD)
	}
	for name, cost := range c.Budget.CostPerUnit {
		if _, err := domain.ParseCategory(name); err != nil {
			return fmt.Errorf("budget.cost_per_unit: %w", err)
		}
		if cost < 0 {
			return fmt.Errorf("budget.cost_per_unit.%s must be non-negative, got %v", name, cost)
		}
	}
	switch c.Persistence.Medium {
	case "none", "file", "redis":
		// ok
	default:
		return fmt.Errorf(
			"persistence.medium must be \"none\", \"file\" or \"redis\", got %q",
			c.Persistence.Medium,
		)
	}
	if c.Persistence.Medium == "redis" && len(c.Persistence.RedisAddrs) == 0 {
		return fmt.Errorf("persistence.redis_addrs is required for the redis medium")
	}
	return nil
}

// CostOverrides converts the raw cost table to domain categories.
// Call only after Validate.
func (c *Config) CostOverrides() map[domain.Category]float64 {
	if len(c.Budget.CostPerUnit) == 0 {
		return nil
	}
	out := make(map[domain.Category]float64, len(c.Budget.CostPerUnit))
	for name, cost := range c.Budget.CostPerUnit {
		out[domain.Category(name)] = cost
	}
	return out
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
