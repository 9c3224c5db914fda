// Package config loads the cachectl YAML configuration with environment
// variable expansion.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.yaml.in/yaml/v3"
)

const (
	StoreRedis    = "redis"
	StoreMemcache = "memcache"
	StoreMemory   = "memory"
)

// Config is the top-level cachectl configuration.
type Config struct {
	Store    StoreConfig   `yaml:"store"`
	Version  VersionConfig `yaml:"version"`
	Log      LogConfig     `yaml:"log"`
	Locale   string        `yaml:"locale"`   // default locale for key/expire
	Currency string        `yaml:"currency"` // default currency for key/expire; "" = none
	Policies string        `yaml:"policies"` // optional policies YAML, see cacheable.DecodePolicies
}

// StoreConfig selects the shared store.
type StoreConfig struct {
	Kind            string        `yaml:"kind"` // redis, memcache, memory
	RedisURL        string        `yaml:"redis_url"`
	Prefix          string        `yaml:"prefix"`
	MemcacheServers []string      `yaml:"memcache_servers"`
	Timeout         time.Duration `yaml:"timeout"`
}

// VersionConfig binds the version counter.
type VersionConfig struct {
	Namespace string        `yaml:"namespace"`
	Expiry    time.Duration `yaml:"expiry"` // 0 = never
}

// LogConfig controls zap output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Kind:     StoreRedis,
			RedisURL: "redis://localhost:6379/0",
			Timeout:  5 * time.Second,
		},
		Version: VersionConfig{Namespace: "Cache"},
		Log:     LogConfig{Level: "info", Format: "console"},
		Locale:  "en",
	}
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Store),
		validation.Field(&c.Version),
		validation.Field(&c.Log),
	)
}

func (s StoreConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Kind, validation.Required, validation.In(StoreRedis, StoreMemcache, StoreMemory)),
		validation.Field(&s.RedisURL, validation.When(s.Kind == StoreRedis, validation.Required)),
		validation.Field(&s.MemcacheServers, validation.When(s.Kind == StoreMemcache, validation.Required)),
		validation.Field(&s.Timeout, validation.Min(time.Duration(0))),
	)
}

func (v VersionConfig) Validate() error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.Expiry, validation.Min(time.Duration(0))),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("json", "console")),
	)
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnv replaces ${VAR} patterns with environment variable values.
// Unset variables are left as written.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := string(match[2 : len(match)-1])
		if val, ok := os.LookupEnv(varName); ok {
			return []byte(val)
		}
		return match
	})
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(expandEnv(data), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
