// Package app assembles the dealership bot from the core runtime and the
// dealer packages.
package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/dealerbot/core/config"
	coredatabase "github.com/m3rciful/dealerbot/core/database"
	"github.com/m3rciful/dealerbot/core/telegram/state"
	"github.com/m3rciful/dealerbot/dealer/conversation"
)

// SessionConfig selects the session backend.
type SessionConfig struct {
	Backend string `yaml:"backend" envconfig:"SESSION_BACKEND"`
	// TTL expires idle Redis sessions; 0 keeps them forever.
	TTL time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
}

// ManagerConfig is the contact shown when no manager is active.
type ManagerConfig struct {
	Name     string `yaml:"name"`
	Telegram string `yaml:"telegram"`
	Phone    string `yaml:"phone"`
	Email    string `yaml:"email"`
}

// CatalogConfig tunes catalog listings.
type CatalogConfig struct {
	PageSize        int           `yaml:"page_size" envconfig:"CATALOG_PAGE_SIZE"`
	FallbackManager ManagerConfig `yaml:"fallback_manager"`
	// Seed fills empty reference tables on startup.
	Seed bool `yaml:"seed" envconfig:"CATALOG_SEED"`
}

// Config is the dealership bot configuration. The core sections are inlined
// so the YAML file stays flat.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Session  SessionConfig       `yaml:"session"`
	Catalog  CatalogConfig       `yaml:"catalog"`
}

// CoreConfig exposes the embedded core section to the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads path, overlays the environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	backend := strings.ToLower(strings.TrimSpace(c.Session.Backend))
	switch backend {
	case "":
		backend = state.BackendMemory
	case state.BackendMemory:
	case state.BackendRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return fmt.Errorf("redis.addr is required when session.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, redis", c.Session.Backend)
	}
	c.Session.Backend = backend
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must be >= 0")
	}

	if c.Catalog.PageSize < 0 {
		return fmt.Errorf("catalog.page_size must be >= 0")
	}
	if c.Catalog.PageSize == 0 {
		c.Catalog.PageSize = conversation.DefaultPageSize
	}
	if strings.TrimSpace(c.Catalog.FallbackManager.Name) == "" {
		m := conversation.DefaultManager
		c.Catalog.FallbackManager = ManagerConfig{Name: m.Name, Phone: m.Phone, Email: m.Email}
	}

	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("database.url or database.host is required")
	}
	if c.Database.URL == "" && c.Database.Port == "" {
		c.Database.Port = "5432"
	}
	return nil
}
