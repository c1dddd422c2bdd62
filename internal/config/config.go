package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port             int    `env:"PORT" envDefault:"8090"`
	APIToken         string `env:"API_TOKEN"`
	DataDir          string `env:"DATA_DIR" envDefault:"data"`
	ArchivePath      string `env:"ARCHIVE_PATH" envDefault:""`
	GameBaseURL      string `env:"GAME_BASE_URL,required"`
	CookieDomain     string `env:"COOKIE_DOMAIN" envDefault:""`
	ReferenceOwner   string `env:"REFERENCE_OWNER"`
	ReferenceAccount string `env:"REFERENCE_ACCOUNT"`
	RedisURL         string `env:"REDIS_URL" envDefault:""`
	ServerUTCOffset  int    `env:"SERVER_UTC_OFFSET_HOURS" envDefault:"1"`
	FarmCycleMinutes int    `env:"FARM_CYCLE_MINUTES" envDefault:"0"`
	BrowserPath      string `env:"BROWSER_PATH" envDefault:""`
	ImportBrowser    string `env:"IMPORT_BROWSER" envDefault:""`
	ProfileDir       string `env:"BROWSER_PROFILE_DIR" envDefault:""`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ArchiveFile defaults to a sqlite file inside the data directory.
func (c *Config) ArchiveFile() string {
	if c.ArchivePath != "" {
		return c.ArchivePath
	}
	return filepath.Join(c.DataDir, "reports.db")
}

func (c *Config) Profiles() string {
	if c.ProfileDir != "" {
		return c.ProfileDir
	}
	return filepath.Join(c.DataDir, "profiles")
}

// Domain returns the cookie domain, derived from GAME_BASE_URL when not set
// explicitly.
func (c *Config) Domain() string {
	if c.CookieDomain != "" {
		return c.CookieDomain
	}
	u, err := url.Parse(c.GameBaseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func (c *Config) Validate() error {
	if _, err := url.Parse(c.GameBaseURL); err != nil {
		return fmt.Errorf("GAME_BASE_URL is not a valid URL: %w", err)
	}
	if c.Domain() == "" {
		return fmt.Errorf("could not derive cookie domain; set COOKIE_DOMAIN")
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
