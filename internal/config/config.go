// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kkyr/fig"

	"github.com/wneessen/shopkeep/internal/verification"
)

const configEnv = "SHOPKEEP"

const (
	CacheTypeInMemory = "inmemory"
	CacheTypeTTLCache = "ttlcache"
)

// Config represents the global config object struct
type Config struct {
	Admin struct {
		JWTSecret string        `fig:"jwt_secret"`
		TokenTTL  time.Duration `fig:"token_ttl" default:"1h"`
	} `fig:"admin"`

	Cache struct {
		Type          string        `fig:"type" default:"inmemory"`
		Lifetime      time.Duration `fig:"lifetime" default:"5m"`
		SweepInterval time.Duration `fig:"sweep_interval"`
	} `fig:"cache"`

	Database struct {
		Path string `fig:"path" validate:"required"`
	} `fig:"database"`

	Log struct {
		Level        slog.Level `fig:"level" default:"0"`
		Format       string     `fig:"format" default:"json"`
		DontLogIP    bool       `fig:"dont_log_ip"`
		DontLogEmail bool       `fig:"dont_log_email"`
	} `fig:"log"`

	Mail struct {
		Host     string `fig:"host" default:"localhost"`
		Port     int    `fig:"port" default:"25"`
		Username string `fig:"username"`
		Password string `fig:"password"`
		Sender   string `fig:"sender" default:"no-reply@localhost"`
		ForceTLS bool   `fig:"force_tls"`
		DryRun   bool   `fig:"dry_run"`
	} `fig:"mail"`

	Server struct {
		BindAddress    string        `fig:"address" default:"127.0.0.1"`
		BindPort       string        `fig:"port" default:"8765"`
		Timeout        time.Duration `fig:"timeout" default:"15s"`
		BaseURL        string        `fig:"base_url" default:"http://127.0.0.1:8765"`
		AllowedOrigins []string      `fig:"allowed_origins"`
	} `fig:"server"`

	Verification struct {
		GraceDays int `fig:"grace_days" default:"1"`
	} `fig:"verification"`
}

// New returns a new Config. It tries to load the config from the default location
// and falls back to the defaults or environment variables if the config file
// was not found.
func New() (*Config, error) {
	conf := new(Config)

	configPath, configFile := findConfigFile()
	if configPath != "" && configFile != "" {
		return NewFromFile(configPath, configFile)
	}

	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}
	if err := conf.validate(); err != nil {
		return conf, err
	}

	return conf, nil
}

// NewFromFile returns a new Config from the given path and file.
func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}

	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}
	if err = conf.validate(); err != nil {
		return conf, err
	}

	return conf, nil
}

func (c *Config) validate() error {
	switch c.Cache.Type {
	case CacheTypeInMemory, CacheTypeTTLCache:
	default:
		return fmt.Errorf("unsupported cache type: %q", c.Cache.Type)
	}
	if c.Verification.GraceDays < 0 || c.Verification.GraceDays > verification.MaxGraceDays {
		return fmt.Errorf("verification grace days must be between 0 and %d, got %d",
			verification.MaxGraceDays, c.Verification.GraceDays)
	}
	return nil
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "shopkeep", "shopkeep."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
