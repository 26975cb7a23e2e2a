// Package config loads the HUD's HCL configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete HUD configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Store  StoreSettings  `hcl:"store,block"`
	HUD    HUDSettings    `hcl:"hud,block"`
}

// ServerSettings configures the ingest listener.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// StoreSettings configures hand persistence.
type StoreSettings struct {
	Path string `hcl:"path,optional"` // sqlite file; empty means in-memory
}

// HUDSettings configures stat calculation and display.
type HUDSettings struct {
	// HeroID highlights this player's panel in the overlay. Zero means
	// derive it from the deal events.
	HeroID int64 `hcl:"hero_id,optional"`

	// BattleTypes restricts stats to matching session types. Empty means
	// all sessions.
	BattleTypes []int `hcl:"battle_types,optional"`

	// RecentLimit caps aggregation to the N most recent hands.
	RecentLimit int `hcl:"recent_limit,optional"`

	// Stats selects which stat ids to display, in display order. Empty
	// means every enabled stat.
	Stats []string `hcl:"stats,optional"`

	// CacheTTLSeconds is how long calculated stats stay fresh.
	CacheTTLSeconds int `hcl:"cache_ttl_seconds,optional"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     9999,
			LogLevel: "info",
		},
		Store: StoreSettings{
			Path: "pokerhud.db",
		},
		HUD: HUDSettings{
			CacheTTLSeconds: 3,
		},
	}
}

// Load reads the HCL file at filename. A missing file yields defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9999
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "pokerhud.db"
	}
	if cfg.HUD.CacheTTLSeconds == 0 {
		cfg.HUD.CacheTTLSeconds = 3
	}

	return &cfg, nil
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.HUD.RecentLimit < 0 {
		return fmt.Errorf("recent_limit must not be negative")
	}
	if c.HUD.CacheTTLSeconds < 0 {
		return fmt.Errorf("cache_ttl_seconds must not be negative")
	}
	for _, bt := range c.HUD.BattleTypes {
		if bt < 0 {
			return fmt.Errorf("invalid battle type: %d", bt)
		}
	}
	return nil
}

// ListenAddress returns the full ingest listen address.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
