package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)

	assert.Equal(t, "localhost:9999", cfg.ListenAddress())
	assert.Equal(t, "pokerhud.db", cfg.Store.Path)
	assert.Equal(t, 3, cfg.HUD.CacheTTLSeconds)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFullFile(t *testing.T) {
	content := `
server {
  address   = "0.0.0.0"
  port      = 8080
  log_level = "debug"
}

store {
  path = "/tmp/hands.db"
}

hud {
  battle_types = [1, 2]
  recent_limit = 200
  stats        = ["hands", "vpip", "pfr"]
}
`
	path := filepath.Join(t.TempDir(), "hud.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddress())
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "/tmp/hands.db", cfg.Store.Path)
	assert.Equal(t, []int{1, 2}, cfg.HUD.BattleTypes)
	assert.Equal(t, 200, cfg.HUD.RecentLimit)
	assert.Equal(t, []string{"hands", "vpip", "pfr"}, cfg.HUD.Stats)
	assert.Equal(t, 3, cfg.HUD.CacheTTLSeconds, "unset values fall back to defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoadPartialFileAppliesDefaults(t *testing.T) {
	content := `
server {
  port = 7000
}

store {}

hud {}
`
	path := filepath.Join(t.TempDir(), "hud.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:7000", cfg.ListenAddress())
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "pokerhud.db", cfg.Store.Path)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hud.hcl")
	require.NoError(t, os.WriteFile(path, []byte("server {"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.HUD.RecentLimit = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.HUD.BattleTypes = []int{-5}
	assert.Error(t, cfg.Validate())
}
