package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudflare/cfssl/log"
	"gotest.tools/v3/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	assert.NilError(t, err)

	assert.Equal(t, cfg.Log.Level, "info")
	assert.Equal(t, cfg.Client.Addr, ":8080")
	assert.Equal(t, cfg.Redis.Enabled, false)
	assert.Equal(t, cfg.Redis.EventKey, "ledgerEvents")
	assert.Equal(t, cfg.Faucet.InitBalance, int64(10000))
	assert.Equal(t, cfg.Scheduler.Interval, 10*time.Second)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
log:
  level: debug
db:
  path: /tmp/crowdfund
redis:
  enabled: true
  addr: redis:6379
  max_events: 50
faucet:
  supply: 500
scheduler:
  interval: 1m
`
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load(dir)
	assert.NilError(t, err)
	assert.Equal(t, cfg.DB.Path, "/tmp/crowdfund")
	assert.Equal(t, cfg.Redis.Enabled, true)
	assert.Equal(t, cfg.Redis.Addr, "redis:6379")
	assert.Equal(t, cfg.Redis.MaxEvents, int64(50))
	assert.Equal(t, cfg.Faucet.Supply, int64(500))
	assert.Equal(t, cfg.Scheduler.Interval, time.Minute)
	assert.Equal(t, cfg.Log.LogLevel(), log.LevelDebug)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CROWDFUND_CLIENT_ADDR", ":9090")
	cfg, err := Load(t.TempDir())
	assert.NilError(t, err)
	assert.Equal(t, cfg.Client.Addr, ":9090")
}

func TestLoadBadFile(t *testing.T) {
	dir := t.TempDir()
	assert.NilError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0644))
	_, err := Load(dir)
	assert.Assert(t, err != nil)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, LogConfig{Level: "WARN"}.LogLevel(), log.LevelWarning)
	assert.Equal(t, LogConfig{Level: "nonsense"}.LogLevel(), log.LevelInfo)
}
