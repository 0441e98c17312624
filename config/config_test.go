package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/getpup/shardmanager"
	"github.com/getpup/shardmanager/gateway"
	"github.com/getpup/shardmanager/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tomlConfig = `
name = "bot"
id = "bot-1"
token = "file-token"
api_base = "https://gateway.example/api/v10"
shards_total = 4
shard_ids = [0, 2]
intents = ["default", "guild_members"]
cache_flags = ["members"]
large_threshold = 100
shutdown_hook = false
login_interval = "2s"

[presence]
status = "idle"
activity = "sharding"

[retry]
initial_interval = "500ms"
max_interval = "30s"
multiplier = 1.5

[per_shard_pools]
event_dispatch = 2

[metrics]
enabled = false
addr = ":9091"

[store]
dialect = "sqlite3"
dsn = "file:shards.db"
migrate = true
`

const yamlConfig = `
name: bot
token: file-token
api_base: https://gateway.example/api/v10
shards_total: -1
log:
  level: debug
store:
  dialect: postgres
  dsn: postgres://localhost/shards
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_TOML(t *testing.T) {
	t.Setenv(EnvToken, "")

	f, err := Load(writeFile(t, "shardctl.toml", tomlConfig))
	require.NoError(t, err)

	assert.Equal(t, "bot", f.Name)
	assert.Equal(t, "file-token", f.Token)
	assert.Equal(t, []int{0, 2}, f.ShardIDs)
	assert.Equal(t, "idle", f.Presence.Status)
	assert.Equal(t, "sqlite3", f.Store.Dialect)
	assert.True(t, f.Store.Migrate)
	assert.False(t, f.MetricsEnabled())
	assert.Equal(t, ":9091", f.Metrics.Addr)
}

func TestLoad_YAML(t *testing.T) {
	t.Setenv(EnvToken, "")

	f, err := Load(writeFile(t, "shardctl.yaml", yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, shardmanager.UnknownShardsTotal, f.ShardsTotal)
	assert.Equal(t, "debug", f.Log.Level)
	assert.Equal(t, "postgres", f.Store.Dialect)
	assert.True(t, f.MetricsEnabled())
}

func TestLoad_EnvTokenOverridesFile(t *testing.T) {
	t.Setenv(EnvToken, "env-token")

	f, err := Load(writeFile(t, "shardctl.yml", yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, "env-token", f.Token)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvToken, "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "shardctl.json", `{}`))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "broken.toml", `name = `))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "notoken.toml", `api_base = "https://gateway.example"`))
	assert.ErrorIs(t, err, shardmanager.ErrInvalidConfig)
}

func TestManagerConfig(t *testing.T) {
	t.Setenv(EnvToken, "")
	f, err := Load(writeFile(t, "shardctl.toml", tomlConfig))
	require.NoError(t, err)

	cfg, err := f.ManagerConfig()
	require.NoError(t, err)

	assert.Equal(t, "bot", cfg.Name)
	assert.Equal(t, "bot-1", cfg.ID)
	assert.Equal(t, 4, cfg.ShardsTotal)
	assert.True(t, cfg.Intents.Has(gateway.DefaultIntents|gateway.IntentGuildMembers))
	assert.Equal(t, gateway.CacheMembers, cfg.CacheFlags)
	assert.Equal(t, 100, cfg.Chunking.LargeThreshold)
	assert.Equal(t, "sharding", cfg.Presence.Activity)
	assert.False(t, cfg.ShutdownHook)
	assert.Equal(t, 2*time.Second, cfg.LoginInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.InitialInterval)
	assert.Equal(t, 30*time.Second, cfg.Retry.MaxInterval)
	assert.Equal(t, 1.5, cfg.Retry.Multiplier)
	require.NotNil(t, cfg.MetricsEnabled)
	assert.False(t, *cfg.MetricsEnabled)
	assert.Contains(t, cfg.PoolProviders, pool.KindEventDispatch)
	assert.Len(t, cfg.PoolProviders, 1)
}

func TestManagerConfig_Defaults(t *testing.T) {
	f := File{Token: "t", APIBase: "https://gateway.example"}

	cfg, err := f.ManagerConfig()
	require.NoError(t, err)

	assert.Equal(t, gateway.DefaultIntents, cfg.Intents)
	assert.True(t, cfg.ShutdownHook)
	assert.Nil(t, cfg.PoolProviders)
}

func TestManagerConfig_RejectsBadValues(t *testing.T) {
	cases := map[string]File{
		"intent":   {Intents: []string{"everything"}},
		"cache":    {CacheFlags: []string{"roles"}},
		"duration": {LoginInterval: "soon"},
		"pool":     {PerShardPools: map[string]int{"voice": 1}},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.ManagerConfig()
			assert.ErrorIs(t, err, shardmanager.ErrInvalidConfig)
		})
	}
}
