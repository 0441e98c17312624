package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/getpup/shardmanager"
	"github.com/getpup/shardmanager/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		migrateOutput = ""
		migrateDown = false
		statusManagerID = ""
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shardctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestMigrate_PrintsUpMigration(t *testing.T) {
	out, err := execute(t, "migrate", "--dialect", "sqlite3", "--table", "bot_shards")

	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS")
	assert.Contains(t, out, "bot_shards")
}

func TestMigrate_PrintsDownMigration(t *testing.T) {
	out, err := execute(t, "migrate", "--dialect", "mysql", "--table", "shard_sessions", "--down")

	require.NoError(t, err)
	assert.Contains(t, out, "DROP TABLE IF EXISTS")
}

func TestMigrate_WritesFile(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "migrate", "--dialect", "postgres", "--table", "shard_sessions", "--output", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "Generated postgres migration")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMigrate_UnknownDialect(t *testing.T) {
	_, err := execute(t, "migrate", "--dialect", "oracle")

	assert.Error(t, err)
}

func TestStatus_ListsPersistedShards(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "shards.db")
	path := writeConfig(t, `
id = "bot-1"
token = "secret"
api_base = "https://api.test"

[store]
dialect = "sqlite3"
dsn = "`+dsn+`"
migrate = true
`)

	f, err := config.Load(path)
	require.NoError(t, err)
	st, closeStore, err := openStore(context.Background(), f.Store)
	require.NoError(t, err)
	require.NoError(t, st.SaveShard(context.Background(), shardmanager.ShardRecord{
		ManagerID:   "bot-1",
		ShardID:     0,
		Status:      shardmanager.StatusConnected,
		ShardsTotal: 2,
	}))
	require.NoError(t, closeStore())

	out, err := execute(t, "status", "--config", path)

	require.NoError(t, err)
	assert.Contains(t, out, "SHARD")
	assert.Contains(t, out, "connected")
}

func TestStatus_RequiresManagerID(t *testing.T) {
	path := writeConfig(t, `
token = "secret"
api_base = "https://api.test"
`)

	_, err := execute(t, "status", "--config", path)

	assert.ErrorContains(t, err, "no manager id")
}

func TestOpenStore_DefaultsToMemory(t *testing.T) {
	st, closeStore, err := openStore(context.Background(), config.StoreFile{})
	require.NoError(t, err)
	defer func() { _ = closeStore() }()

	recs, err := st.ListShards(context.Background(), "any")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestOpenStore_RejectsUnknownDialect(t *testing.T) {
	_, _, err := openStore(context.Background(), config.StoreFile{Dialect: "oracle"})

	assert.Error(t, err)
}
