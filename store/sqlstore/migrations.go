package sqlstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TableConfig configures the table used by the store.
type TableConfig struct {
	// ShardsTable is the name of the table storing shard records.
	ShardsTable string
}

// DefaultTableConfig returns the default table configuration.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		ShardsTable: "shard_sessions",
	}
}

// Validate rejects table names that are not plain identifiers.
func (c TableConfig) Validate() error {
	return validateIdentifier(c.ShardsTable, "ShardsTable")
}

// MigrationUp returns the SQL creating the shard records table for the dialect.
func MigrationUp(d Dialect, config TableConfig) (string, error) {
	if err := config.Validate(); err != nil {
		return "", fmt.Errorf("invalid configuration: %w", err)
	}

	table := d.quote(config.ShardsTable)
	index := d.quote("idx_" + config.ShardsTable + "_status")

	switch d {
	case Postgres:
		return fmt.Sprintf(`-- Database: PostgreSQL
CREATE TABLE IF NOT EXISTS %s (
    manager_id TEXT NOT NULL,
    shard_id INTEGER NOT NULL CHECK (shard_id >= 0),
    status TEXT NOT NULL CHECK (status IN ('queued', 'connecting', 'connected', 'shutting_down', 'terminated')),
    shards_total INTEGER NOT NULL DEFAULT -1,
    gateway_url TEXT NOT NULL DEFAULT '',
    last_error TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (manager_id, shard_id)
);

CREATE INDEX IF NOT EXISTS %s ON %s (manager_id, status);
`, table, index, table), nil
	case MySQL:
		return fmt.Sprintf(`-- Database: MySQL/MariaDB
CREATE TABLE IF NOT EXISTS %s (
    manager_id VARCHAR(64) NOT NULL,
    shard_id INT NOT NULL,
    status ENUM('queued', 'connecting', 'connected', 'shutting_down', 'terminated') NOT NULL,
    shards_total INT NOT NULL DEFAULT -1,
    gateway_url VARCHAR(1024) NOT NULL DEFAULT '',
    last_error TEXT NOT NULL,
    updated_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
    PRIMARY KEY (manager_id, shard_id),
    INDEX %s (manager_id, status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
`, table, index), nil
	case SQLite:
		return fmt.Sprintf(`-- Database: SQLite
CREATE TABLE IF NOT EXISTS %s (
    manager_id TEXT NOT NULL,
    shard_id INTEGER NOT NULL CHECK (shard_id >= 0),
    status TEXT NOT NULL,
    shards_total INTEGER NOT NULL DEFAULT -1,
    gateway_url TEXT NOT NULL DEFAULT '',
    last_error TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (manager_id, shard_id)
);

CREATE INDEX IF NOT EXISTS %s ON %s (manager_id, status);
`, table, index, table), nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", d)
	}
}

// MigrationDown returns the SQL dropping the shard records table.
func MigrationDown(d Dialect, config TableConfig) (string, error) {
	if err := config.Validate(); err != nil {
		return "", fmt.Errorf("invalid configuration: %w", err)
	}
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;\n", d.quote(config.ShardsTable)), nil
}

// WriteMigration writes the up migration for the dialect into folder and returns its path.
func WriteMigration(d Dialect, config TableConfig, folder string) (string, error) {
	sql, err := MigrationUp(d, config)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output folder: %w", err)
	}

	name := fmt.Sprintf("%s_init_%s_%s.sql", time.Now().Format("20060102150405"), config.ShardsTable, d)
	path := filepath.Join(folder, name)
	if err := os.WriteFile(path, []byte(sql), 0o600); err != nil {
		return "", fmt.Errorf("failed to write migration file: %w", err)
	}
	return path, nil
}
