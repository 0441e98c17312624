package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/getpup/shardmanager"
	"github.com/getpup/shardmanager/store"
)

var updatedColumns = []string{"status", "shards_total", "gateway_url", "last_error", "updated_at"}

// Store is a database/sql implementation of ShardStore for PostgreSQL, MySQL and SQLite.
type Store struct {
	db      *sql.DB
	dialect Dialect

	saveQuery   string
	getQuery    string
	listQuery   string
	deleteQuery string
}

var _ store.ShardStore = (*Store)(nil)

// New creates a store with the default table name.
func New(db *sql.DB, d Dialect) (*Store, error) {
	return NewWithConfig(db, d, DefaultTableConfig())
}

// NewWithConfig creates a store with a custom table name.
func NewWithConfig(db *sql.DB, d Dialect, config TableConfig) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := ParseDialect(string(d)); err != nil {
		return nil, err
	}

	table := d.quote(config.ShardsTable)
	return &Store{
		db:      db,
		dialect: d,
		saveQuery: fmt.Sprintf(`
		INSERT INTO %s (manager_id, shard_id, status, shards_total, gateway_url, last_error, updated_at)
		VALUES (%s)
		%s`, table, d.placeholders(7), d.upsertClause(updatedColumns)),
		getQuery: fmt.Sprintf(`
		SELECT manager_id, shard_id, status, shards_total, gateway_url, last_error, updated_at
		FROM %s
		WHERE manager_id = %s AND shard_id = %s`, table, d.placeholder(1), d.placeholder(2)),
		listQuery: fmt.Sprintf(`
		SELECT manager_id, shard_id, status, shards_total, gateway_url, last_error, updated_at
		FROM %s
		WHERE manager_id = %s
		ORDER BY shard_id ASC`, table, d.placeholder(1)),
		deleteQuery: fmt.Sprintf(`DELETE FROM %s WHERE manager_id = %s`, table, d.placeholder(1)),
	}, nil
}

// Dialect returns the dialect the store was created with.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// SaveShard inserts or replaces the record for (rec.ManagerID, rec.ShardID).
func (s *Store) SaveShard(ctx context.Context, rec shardmanager.ShardRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, s.saveQuery,
		rec.ManagerID,
		rec.ShardID,
		string(rec.Status),
		rec.ShardsTotal,
		rec.GatewayURL,
		rec.LastError,
		rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save shard %d: %w", rec.ShardID, err)
	}
	return nil
}

// GetShard returns the record for a shard.
// Returns store.ErrShardNotFound if no record exists.
func (s *Store) GetShard(ctx context.Context, managerID string, shardID int) (shardmanager.ShardRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, s.getQuery, managerID, shardID))
	if errors.Is(err, sql.ErrNoRows) {
		return shardmanager.ShardRecord{}, store.ErrShardNotFound
	}
	if err != nil {
		return shardmanager.ShardRecord{}, fmt.Errorf("failed to get shard %d: %w", shardID, err)
	}
	return rec, nil
}

// ListShards returns every record of a manager ordered by shard id.
func (s *Store) ListShards(ctx context.Context, managerID string) ([]shardmanager.ShardRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.listQuery, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shards: %w", err)
	}
	defer rows.Close()

	out := make([]shardmanager.ShardRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shard: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shards: %w", err)
	}
	return out, nil
}

// DeleteShards removes every record of a manager.
func (s *Store) DeleteShards(ctx context.Context, managerID string) error {
	if _, err := s.db.ExecContext(ctx, s.deleteQuery, managerID); err != nil {
		return fmt.Errorf("failed to delete shards: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (shardmanager.ShardRecord, error) {
	var rec shardmanager.ShardRecord
	var status string
	err := row.Scan(
		&rec.ManagerID,
		&rec.ShardID,
		&status,
		&rec.ShardsTotal,
		&rec.GatewayURL,
		&rec.LastError,
		&rec.UpdatedAt,
	)
	if err != nil {
		return shardmanager.ShardRecord{}, err
	}
	rec.Status = shardmanager.Status(status)
	return rec, nil
}
