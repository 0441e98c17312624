package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Open opens a database for the dialect. MySQL DSNs get parseTime enabled so
// timestamps scan into time.Time.
func Open(d Dialect, dsn string) (*sql.DB, error) {
	driver := string(d)

	if d == MySQL {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		dsn = cfg.FormatDSN()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d, err)
	}

	if d == SQLite {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate applies the up migration for the dialect.
// The MySQL migration is a single statement since the driver rejects
// multi-statement execs by default.
func Migrate(ctx context.Context, db *sql.DB, d Dialect, config TableConfig) error {
	up, err := MigrationUp(d, config)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, up); err != nil {
		return fmt.Errorf("failed to apply migration: %w", err)
	}
	return nil
}
