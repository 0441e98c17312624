package main

import (
	"context"
	"strings"

	"github.com/getpup/shardmanager/config"
	"github.com/getpup/shardmanager/store"
	"github.com/getpup/shardmanager/store/memory"
	"github.com/getpup/shardmanager/store/sqlstore"
)

// openStore opens the configured status store. The returned func closes it.
func openStore(ctx context.Context, cfg config.StoreFile) (store.ShardStore, func() error, error) {
	if strings.TrimSpace(cfg.Dialect) == "" {
		return memory.New(), func() error { return nil }, nil
	}

	dialect, err := sqlstore.ParseDialect(cfg.Dialect)
	if err != nil {
		return nil, nil, err
	}

	tables := sqlstore.DefaultTableConfig()
	if cfg.Table != "" {
		tables.ShardsTable = cfg.Table
	}

	db, err := sqlstore.Open(dialect, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Migrate {
		if err := sqlstore.Migrate(ctx, db, dialect, tables); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}

	s, err := sqlstore.NewWithConfig(db, dialect, tables)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return s, db.Close, nil
}
