package main

import (
	"fmt"

	"github.com/getpup/shardmanager/store/sqlstore"
	"github.com/spf13/cobra"
)

var (
	migrateDialect string
	migrateTable   string
	migrateOutput  string
	migrateDown    bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Print or write the status table migration",
	Long: `Generate the SQL migration for the shard status table.

Without --output the SQL is printed. With --output a timestamped file is
written into that folder.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDialect, "dialect", "postgres", "Database dialect: postgres, mysql or sqlite3")
	migrateCmd.Flags().StringVar(&migrateTable, "table", sqlstore.DefaultTableConfig().ShardsTable, "Name of the shard status table")
	migrateCmd.Flags().StringVarP(&migrateOutput, "output", "o", "", "Output folder for the migration file")
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "Print the down migration instead")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dialect, err := sqlstore.ParseDialect(migrateDialect)
	if err != nil {
		return err
	}
	tables := sqlstore.TableConfig{ShardsTable: migrateTable}

	if migrateOutput != "" && !migrateDown {
		path, err := sqlstore.WriteMigration(dialect, tables, migrateOutput)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated %s migration: %s\n", dialect, path)
		return nil
	}

	sql, err := sqlstore.MigrationUp(dialect, tables)
	if migrateDown {
		sql, err = sqlstore.MigrationDown(dialect, tables)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sql)
	return nil
}
