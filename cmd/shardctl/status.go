package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/getpup/shardmanager/config"
	"github.com/spf13/cobra"
)

var statusManagerID string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the persisted shard statuses of a manager",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusManagerID, "manager-id", "", "Manager id to inspect (default: id from the config file)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	f, err := config.Load(configPath)
	if err != nil {
		return err
	}

	managerID := statusManagerID
	if managerID == "" {
		managerID = f.ID
	}
	if managerID == "" {
		return errors.New("no manager id: set id in the config file or pass --manager-id")
	}

	st, closeStore, err := openStore(cmd.Context(), f.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = closeStore() }()

	recs, err := st.ListShards(cmd.Context(), managerID)
	if err != nil {
		return fmt.Errorf("failed to list shards: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SHARD\tSTATUS\tTOTAL\tUPDATED\tLAST ERROR")
	for _, rec := range recs {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", rec.ShardID, rec.Status, rec.ShardsTotal, rec.UpdatedAt.Format(time.RFC3339), rec.LastError)
	}
	return w.Flush()
}
