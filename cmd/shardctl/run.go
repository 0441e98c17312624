package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/getpup/shardmanager"
	"github.com/getpup/shardmanager/config"
	"github.com/getpup/shardmanager/gateway"
	"github.com/getpup/shardmanager/logging"
	"github.com/getpup/shardmanager/manager"
	"github.com/getpup/shardmanager/metrics"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Log in every configured shard and keep them running",
	Long: `Load the config file, log in the first shard synchronously and bring the
remaining shards up one at a time. Runs until SIGINT or SIGTERM, or until the
gateway rejects the credentials.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	f, err := config.Load(configPath)
	if err != nil {
		return err
	}

	zl, err := logging.New(logging.Options{Level: f.Log.Level, Development: f.Log.Development})
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	logger := logging.NewZap(zl)

	ctx := cmd.Context()

	st, closeStore, err := openStore(ctx, f.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = closeStore() }()

	cfg, err := f.ManagerConfig()
	if err != nil {
		return err
	}

	var mgr *manager.Manager
	cfg.Connector = gateway.NewConnector(gateway.ConnectorConfig{
		Token:  f.Token,
		Logger: logger,
		OnDisconnect: func(shardID int, cause error) {
			go restartShard(mgr, logger, shardID)
		},
	})
	cfg.Discoverer = gateway.NewDiscoverer(gateway.DiscovererConfig{
		APIBase: f.APIBase,
		Token:   f.Token,
		Logger:  logger,
	})
	cfg.Store = st
	cfg.Logger = logger
	cfg.Listeners = []shardmanager.ListenerFactory{eventLogger(logger)}

	mgr, err = manager.New(cfg)
	if err != nil {
		return err
	}

	if f.MetricsEnabled() && f.Metrics.Addr != "" {
		srv := metrics.NewServer(f.Metrics.Addr, func() bool { return !mgr.IsShutdown() })
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if !cfg.ShutdownHook {
		sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		go func() {
			<-sigCtx.Done()
			mgr.Shutdown()
		}()
	}

	if err := mgr.Login(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	logger.Info(ctx, "shard manager running", "managerID", mgr.ID(), "shardsTotal", mgr.ShardsTotal())

	<-mgr.Done()

	for _, info := range mgr.Shards() {
		if info.Status != shardmanager.StatusTerminated {
			logger.Error(ctx, "shard left in unexpected status", "shardID", info.ID, "status", info.Status)
		}
	}
	return nil
}

func restartShard(mgr *manager.Manager, logger shardmanager.Logger, shardID int) {
	if mgr == nil {
		return
	}
	err := mgr.Restart(context.Background(), shardID)
	if err != nil && !errors.Is(err, shardmanager.ErrShutdown) {
		logger.Error(context.Background(), "failed to restart shard", "shardID", shardID, "error", err)
	}
}

func eventLogger(logger shardmanager.Logger) shardmanager.ListenerFactory {
	return func(shardID int) shardmanager.Listener {
		return shardmanager.ListenerFunc(func(ctx context.Context, shardID int, event string, payload []byte) {
			logger.Debug(ctx, "gateway event", "shardID", shardID, "event", event, "bytes", len(payload))
		})
	}
}
