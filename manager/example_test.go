package manager_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getpup/shardmanager"
	"github.com/getpup/shardmanager/manager"
	"github.com/getpup/shardmanager/shardtest"
)

// Example_basic logs in three shards against an in-memory connector.
func Example_basic() {
	disabled := false
	m, err := manager.New(manager.Config{
		Name:           "example",
		ShardsTotal:    3,
		Connector:      shardtest.NewMockConnector(),
		Discoverer:     shardtest.NewMockDiscoverer(),
		LoginInterval:  -1,
		MetricsEnabled: &disabled,
	})
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}

	// Login returns once shard 0 is connected; the rest start in the background.
	if err := m.Login(context.Background()); err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !allConnected(m, 3) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	for _, info := range m.Shards() {
		fmt.Printf("shard %d: %s\n", info.ID, info.Status)
	}

	m.Shutdown()
	<-m.Done()
	fmt.Println("running after shutdown:", m.RunningCount())

	// Output:
	// shard 0: connected
	// shard 1: connected
	// shard 2: connected
	// running after shutdown: 0
}

func allConnected(m *manager.Manager, n int) bool {
	for id := 0; id < n; id++ {
		if status, ok := m.Status(id); !ok || status != shardmanager.StatusConnected {
			return false
		}
	}
	return true
}
