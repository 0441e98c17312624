// Package shardtest provides mock collaborators for testing code built on the
// shard manager.
package shardtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/getpup/shardmanager"
)

// DefaultGatewayURL is the URL returned by MockDiscoverer when DiscoverFunc is not set.
const DefaultGatewayURL = "wss://gateway.test"

// MockConnector is a mock implementation of shardmanager.Connector for testing.
type MockConnector struct {
	mu sync.Mutex

	// BuildAndLoginFunc is called by BuildAndLogin if set.
	BuildAndLoginFunc func(ctx context.Context, cfg shardmanager.SessionConfig) (shardmanager.Session, error)

	// BuildAndLoginCalls records the config of every call.
	BuildAndLoginCalls []shardmanager.SessionConfig

	// Sessions records every session returned by the default behaviour.
	Sessions []*MockSession
}

var _ shardmanager.Connector = (*MockConnector)(nil)

// NewMockConnector creates a new MockConnector with an empty call history.
func NewMockConnector() *MockConnector {
	return &MockConnector{}
}

// BuildAndLogin implements shardmanager.Connector.
// It records the call, then:
// - If BuildAndLoginFunc is set, calls and returns it
// - Otherwise, returns a new MockSession for cfg.ShardID
func (m *MockConnector) BuildAndLogin(ctx context.Context, cfg shardmanager.SessionConfig) (shardmanager.Session, error) {
	m.mu.Lock()
	m.BuildAndLoginCalls = append(m.BuildAndLoginCalls, cfg)
	m.mu.Unlock()

	if m.BuildAndLoginFunc != nil {
		return m.BuildAndLoginFunc(ctx, cfg)
	}

	s := NewMockSession(cfg.ShardID)
	m.mu.Lock()
	m.Sessions = append(m.Sessions, s)
	m.mu.Unlock()
	return s, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockConnector) Calls() []shardmanager.SessionConfig {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]shardmanager.SessionConfig, len(m.BuildAndLoginCalls))
	copy(calls, m.BuildAndLoginCalls)
	return calls
}

// CallIDs returns the shard ids of the recorded calls in call order.
func (m *MockConnector) CallIDs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int, len(m.BuildAndLoginCalls))
	for i, c := range m.BuildAndLoginCalls {
		ids[i] = c.ShardID
	}
	return ids
}

// Reset clears the call history.
func (m *MockConnector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BuildAndLoginCalls = nil
	m.Sessions = nil
}

// MockDiscoverer is a mock implementation of shardmanager.Discoverer for testing.
type MockDiscoverer struct {
	mu sync.Mutex

	// DiscoverFunc is called by DiscoverGateway if set.
	DiscoverFunc func(ctx context.Context) (shardmanager.GatewayInfo, error)

	calls int
}

var _ shardmanager.Discoverer = (*MockDiscoverer)(nil)

// NewMockDiscoverer creates a new MockDiscoverer.
func NewMockDiscoverer() *MockDiscoverer {
	return &MockDiscoverer{}
}

// DiscoverGateway implements shardmanager.Discoverer.
// Without DiscoverFunc it returns DefaultGatewayURL with one recommended shard.
func (m *MockDiscoverer) DiscoverGateway(ctx context.Context) (shardmanager.GatewayInfo, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.DiscoverFunc != nil {
		return m.DiscoverFunc(ctx)
	}
	return shardmanager.GatewayInfo{URL: DefaultGatewayURL, RecommendedShards: 1}, nil
}

// Calls returns the number of DiscoverGateway calls.
func (m *MockDiscoverer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockSession is a mock implementation of shardmanager.Session for testing.
type MockSession struct {
	mu sync.Mutex

	id int

	// ShutdownFunc is called by Shutdown if set.
	ShutdownFunc func(ctx context.Context) error

	shutdowns    int
	shutdownNows int
}

var _ shardmanager.Session = (*MockSession)(nil)

// NewMockSession creates a MockSession for a shard.
func NewMockSession(id int) *MockSession {
	return &MockSession{id: id}
}

// ShardID implements shardmanager.Session.
func (s *MockSession) ShardID() int {
	return s.id
}

// Shutdown implements shardmanager.Session.
func (s *MockSession) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shutdowns++
	fn := s.ShutdownFunc
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return nil
}

// ShutdownNow implements shardmanager.Session.
func (s *MockSession) ShutdownNow() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownNows++
	return nil
}

// Shutdowns returns the number of graceful and immediate shutdowns.
func (s *MockSession) Shutdowns() (graceful, immediate int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdowns, s.shutdownNows
}

// Closed reports whether the session was shut down in either way.
func (s *MockSession) Closed() bool {
	graceful, immediate := s.Shutdowns()
	return graceful+immediate > 0
}

// LogEntry is one message recorded by MockLogger.
type LogEntry struct {
	Level   string
	Msg     string
	KeyVals []interface{}
}

// MockLogger records every message for testing.
type MockLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ shardmanager.Logger = (*MockLogger)(nil)

// NewMockLogger creates a new MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (l *MockLogger) record(level, msg string, keyvals []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, KeyVals: keyvals})
}

// Debug implements shardmanager.Logger.
func (l *MockLogger) Debug(_ context.Context, msg string, keyvals ...interface{}) {
	l.record("debug", msg, keyvals)
}

// Info implements shardmanager.Logger.
func (l *MockLogger) Info(_ context.Context, msg string, keyvals ...interface{}) {
	l.record("info", msg, keyvals)
}

// Error implements shardmanager.Logger.
func (l *MockLogger) Error(_ context.Context, msg string, keyvals ...interface{}) {
	l.record("error", msg, keyvals)
}

// Entries returns a copy of the recorded messages.
func (l *MockLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Messages returns the recorded messages of a level.
func (l *MockLogger) Messages(level string) []string {
	var out []string
	for _, e := range l.Entries() {
		if e.Level == level {
			out = append(out, e.Msg)
		}
	}
	return out
}

// String implements fmt.Stringer for test failure output.
func (l *MockLogger) String() string {
	return fmt.Sprintf("%v", l.Entries())
}
