package shardtest

import (
	"context"
	"errors"
	"testing"

	"github.com/getpup/shardmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockConnector_DefaultReturnsSessionForShard(t *testing.T) {
	mock := NewMockConnector()

	s, err := mock.BuildAndLogin(context.Background(), shardmanager.SessionConfig{ShardID: 4})

	require.NoError(t, err)
	assert.Equal(t, 4, s.ShardID())
	assert.Equal(t, []int{4}, mock.CallIDs())
	require.Len(t, mock.Sessions, 1)
}

func TestMockConnector_UsesFunc(t *testing.T) {
	mock := NewMockConnector()
	boom := errors.New("boom")
	mock.BuildAndLoginFunc = func(ctx context.Context, cfg shardmanager.SessionConfig) (shardmanager.Session, error) {
		return nil, boom
	}

	_, err := mock.BuildAndLogin(context.Background(), shardmanager.SessionConfig{ShardID: 1})

	assert.ErrorIs(t, err, boom)
	assert.Len(t, mock.Calls(), 1)
	assert.Empty(t, mock.Sessions)

	mock.Reset()
	assert.Empty(t, mock.Calls())
}

func TestMockDiscoverer_CountsCalls(t *testing.T) {
	mock := NewMockDiscoverer()

	info, err := mock.DiscoverGateway(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DefaultGatewayURL, info.URL)
	assert.Equal(t, 1, mock.Calls())
}

func TestMockSession_TracksShutdowns(t *testing.T) {
	s := NewMockSession(0)
	assert.False(t, s.Closed())

	require.NoError(t, s.Shutdown(context.Background()))
	require.NoError(t, s.ShutdownNow())

	graceful, immediate := s.Shutdowns()
	assert.Equal(t, 1, graceful)
	assert.Equal(t, 1, immediate)
	assert.True(t, s.Closed())
}

func TestMockLogger_RecordsLevels(t *testing.T) {
	l := NewMockLogger()
	ctx := context.Background()

	l.Info(ctx, "a")
	l.Error(ctx, "b", "k", 1)

	assert.Equal(t, []string{"b"}, l.Messages("error"))
	assert.Len(t, l.Entries(), 2)
}
