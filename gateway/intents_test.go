package gateway

import (
	"testing"

	"github.com/getpup/shardmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntents(t *testing.T) {
	intents, err := ParseIntents([]string{"default", "guild_members"})
	require.NoError(t, err)

	assert.True(t, intents.Has(DefaultIntents))
	assert.True(t, intents.Has(IntentGuildMembers))
	assert.False(t, intents.Has(IntentGuildPresences))

	_, err = ParseIntents([]string{"everything"})
	assert.ErrorIs(t, err, shardmanager.ErrInvalidConfig)
}

func TestParseCacheFlags(t *testing.T) {
	flags, err := ParseCacheFlags([]string{"members", "voice_states"})
	require.NoError(t, err)
	assert.Equal(t, CacheMembers|CacheVoiceStates, flags)

	_, err = ParseCacheFlags([]string{"roles"})
	assert.ErrorIs(t, err, shardmanager.ErrInvalidConfig)
}

func TestCacheIntentRequirements_DefaultIntentsLackPrivileged(t *testing.T) {
	assert.False(t, DefaultIntents.Has(CacheIntentRequirements[CacheMembers]))
	assert.True(t, DefaultIntents.Has(CacheIntentRequirements[CacheVoiceStates]))
}
