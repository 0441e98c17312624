package gateway

import (
	"fmt"

	"github.com/getpup/shardmanager"
)

// Gateway intents.
const (
	IntentGuilds                  shardmanager.Intents = 1 << 0
	IntentGuildMembers            shardmanager.Intents = 1 << 1
	IntentGuildModeration         shardmanager.Intents = 1 << 2
	IntentGuildEmojis             shardmanager.Intents = 1 << 3
	IntentGuildVoiceStates        shardmanager.Intents = 1 << 7
	IntentGuildPresences          shardmanager.Intents = 1 << 8
	IntentGuildMessages           shardmanager.Intents = 1 << 9
	IntentGuildMessageReactions   shardmanager.Intents = 1 << 10
	IntentDirectMessages          shardmanager.Intents = 1 << 12
	IntentMessageContent          shardmanager.Intents = 1 << 15
	IntentGuildScheduledEvents    shardmanager.Intents = 1 << 16
	IntentAutoModerationExecution shardmanager.Intents = 1 << 21
)

// DefaultIntents excludes the privileged intents.
const DefaultIntents = IntentGuilds | IntentGuildModeration | IntentGuildEmojis | IntentGuildVoiceStates |
	IntentGuildMessages | IntentGuildMessageReactions | IntentDirectMessages | IntentGuildScheduledEvents

// Entity cache flags.
const (
	CacheMembers     shardmanager.CacheFlags = 1 << 0
	CacheVoiceStates shardmanager.CacheFlags = 1 << 1
	CachePresences   shardmanager.CacheFlags = 1 << 2
	CacheEmojis      shardmanager.CacheFlags = 1 << 3
	CacheScheduled   shardmanager.CacheFlags = 1 << 4
)

// CacheIntentRequirements lists the intents each cache flag depends on.
var CacheIntentRequirements = map[shardmanager.CacheFlags]shardmanager.Intents{
	CacheMembers:     IntentGuildMembers,
	CacheVoiceStates: IntentGuildVoiceStates,
	CachePresences:   IntentGuildPresences,
	CacheEmojis:      IntentGuildEmojis,
	CacheScheduled:   IntentGuildScheduledEvents,
}

var intentNames = map[string]shardmanager.Intents{
	"guilds":                    IntentGuilds,
	"guild_members":             IntentGuildMembers,
	"guild_moderation":          IntentGuildModeration,
	"guild_emojis":              IntentGuildEmojis,
	"guild_voice_states":        IntentGuildVoiceStates,
	"guild_presences":           IntentGuildPresences,
	"guild_messages":            IntentGuildMessages,
	"guild_message_reactions":   IntentGuildMessageReactions,
	"direct_messages":           IntentDirectMessages,
	"message_content":           IntentMessageContent,
	"guild_scheduled_events":    IntentGuildScheduledEvents,
	"auto_moderation_execution": IntentAutoModerationExecution,
}

var cacheFlagNames = map[string]shardmanager.CacheFlags{
	"members":      CacheMembers,
	"voice_states": CacheVoiceStates,
	"presences":    CachePresences,
	"emojis":       CacheEmojis,
	"scheduled":    CacheScheduled,
}

// ParseIntents combines intents by name. "default" expands to DefaultIntents.
func ParseIntents(names []string) (shardmanager.Intents, error) {
	var out shardmanager.Intents
	for _, name := range names {
		if name == "default" {
			out |= DefaultIntents
			continue
		}
		intent, ok := intentNames[name]
		if !ok {
			return 0, fmt.Errorf("%w: unknown intent %q", shardmanager.ErrInvalidConfig, name)
		}
		out |= intent
	}
	return out, nil
}

// ParseCacheFlags combines cache flags by name.
func ParseCacheFlags(names []string) (shardmanager.CacheFlags, error) {
	var out shardmanager.CacheFlags
	for _, name := range names {
		flag, ok := cacheFlagNames[name]
		if !ok {
			return 0, fmt.Errorf("%w: unknown cache flag %q", shardmanager.ErrInvalidConfig, name)
		}
		out |= flag
	}
	return out, nil
}
