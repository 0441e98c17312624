package gateway

import "encoding/json"

// Gateway opcodes.
const (
	OpDispatch       = 0
	OpHeartbeat      = 1
	OpIdentify       = 2
	OpReconnect      = 7
	OpInvalidSession = 9
	OpHello          = 10
	OpHeartbeatAck   = 11
)

// EventReady is the dispatch that completes the login handshake.
const EventReady = "READY"

// Close codes sent by the gateway.
const (
	CloseAuthenticationFailed = 4004
	CloseInvalidShard         = 4010
	CloseShardingRequired     = 4011
	CloseInvalidAPIVersion    = 4012
	CloseInvalidIntents       = 4013
	CloseDisallowedIntents    = 4014
)

// Payload is a gateway frame.
type Payload struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  *int64          `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

type hello struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

type identify struct {
	Token          string             `json:"token"`
	Intents        uint64             `json:"intents"`
	Shard          [2]int             `json:"shard"`
	LargeThreshold int                `json:"large_threshold,omitempty"`
	Presence       *identifyPresence  `json:"presence,omitempty"`
	Properties     identifyProperties `json:"properties"`
}

type identifyPresence struct {
	Status     string             `json:"status"`
	AFK        bool               `json:"afk"`
	Activities []presenceActivity `json:"activities"`
	Since      *int64             `json:"since"`
}

type presenceActivity struct {
	Name string `json:"name"`
	Type int    `json:"type"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type ready struct {
	SessionID string `json:"session_id"`
}
