package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"strconv"
	"time"

	"github.com/getpup/shardmanager"
	"github.com/gorilla/websocket"
)

const (
	defaultVersion = 10
	writeTimeout   = 10 * time.Second
)

// ConnectorConfig configures the Connector.
type ConnectorConfig struct {
	// Token authenticates the bot (required).
	Token string

	// Version is the gateway protocol version (default: 10).
	Version int

	// Dialer dials the gateway (default: websocket.DefaultDialer).
	Dialer *websocket.Dialer

	// OnDisconnect is called when an established session drops without being
	// shut down (optional).
	OnDisconnect func(shardID int, err error)

	// Logger is for observability (optional).
	Logger shardmanager.Logger
}

// Connector dials the gateway and performs the login handshake for one shard.
type Connector struct {
	config ConnectorConfig
}

var _ shardmanager.Connector = (*Connector)(nil)

// NewConnector creates a Connector. Applies defaults for Version and Dialer if not set.
func NewConnector(cfg ConnectorConfig) *Connector {
	if cfg.Version == 0 {
		cfg.Version = defaultVersion
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}

	return &Connector{config: cfg}
}

// BuildAndLogin implements shardmanager.Connector. It waits for HELLO, sends
// IDENTIFY and returns once READY arrives. Closing ctx abandons the handshake.
func (c *Connector) BuildAndLogin(ctx context.Context, cfg shardmanager.SessionConfig) (shardmanager.Session, error) {
	target, err := c.gatewayURL(cfg.GatewayURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := c.config.Dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial gateway: %w", err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})

	s := newSession(cfg, conn, c.config.Logger, c.config.OnDisconnect)

	interval, err := s.handshake(c.identify(cfg))
	if !stop() {
		s.cancel()
		_ = conn.Close()
		return nil, fmt.Errorf("handshake abandoned: %w", ctx.Err())
	}
	if err != nil {
		s.cancel()
		_ = conn.Close()
		return nil, err
	}

	s.start(interval)
	return s, nil
}

func (c *Connector) gatewayURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse gateway url: %w", err)
	}

	q := u.Query()
	q.Set("v", strconv.Itoa(c.config.Version))
	q.Set("encoding", "json")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Connector) identify(cfg shardmanager.SessionConfig) identify {
	total := cfg.ShardsTotal
	if total < 1 {
		total = 1
	}

	id := identify{
		Token:          c.config.Token,
		Intents:        uint64(cfg.Intents),
		Shard:          [2]int{cfg.ShardID, total},
		LargeThreshold: cfg.Chunking.LargeThreshold,
		Properties: identifyProperties{
			OS:      runtime.GOOS,
			Browser: "shardmanager",
			Device:  "shardmanager",
		},
	}

	if cfg.Presence != (shardmanager.Presence{}) {
		p := &identifyPresence{
			Status:     cfg.Presence.Status,
			AFK:        cfg.Presence.AFK,
			Activities: []presenceActivity{},
		}
		if p.Status == "" {
			p.Status = "online"
		}
		if cfg.Presence.Activity != "" {
			p.Activities = append(p.Activities, presenceActivity{Name: cfg.Presence.Activity})
		}
		id.Presence = p
	}

	return id
}

// closeError maps gateway close codes to shardmanager errors.
func closeError(err error) error {
	var ce *websocket.CloseError
	if !errors.As(err, &ce) {
		return err
	}

	switch ce.Code {
	case CloseAuthenticationFailed:
		return fmt.Errorf("%w: gateway closed with %d %s", shardmanager.ErrAuthentication, ce.Code, ce.Text)
	case CloseInvalidShard, CloseShardingRequired, CloseInvalidAPIVersion, CloseInvalidIntents, CloseDisallowedIntents:
		return fmt.Errorf("%w: gateway closed with %d %s", shardmanager.ErrInvalidConfig, ce.Code, ce.Text)
	default:
		return fmt.Errorf("gateway closed with %d %s: %w", ce.Code, ce.Text, err)
	}
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errors.New("empty payload data")
	}
	return json.Unmarshal(raw, v)
}
