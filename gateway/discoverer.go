// Package gateway implements shard discovery and sessions against a
// websocket gateway speaking the HELLO / IDENTIFY / READY handshake.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/getpup/shardmanager"
)

// DiscovererConfig configures the Discoverer.
type DiscovererConfig struct {
	// APIBase is the REST base URL, for example "https://gateway.example/api/v10" (required).
	APIBase string

	// Token authenticates the bot (required).
	Token string

	// HTTPClient is used for requests (default: client with a 10s timeout).
	HTTPClient *http.Client

	// Logger is for observability (optional).
	Logger shardmanager.Logger
}

// Discoverer queries the gateway entry point over HTTP.
type Discoverer struct {
	config DiscovererConfig
}

var _ shardmanager.Discoverer = (*Discoverer)(nil)

// NewDiscoverer creates a Discoverer. Applies the default HTTP client if not set.
func NewDiscoverer(cfg DiscovererConfig) *Discoverer {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")

	return &Discoverer{config: cfg}
}

type gatewayBotResponse struct {
	URL    string `json:"url"`
	Shards int    `json:"shards"`
}

// DiscoverGateway implements shardmanager.Discoverer.
// 401 and 403 responses wrap shardmanager.ErrAuthentication.
func (d *Discoverer) DiscoverGateway(ctx context.Context) (shardmanager.GatewayInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.config.APIBase+"/gateway/bot", nil)
	if err != nil {
		return shardmanager.GatewayInfo{}, fmt.Errorf("failed to create gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+d.config.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := d.config.HTTPClient.Do(req)
	if err != nil {
		return shardmanager.GatewayInfo{}, fmt.Errorf("failed to query gateway: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return shardmanager.GatewayInfo{}, fmt.Errorf("%w: gateway query returned %s", shardmanager.ErrAuthentication, resp.Status)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return shardmanager.GatewayInfo{}, fmt.Errorf("gateway query returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out gatewayBotResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return shardmanager.GatewayInfo{}, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if out.URL == "" {
		return shardmanager.GatewayInfo{}, errors.New("gateway response has no url")
	}

	if d.config.Logger != nil {
		d.config.Logger.Debug(ctx, "gateway queried", "url", out.URL, "shards", out.Shards)
	}

	return shardmanager.GatewayInfo{URL: out.URL, RecommendedShards: out.Shards}, nil
}
