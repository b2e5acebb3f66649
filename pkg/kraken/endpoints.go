package kraken

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"krakenrest/pkg/core"
)

// GetServerTime returns the exchange clock.
func (c *Client) GetServerTime(ctx context.Context) (*core.Response[core.ServerTime], error) {
	req, err := c.protocol.BuildRequest(core.OpGetServerTime, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return do[core.ServerTime](ctx, c, req)
}

// GetSystemStatus returns the trading status of the exchange.
func (c *Client) GetSystemStatus(ctx context.Context) (*core.Response[core.SystemStatus], error) {
	req, err := c.protocol.BuildRequest(core.OpGetSystemStatus, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return do[core.SystemStatus](ctx, c, req)
}

// GetTradableAssetPairs returns metadata for pairs, sent comma joined.
// info selects the detail level (info, leverage, fees, margin) and is
// omitted when empty.
func (c *Client) GetTradableAssetPairs(ctx context.Context, pairs []string, info string) (*core.Response[core.AssetPairs], error) {
	params := core.NewParams("pair", strings.Join(pairs, ","))
	if info != "" {
		params.Set("info", info)
	}

	req, err := c.protocol.BuildRequest(core.OpGetAssetPairs, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return do[core.AssetPairs](ctx, c, req)
}

// OpenOrdersOption adds an optional filter to GetOpenOrders.
type OpenOrdersOption func(*core.Params)

// WithTrades asks the exchange to include trade ids for each order.
func WithTrades(trades bool) OpenOrdersOption {
	return func(p *core.Params) {
		p.Set("trades", strconv.FormatBool(trades))
	}
}

// WithUserRef restricts results to orders tagged with ref.
func WithUserRef(ref int64) OpenOrdersOption {
	return func(p *core.Params) {
		p.Set("userref", strconv.FormatInt(ref, 10))
	}
}

// GetOpenOrders lists the account's open orders.
func (c *Client) GetOpenOrders(ctx context.Context, opts ...OpenOrdersOption) (*core.Response[core.OpenOrders], error) {
	params := c.privateParams()
	for _, opt := range opts {
		opt(params)
	}

	req, err := c.protocol.BuildRequest(core.OpGetOpenOrders, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return do[core.OpenOrders](ctx, c, req)
}

// GetAccountBalance returns the balance of every asset held.
func (c *Client) GetAccountBalance(ctx context.Context) (*core.Response[core.Balances], error) {
	req, err := c.protocol.BuildRequest(core.OpGetBalance, c.privateParams())
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return do[core.Balances](ctx, c, req)
}

// privateParams starts a private payload: nonce first, then otp when a
// passphrase is configured. The builder strips otp again if 2FA is off.
func (c *Client) privateParams() *core.Params {
	params := core.NewParams("nonce", c.nonces.NextString())
	if passphrase := c.keyRing.Passphrase(); passphrase != "" {
		params.Set("otp", passphrase)
	}
	return params
}
