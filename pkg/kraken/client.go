package kraken

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"net/http"

	"github.com/rs/zerolog"

	"krakenrest/internal/keyring"
	"krakenrest/internal/nonce"
	"krakenrest/internal/ratelimit"
	"krakenrest/internal/transport"
	"krakenrest/pkg/core"
)

const formContentType = "application/x-www-form-urlencoded"

// Client is a Kraken REST client. Every call issues at most one HTTP request;
// nothing is retried.
type Client struct {
	config      *core.Config
	keyRing     *keyring.KeyRing
	nonces      *nonce.Generator
	rateLimiter *ratelimit.RateLimiter
	httpClient  *transport.Client
	protocol    *Protocol
	normalizer  *Normalizer
	logger      zerolog.Logger
}

// Option is a functional option for configuring the Client.
type Option func(*Options)

// Options holds configuration options for the Client.
type Options struct {
	Logger zerolog.Logger
	Nonces *nonce.Generator
}

// WithLogger returns an option that sets the logger for the client.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithNonceGenerator returns an option that replaces the wall clock nonce source.
func WithNonceGenerator(g *nonce.Generator) Option {
	return func(o *Options) {
		o.Nonces = g
	}
}

// New creates a Client from config. Credentials are only checked when a
// private endpoint is called, so a client without keys can still use public ones.
func New(config *core.Config, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, core.NewConfigError(core.ErrCodeInvalidConfig, "config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	options := &Options{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.Nonces == nil {
		options.Nonces = nonce.New()
	}

	return &Client{
		config:      config,
		keyRing:     keyring.New(config.Credentials, config.TwoFactorRequired, keyring.WithLogger(options.Logger)),
		nonces:      options.Nonces,
		rateLimiter: ratelimit.New(config.RateLimitRequests, config.RateLimitPeriod),
		httpClient:  transport.NewClient(config.BaseURL, config.Timeout, options.Logger),
		protocol:    NewProtocol(),
		normalizer:  NewNormalizer(),
		logger:      options.Logger,
	}, nil
}

// Name returns the exchange identifier "kraken".
func (c *Client) Name() string {
	return c.protocol.Name()
}

// Normalizer returns the decimal normalizer shared by the client.
func (c *Client) Normalizer() *Normalizer {
	return c.normalizer
}

// RequiresTwoFactor reports the memoized 2FA decision.
func (c *Client) RequiresTwoFactor() bool {
	return c.keyRing.RequiresTwoFactor()
}

// ReloadTwoFactor drops the cached 2FA decision so the next private call
// re-reads the configured flag.
func (c *Client) ReloadTwoFactor() {
	c.keyRing.Invalidate()
}

// Close releases resources used by the client, including the HTTP client.
func (c *Client) Close() error {
	if c.httpClient != nil {
		return c.httpClient.Close()
	}
	return nil
}

// call is a request ready for the wire.
type call struct {
	method  string
	target  string
	headers map[string]string
	body    string
}

// Execute sends a request to path with payload and decodes the envelope into
// core.Response[T]. It succeeds only on HTTP 200 with a decodable body;
// exchange-reported errors stay inside the returned Response.
func Execute[T any](ctx context.Context, c *Client, method, path string, payload *core.Params) (*core.Response[T], error) {
	req := core.NewRequest(method, path).
		SetParams(payload).
		SetRequireAuth(isPrivate(path))
	return do[T](ctx, c, req)
}

func do[T any](ctx context.Context, c *Client, req *core.Request) (*core.Response[T], error) {
	prepared, err := c.prepare(req)
	if err != nil {
		return nil, err
	}

	bucket := ratelimit.BucketPublic
	if req.RequireAuth {
		bucket = ratelimit.BucketPrivate
	}
	if err := c.rateLimiter.Wait(ctx, bucket); err != nil {
		return nil, transportError(fmt.Errorf("rate limit: %w", err))
	}

	resp, err := c.httpClient.Do(ctx, prepared.method, prepared.target, prepared.headers, prepared.body)
	return classify[T](resp, err)
}

// prepare resolves credentials, signs private payloads and encodes the
// payload as a query string or form body. It performs no I/O, so any
// configuration error surfaces before a request is sent.
func (c *Client) prepare(req *core.Request) (*call, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodPost {
		return nil, core.NewExchangeErrorWithCode(core.ErrorTypeBadRequest, http.StatusBadRequest,
			core.ErrCodeUnsupported, fmt.Sprintf("unsupported http method: %s", req.Method))
	}

	payload := req.Params.Clone()
	headers := make(map[string]string, len(req.Headers)+3)
	maps.Copy(headers, req.Headers)

	if isPrivate(req.Path) {
		if c.keyRing.RequiresTwoFactor() {
			if err := c.keyRing.Validate(); err != nil {
				return nil, err
			}
		} else {
			payload.Del("otp")
		}

		if !payload.IsEmpty() {
			key, err := c.keyRing.Active()
			if err != nil {
				return nil, err
			}
			nonceValue, ok := payload.Get("nonce")
			if !ok {
				nonceValue = c.nonces.NextString()
			}
			signature, err := Sign(key.Secret, req.Path, nonceValue, payload)
			if err != nil {
				return nil, err
			}
			headers["API-Key"] = key.Key
			headers["API-Sign"] = signature
		}
	}

	out := &call{
		method:  req.Method,
		target:  req.Path,
		headers: headers,
	}
	if payload.IsEmpty() {
		return out, nil
	}
	switch req.Method {
	case http.MethodGet:
		out.target += "?" + payload.Encode(nil)
	case http.MethodPost:
		out.body = payload.Encode(escapeValue)
		out.headers["Content-Type"] = formContentType
	}
	return out, nil
}

// classify turns a transport outcome into a decoded envelope or an error
// carrying an HTTP-status-like code.
func classify[T any](resp *transport.Response, err error) (*core.Response[T], error) {
	if err != nil {
		return nil, transportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, core.NewExchangeErrorWithCode(core.StatusErrorType(resp.StatusCode), resp.StatusCode,
			core.ErrCodeHTTPStatus, fmt.Sprintf("unexpected http status %d", resp.StatusCode))
	}

	var out core.Response[T]
	if err := resp.Unmarshal(&out); err != nil {
		return nil, core.NewExchangeErrorWithCode(core.ErrorTypeDecode, http.StatusBadRequest,
			core.ErrCodeDecode, "decode response: "+err.Error()).WithCause(err)
	}
	return &out, nil
}

// transportError classifies a failure that produced no HTTP status.
func transportError(err error) error {
	if errors.Is(err, core.ErrClientClosed) {
		return core.NewExchangeErrorWithCode(core.ErrorTypeNetwork, http.StatusBadRequest,
			core.ErrCodeClientClosed, err.Error()).WithCause(err)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return core.NewExchangeErrorWithCode(core.ErrorTypeTimeout, http.StatusBadRequest,
			core.ErrCodeTimeout, err.Error()).WithCause(err)
	}
	return core.NewExchangeErrorWithCode(core.ErrorTypeNetwork, http.StatusBadRequest,
		core.ErrCodeBadRequest, err.Error()).WithCause(err)
}
