package core

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// ProductionURL is the public Kraken REST endpoint including the API version segment.
const ProductionURL = "https://api.kraken.com/0"

// Environment variable names read by ConfigFromEnv.
const (
	EnvAPIKey             = "API_KEY"
	EnvAPISecret          = "API_SECRET"
	EnvAPIKey2FA          = "API_KEY_2FA"
	EnvAPISecret2FA       = "API_SECRET_2FA"
	EnvPassphrase         = "API_PASSPHRASE"
	EnvPassphraseRequired = "API_PASSPHRASE_REQUIRED"
	EnvBaseURL            = "BASE_URL"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFile            = "LOG_FILE"
	EnvTimeout            = "HTTP_TIMEOUT"
)

// Credentials holds API authentication credentials.
// The primary pair is used unless the account requires two-factor authentication,
// in which case the 2FA pair and the passphrase are used.
type Credentials struct {
	// APIKey is the primary public API key identifier.
	APIKey string `json:"api_key"`
	// SecretKey is the primary base64 encoded private key used for signing.
	SecretKey string `json:"secret_key"`
	// TwoFactorKey is the API key used when 2FA is required.
	TwoFactorKey string `json:"two_factor_key,omitempty"`
	// TwoFactorSecret is the base64 encoded private key used when 2FA is required.
	TwoFactorSecret string `json:"two_factor_secret,omitempty"`
	// Passphrase is the OTP or password sent as "otp" on private calls.
	Passphrase string `json:"passphrase,omitempty"`
}

// Config contains all configuration options for a Kraken client.
type Config struct {
	BaseURL     string       `json:"base_url" validate:"required,url"`
	Credentials *Credentials `json:"credentials,omitempty"`

	// TwoFactorRequired is the raw boolean-like flag; only "1" enables 2FA.
	TwoFactorRequired string `json:"two_factor_required,omitempty"`

	// Timeout is the maximum duration for HTTP requests.
	Timeout time.Duration `json:"timeout" validate:"min=1ms"`

	// RateLimitRequests of zero disables client side rate limiting.
	RateLimitRequests int           `json:"rate_limit_requests" validate:"min=0"`
	RateLimitPeriod   time.Duration `json:"rate_limit_period" validate:"min=0"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFile  string `json:"log_file,omitempty"`
}

// DefaultConfig returns a Config initialized with defaults for the production API.
// Default values: 10s timeout, 15 requests per 45s, info logging.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: ProductionURL,
		Timeout: 10 * time.Second,

		RateLimitRequests: 15,
		RateLimitPeriod:   45 * time.Second,

		LogLevel: "info",
	}
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.RateLimitRequests > 0 && c.RateLimitPeriod <= 0 {
		return errors.New("RateLimitPeriod must be positive when rate limiting is enabled")
	}
	return nil
}

// WithCredentials sets the API credentials and returns the config for chaining.
func (c *Config) WithCredentials(creds *Credentials) *Config {
	c.Credentials = creds
	return c
}

// WithBaseURL sets the API base URL and returns the config for chaining.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithRateLimit sets the rate limiting parameters and returns the config for chaining.
func (c *Config) WithRateLimit(requests int, period time.Duration) *Config {
	c.RateLimitRequests = requests
	c.RateLimitPeriod = period
	return c
}

// WithTwoFactor sets the raw 2FA flag and returns the config for chaining.
func (c *Config) WithTwoFactor(flag string) *Config {
	c.TwoFactorRequired = flag
	return c
}

// ConfigFromEnv builds a Config from DefaultConfig, overriding fields from the
// values returned by lookup. A nil lookup reads the process environment.
// The result is not validated.
func ConfigFromEnv(lookup func(string) (string, bool)) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	cfg := DefaultConfig()
	if v := get(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := get(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	cfg.LogFile = get(EnvLogFile)
	if v := get(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			ms, convErr := strconv.Atoi(v)
			if convErr != nil {
				return nil, NewConfigError(ErrCodeInvalidConfig, EnvTimeout+" must be a duration: "+err.Error())
			}
			d = time.Duration(ms) * time.Millisecond
		}
		cfg.Timeout = d
	}

	cfg.TwoFactorRequired = get(EnvPassphraseRequired)
	cfg.Credentials = &Credentials{
		APIKey:          get(EnvAPIKey),
		SecretKey:       get(EnvAPISecret),
		TwoFactorKey:    get(EnvAPIKey2FA),
		TwoFactorSecret: get(EnvAPISecret2FA),
		Passphrase:      get(EnvPassphrase),
	}
	return cfg, nil
}
