// Package keyring holds the API credentials used to sign private requests and
// decides which key pair is active for the account's 2FA setting.
package keyring

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"krakenrest/pkg/core"
)

// TwoFactorEnabled is the only raw flag value that enables two-factor mode.
const TwoFactorEnabled = "1"

// APIKey is a single key/secret pair.
type APIKey struct {
	ID     string
	Key    string
	Secret string
}

// KeyRing holds the primary and the 2FA key pair together with the passphrase.
// The 2FA decision is parsed once from the raw flag and cached until Invalidate.
type KeyRing struct {
	mu         sync.RWMutex
	primary    *APIKey
	twoFactor  *APIKey
	passphrase string
	rawFlag    string
	required   *bool
	logger     zerolog.Logger
}

type Option func(*KeyRing)

func WithLogger(logger zerolog.Logger) Option {
	return func(k *KeyRing) {
		k.logger = logger
	}
}

// New builds a KeyRing from credentials and the raw 2FA flag.
// Nil credentials produce an empty ring; signing with it fails with a config error.
func New(creds *core.Credentials, twoFactorFlag string, opts ...Option) *KeyRing {
	k := &KeyRing{
		primary:   &APIKey{ID: "primary"},
		twoFactor: &APIKey{ID: "2fa"},
		rawFlag:   twoFactorFlag,
		logger:    zerolog.Nop(),
	}
	if creds != nil {
		k.primary.Key = creds.APIKey
		k.primary.Secret = creds.SecretKey
		k.twoFactor.Key = creds.TwoFactorKey
		k.twoFactor.Secret = creds.TwoFactorSecret
		k.passphrase = creds.Passphrase
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// ParseTwoFactorFlag interprets a raw boolean-like flag value.
// Unset or empty means false; only "1" means true.
func ParseTwoFactorFlag(raw string) bool {
	return raw == TwoFactorEnabled
}

// RequiresTwoFactor reports whether the account requires 2FA.
// The flag is parsed on first use and the result is memoized.
func (k *KeyRing) RequiresTwoFactor() bool {
	k.mu.RLock()
	if k.required != nil {
		v := *k.required
		k.mu.RUnlock()
		return v
	}
	k.mu.RUnlock()

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.required == nil {
		v := ParseTwoFactorFlag(k.rawFlag)
		k.required = &v
		k.logger.Debug().Bool("two_factor", v).Msg("resolved two factor flag")
	}
	return *k.required
}

// SetTwoFactorFlag replaces the raw flag and drops the cached decision.
func (k *KeyRing) SetTwoFactorFlag(raw string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.rawFlag = raw
	k.required = nil
}

// Invalidate drops the cached 2FA decision; the next call re-parses the flag.
func (k *KeyRing) Invalidate() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.required = nil
}

// Passphrase returns the configured OTP/passphrase, possibly empty.
func (k *KeyRing) Passphrase() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.passphrase
}

// Active returns the key pair that signs private requests.
// It fails with a config error when the selected pair is incomplete.
func (k *KeyRing) Active() (*APIKey, error) {
	key := k.primary
	if k.RequiresTwoFactor() {
		key = k.twoFactor
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	if key.Key == "" || key.Secret == "" {
		return nil, core.NewConfigError(core.ErrCodeNoCredentials,
			fmt.Sprintf("%s key pair is not configured", key.ID)).WithCause(core.ErrNoCredentials)
	}
	return &APIKey{ID: key.ID, Key: key.Key, Secret: key.Secret}, nil
}

// Validate checks the material needed for 2FA. It is a no-op when 2FA is off.
func (k *KeyRing) Validate() error {
	if !k.RequiresTwoFactor() {
		return nil
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.twoFactor.Key == "" || k.twoFactor.Secret == "" {
		return core.NewConfigError(core.ErrCodeNoCredentials,
			"2fa key pair is required but not configured").WithCause(core.ErrNoCredentials)
	}
	if k.passphrase == "" {
		return core.NewConfigError(core.ErrCodePassphraseRequired,
			core.ErrPassphraseRequired.Error()).WithCause(core.ErrPassphraseRequired)
	}
	return nil
}

func (k *APIKey) String() string {
	return fmt.Sprintf("APIKey{ID:%s, Key:%s}", k.ID, maskKey(k.Key))
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
