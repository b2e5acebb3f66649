package kraken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"net/url"
	"strings"

	"krakenrest/pkg/core"
)

// apiVersionPrefix is prepended to the endpoint path before signing.
const apiVersionPrefix = "/0"

// escapeValue percent-encodes everything except A-Z a-z 0-9 - _ . ~.
// Spaces become %20, not +.
func escapeValue(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// EncodePayload returns the canonical string that is hashed when signing:
// nonce=<nonce> followed by every other entry of payload in insertion order,
// with values escaped. A nonce entry inside payload is skipped.
func EncodePayload(nonce string, payload *core.Params) string {
	var b strings.Builder
	b.WriteString("nonce=")
	b.WriteString(nonce)
	for _, e := range payload.Entries() {
		if e.Key == "nonce" {
			continue
		}
		b.WriteByte('&')
		b.WriteString(e.Key)
		b.WriteByte('=')
		b.WriteString(escapeValue(e.Value))
	}
	return b.String()
}

// Sign computes the API-Sign header value for a private call:
//
//	base64(HMAC-SHA512(base64decode(secret), "/0"+path + SHA256(nonce + EncodePayload(nonce, payload))))
//
// The result depends on the insertion order of payload.
func Sign(secret, path, nonce string, payload *core.Params) (string, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return "", core.NewConfigError(core.ErrCodeInvalidSecret, "decode api secret: "+err.Error()).WithCause(err)
	}

	digest := sha256.New()
	digest.Write([]byte(nonce))
	digest.Write([]byte(EncodePayload(nonce, payload)))

	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(apiVersionPrefix + path))
	mac.Write(digest.Sum(nil))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
