package kraken

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenrest/internal/nonce"
	"krakenrest/pkg/core"
)

const (
	testKey       = "primary-api-key"
	testKey2FA    = "two-factor-api-key"
	testOTP       = "123456"
	fixedNonce    = 1616492376594
	serverTimeOK  = `{"error":[],"result":{"unixtime":1616492376,"rfc1123":"Tue, 23 Mar 21 09:39:36 +0000"}}`
	openOrdersOK  = `{"error":[],"result":{"open":{}}}`
	balanceResult = `{"error":[],"result":{"ZUSD":"171288.6158","XXBT":"0.0000000000"}}`
)

type captured struct {
	method     string
	path       string
	rawQuery   string
	requestURI string
	headers    http.Header
	body       string
}

type testServer struct {
	*httptest.Server
	hits atomic.Int32
	last atomic.Pointer[captured]
}

func newTestServer(t *testing.T, status int, body string) *testServer {
	t.Helper()
	ts := &testServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		data, _ := io.ReadAll(r.Body)
		ts.last.Store(&captured{
			method:     r.Method,
			path:       r.URL.Path,
			rawQuery:   r.URL.RawQuery,
			requestURI: r.RequestURI,
			headers:    r.Header.Clone(),
			body:       string(data),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testCreds() *core.Credentials {
	return &core.Credentials{
		APIKey:          testKey,
		SecretKey:       testSecret,
		TwoFactorKey:    testKey2FA,
		TwoFactorSecret: testSecret,
		Passphrase:      testOTP,
	}
}

func newTestClient(t *testing.T, baseURL string, creds *core.Credentials, twoFactor string) *Client {
	t.Helper()
	config := core.DefaultConfig().
		WithBaseURL(baseURL).
		WithCredentials(creds).
		WithTwoFactor(twoFactor).
		WithRateLimit(0, 0).
		WithTimeout(2 * time.Second)

	client, err := New(config, WithNonceGenerator(nonce.Fixed(fixedNonce)))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

// parseOrdered splits a form body into Params keeping the wire order.
func parseOrdered(t *testing.T, body string) *core.Params {
	t.Helper()
	params := &core.Params{}
	if body == "" {
		return params
	}
	for _, pair := range strings.Split(body, "&") {
		k, v, _ := strings.Cut(pair, "=")
		value, err := url.QueryUnescape(v)
		require.NoError(t, err)
		params.Set(k, value)
	}
	return params
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(core.DefaultConfig().WithBaseURL(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")

	_, err = New(nil)
	require.Error(t, err)
	assert.True(t, core.IsConfigError(err))
}

func TestClient_Name(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", nil, "")
	assert.Equal(t, "kraken", client.Name())
	assert.NotNil(t, client.Normalizer())
}

func TestClient_GetServerTime(t *testing.T) {
	server := newTestServer(t, http.StatusOK, serverTimeOK)
	client := newTestClient(t, server.URL, testCreds(), "")

	resp, err := client.GetServerTime(context.Background())
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.Equal(t, int64(1616492376), resp.Result.Unixtime)

	req := server.last.Load()
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/public/Time", req.path)
	assert.Empty(t, req.rawQuery)
	assert.NotContains(t, req.requestURI, "?")
	assert.Empty(t, req.headers.Get("API-Key"), "public calls are unauthenticated")
	assert.Empty(t, req.headers.Get("API-Sign"))
}

func TestClient_GetSystemStatus(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"error":[],"result":{"status":"online","timestamp":"2023-07-06T18:52:00Z"}}`)
	client := newTestClient(t, server.URL, nil, "")

	resp, err := client.GetSystemStatus(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "online", resp.Result.Status)
	assert.Equal(t, "/public/SystemStatus", server.last.Load().path)
}

func TestClient_GetTradableAssetPairs(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		info    string
		wantURI string
	}{
		{"single_pair", []string{"XBTUSD"}, "", "/public/AssetPairs?pair=XBTUSD"},
		{"pairs_and_info", []string{"XBTUSD", "ETHUSD"}, "fees", "/public/AssetPairs?pair=XBTUSD,ETHUSD&info=fees"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, http.StatusOK, `{"error":[],"result":{"XXBTZUSD":{"altname":"XBTUSD"}}}`)
			client := newTestClient(t, server.URL, nil, "")

			resp, err := client.GetTradableAssetPairs(context.Background(), tt.pairs, tt.info)
			require.NoError(t, err)
			assert.Equal(t, "XBTUSD", resp.Result["XXBTZUSD"].Altname)

			req := server.last.Load()
			assert.Equal(t, tt.wantURI, req.requestURI)
			assert.Empty(t, req.headers.Get("API-Key"))
		})
	}
}

func TestClient_GetOpenOrders_Signed(t *testing.T) {
	server := newTestServer(t, http.StatusOK, openOrdersOK)
	creds := testCreds()
	creds.Passphrase = ""
	client := newTestClient(t, server.URL, creds, "")

	resp, err := client.GetOpenOrders(context.Background(), WithTrades(true))
	require.NoError(t, err)
	assert.True(t, resp.OK())

	req := server.last.Load()
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/private/OpenOrders", req.path)
	assert.Equal(t, "application/x-www-form-urlencoded", req.headers.Get("Content-Type"))
	assert.Equal(t, "nonce=1616492376594&trades=true", req.body)
	assert.Equal(t, testKey, req.headers.Get("API-Key"))
	assert.Equal(t,
		"jeETORU77qWM2mLckepHd1NfGzHBC4RHw/Ng75r3UIPGW/fRd9C/0+Tiero2Hpxwmn8RAZkYVbWTHeVpZWEOQg==",
		req.headers.Get("API-Sign"))
}

func TestClient_GetOpenOrders_StripsOTPWithoutTwoFactor(t *testing.T) {
	tests := []struct {
		name string
		flag string
	}{
		{"flag_unset", ""},
		{"flag_zero", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, http.StatusOK, openOrdersOK)
			client := newTestClient(t, server.URL, testCreds(), tt.flag)

			_, err := client.GetOpenOrders(context.Background())
			require.NoError(t, err)

			req := server.last.Load()
			assert.Equal(t, "nonce=1616492376594", req.body)
			assert.NotContains(t, req.body, "otp")
			assert.Equal(t, testKey, req.headers.Get("API-Key"))
			assert.Equal(t,
				"M2dCnoNm9pQZLqt/qSu6cmChqEfblzPB0ya3W4Jg/p06ri1AHFH1WmKa/2pg5jhgTP5w2MR2VUxo9xcLWk8rhw==",
				req.headers.Get("API-Sign"))
		})
	}
}

func TestClient_GetOpenOrders_TwoFactor(t *testing.T) {
	server := newTestServer(t, http.StatusOK, openOrdersOK)
	client := newTestClient(t, server.URL, testCreds(), "1")

	_, err := client.GetOpenOrders(context.Background())
	require.NoError(t, err)

	req := server.last.Load()
	assert.Equal(t, testKey2FA, req.headers.Get("API-Key"))
	assert.Equal(t, "nonce=1616492376594&otp=123456", req.body)

	want, err := Sign(testSecret, PathOpenOrders, "1616492376594", core.NewParams("nonce", "1616492376594", "otp", testOTP))
	require.NoError(t, err)
	assert.Equal(t, want, req.headers.Get("API-Sign"))
}

func TestClient_TwoFactorWithoutPassphrase(t *testing.T) {
	server := newTestServer(t, http.StatusOK, openOrdersOK)
	creds := testCreds()
	creds.Passphrase = ""
	client := newTestClient(t, server.URL, creds, "1")

	_, err := client.GetOpenOrders(context.Background())

	require.Error(t, err)
	assert.True(t, core.IsConfigError(err))
	assert.ErrorIs(t, err, core.ErrPassphraseRequired)
	assert.Equal(t, http.StatusBadRequest, core.StatusCode(err))
	assert.Equal(t, int32(0), server.hits.Load(), "no request may be sent")
}

func TestClient_TwoFactorWithoutPassphrase_EmptyPayload(t *testing.T) {
	server := newTestServer(t, http.StatusOK, openOrdersOK)
	creds := testCreds()
	creds.Passphrase = ""
	client := newTestClient(t, server.URL, creds, "1")

	_, err := Execute[core.OpenOrders](context.Background(), client, http.MethodPost, PathOpenOrders, nil)

	require.Error(t, err)
	assert.True(t, core.IsErrorCode(err, core.ErrCodePassphraseRequired))
	assert.Equal(t, int32(0), server.hits.Load())
}

func TestClient_MissingCredentials(t *testing.T) {
	server := newTestServer(t, http.StatusOK, balanceResult)
	client := newTestClient(t, server.URL, nil, "")

	_, err := client.GetAccountBalance(context.Background())

	require.Error(t, err)
	assert.True(t, core.IsConfigError(err))
	assert.ErrorIs(t, err, core.ErrNoCredentials)
	assert.Equal(t, int32(0), server.hits.Load())
}

func TestClient_InvalidSecret(t *testing.T) {
	server := newTestServer(t, http.StatusOK, balanceResult)
	client := newTestClient(t, server.URL, &core.Credentials{APIKey: testKey, SecretKey: "%%%"}, "")

	_, err := client.GetAccountBalance(context.Background())

	require.Error(t, err)
	assert.True(t, core.IsErrorCode(err, core.ErrCodeInvalidSecret))
	assert.Equal(t, int32(0), server.hits.Load())
}

func TestClient_GetAccountBalance(t *testing.T) {
	server := newTestServer(t, http.StatusOK, balanceResult)
	creds := testCreds()
	creds.Passphrase = ""
	client := newTestClient(t, server.URL, creds, "")

	resp, err := client.GetAccountBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "171288.6158", resp.Result["ZUSD"])

	req := server.last.Load()
	assert.Equal(t, "/private/Balance", req.path)
	assert.Equal(t, "nonce=1616492376594", req.body)

	want, err := Sign(testSecret, PathBalance, "1616492376594", core.NewParams("nonce", "1616492376594"))
	require.NoError(t, err)
	assert.Equal(t, want, req.headers.Get("API-Sign"))
}

func TestClient_SignatureMatchesWireBody(t *testing.T) {
	server := newTestServer(t, http.StatusOK, openOrdersOK)
	creds := testCreds()
	creds.Passphrase = ""
	client := newTestClient(t, server.URL, creds, "")

	_, err := client.GetOpenOrders(context.Background(), WithUserRef(42), WithTrades(true))
	require.NoError(t, err)

	req := server.last.Load()
	payload := parseOrdered(t, req.body)
	assert.Equal(t, []string{"nonce", "userref", "trades"}, payload.Keys())

	n, ok := payload.Get("nonce")
	require.True(t, ok)
	recomputed, err := Sign(testSecret, req.path, n, payload)
	require.NoError(t, err)
	assert.Equal(t, recomputed, req.headers.Get("API-Sign"))
}

func TestExecute_GeneratedNonceNotInserted(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"error":[],"result":{}}`)
	client := newTestClient(t, server.URL, testCreds(), "")

	payload := core.NewParams("asset", "ZUSD")
	_, err := Execute[map[string]string](context.Background(), client, http.MethodPost, "/private/TradeBalance", payload)
	require.NoError(t, err)

	req := server.last.Load()
	assert.Equal(t, "asset=ZUSD", req.body)

	want, err := Sign(testSecret, "/private/TradeBalance", "1616492376594", payload)
	require.NoError(t, err)
	assert.Equal(t, want, req.headers.Get("API-Sign"))
}

func TestExecute_PrivateEmptyPayloadHasNoAuthHeaders(t *testing.T) {
	server := newTestServer(t, http.StatusOK, openOrdersOK)
	client := newTestClient(t, server.URL, testCreds(), "")

	_, err := Execute[core.OpenOrders](context.Background(), client, http.MethodPost, PathOpenOrders, &core.Params{})
	require.NoError(t, err)

	req := server.last.Load()
	assert.Empty(t, req.headers.Get("API-Key"))
	assert.Empty(t, req.headers.Get("API-Sign"))
	assert.Empty(t, req.body)
}

func TestExecute_OTPOnlyPayloadBecomesEmpty(t *testing.T) {
	server := newTestServer(t, http.StatusOK, openOrdersOK)
	client := newTestClient(t, server.URL, testCreds(), "")

	_, err := Execute[core.OpenOrders](context.Background(), client, http.MethodPost, PathOpenOrders, core.NewParams("otp", testOTP))
	require.NoError(t, err)

	req := server.last.Load()
	assert.Empty(t, req.body)
	assert.Empty(t, req.headers.Get("API-Sign"))
}

func TestExecute_UnsupportedMethod(t *testing.T) {
	server := newTestServer(t, http.StatusOK, serverTimeOK)
	client := newTestClient(t, server.URL, nil, "")

	_, err := Execute[core.ServerTime](context.Background(), client, http.MethodDelete, PathServerTime, nil)

	require.Error(t, err)
	assert.True(t, core.IsErrorCode(err, core.ErrCodeUnsupported))
	assert.Equal(t, int32(0), server.hits.Load())
}

func TestClient_NonOKStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantType core.ErrorType
	}{
		{"service_unavailable", http.StatusServiceUnavailable, core.ErrorTypeServerError},
		{"too_many_requests", http.StatusTooManyRequests, core.ErrorTypeRateLimit},
		{"forbidden", http.StatusForbidden, core.ErrorTypeAuthentication},
		{"not_found", http.StatusNotFound, core.ErrorTypeNotFound},
		{"created", http.StatusCreated, core.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.status, serverTimeOK)
			client := newTestClient(t, server.URL, nil, "")

			_, err := client.GetServerTime(context.Background())

			require.Error(t, err)
			assert.Equal(t, tt.status, core.StatusCode(err))
			assert.True(t, core.IsErrorCode(err, core.ErrCodeHTTPStatus))

			var exErr *core.ExchangeError
			require.ErrorAs(t, err, &exErr)
			assert.Equal(t, tt.wantType, exErr.Type)
			assert.Equal(t, int32(1), server.hits.Load(), "no retries")
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := newTestClient(t, baseURL, nil, "")

	_, err := client.GetServerTime(context.Background())

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, core.StatusCode(err))
	assert.True(t, core.IsNetworkError(err) || core.IsTimeoutError(err))
}

func TestClient_DecodeFailure(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not_json", "<html>maintenance</html>"},
		{"wrong_shape", `{"error":[],"result":{"unixtime":"soon"}}`},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, http.StatusOK, tt.body)
			client := newTestClient(t, server.URL, nil, "")

			_, err := client.GetServerTime(context.Background())

			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, core.StatusCode(err))
			assert.True(t, core.IsDecodeError(err))
			assert.True(t, core.IsErrorCode(err, core.ErrCodeDecode))
		})
	}
}

func TestClient_BusinessErrorIsNotAFailure(t *testing.T) {
	server := newTestServer(t, http.StatusOK, `{"error":["EAPI:Invalid key"]}`)
	client := newTestClient(t, server.URL, testCreds(), "")

	resp, err := client.GetOpenOrders(context.Background())
	require.NoError(t, err)

	assert.False(t, resp.OK())
	assert.Equal(t, []string{"EAPI:Invalid key"}, resp.Error)
	assert.True(t, core.IsAuthenticationError(resp.Err()))
}

func TestClient_RateLimitWaitCancelled(t *testing.T) {
	server := newTestServer(t, http.StatusOK, serverTimeOK)
	config := core.DefaultConfig().
		WithBaseURL(server.URL).
		WithRateLimit(1, time.Hour)
	client, err := New(config)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.GetServerTime(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.GetServerTime(ctx)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, core.StatusCode(err))
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, int32(1), server.hits.Load())
}

func TestClient_Closed(t *testing.T) {
	server := newTestServer(t, http.StatusOK, serverTimeOK)
	client := newTestClient(t, server.URL, nil, "")
	require.NoError(t, client.Close())

	_, err := client.GetServerTime(context.Background())

	require.Error(t, err)
	assert.True(t, core.IsErrorCode(err, core.ErrCodeClientClosed))
	assert.ErrorIs(t, err, core.ErrClientClosed)
	assert.Equal(t, int32(0), server.hits.Load())
}

func TestClient_TwoFactorMemoized(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", testCreds(), "1")

	assert.True(t, client.RequiresTwoFactor())
	client.ReloadTwoFactor()
	assert.True(t, client.RequiresTwoFactor())
}
