package kraken

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"krakenrest/pkg/core"
)

func TestProtocol_Name(t *testing.T) {
	p := NewProtocol()
	assert.Equal(t, "kraken", p.Name())
	assert.Equal(t, "0", p.Version())
}

func TestProtocol_SupportedOperations(t *testing.T) {
	p := NewProtocol()

	assert.ElementsMatch(t, []core.Operation{
		core.OpGetServerTime,
		core.OpGetSystemStatus,
		core.OpGetAssetPairs,
		core.OpGetOpenOrders,
		core.OpGetBalance,
	}, p.SupportedOperations())
}

func TestProtocol_BuildRequest(t *testing.T) {
	tests := []struct {
		name        string
		op          core.Operation
		params      *core.Params
		wantMethod  string
		wantPath    string
		wantPrivate bool
	}{
		{"server_time", core.OpGetServerTime, nil, http.MethodGet, "/public/Time", false},
		{"system_status", core.OpGetSystemStatus, nil, http.MethodGet, "/public/SystemStatus", false},
		{"asset_pairs", core.OpGetAssetPairs, core.NewParams("pair", "XBTUSD"), http.MethodGet, "/public/AssetPairs", false},
		{"open_orders", core.OpGetOpenOrders, core.NewParams("nonce", "1"), http.MethodPost, "/private/OpenOrders", true},
		{"balance", core.OpGetBalance, core.NewParams("nonce", "1"), http.MethodPost, "/private/Balance", true},
	}

	p := NewProtocol()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := p.BuildRequest(tt.op, tt.params)
			require.NoError(t, err)

			assert.Equal(t, tt.op, req.Operation)
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, tt.wantPath, req.Path)
			assert.Equal(t, tt.wantPrivate, req.RequireAuth)
			assert.Equal(t, tt.params.Len(), req.Params.Len())
		})
	}
}

func TestProtocol_BuildRequest_CopiesParams(t *testing.T) {
	params := core.NewParams("nonce", "1", "otp", "123")

	req, err := NewProtocol().BuildRequest(core.OpGetOpenOrders, params)
	require.NoError(t, err)

	req.Params.Del("otp")
	assert.True(t, params.Has("otp"))
}

func TestProtocol_BuildRequest_AssetPairsRequiresPair(t *testing.T) {
	_, err := NewProtocol().BuildRequest(core.OpGetAssetPairs, core.NewParams("info", "fees"))

	require.Error(t, err)
	assert.True(t, core.IsErrorCode(err, core.ErrCodeBadRequest))
}

func TestProtocol_BuildRequest_Unsupported(t *testing.T) {
	_, err := NewProtocol().BuildRequest(core.OpUnknown, nil)

	require.Error(t, err)
	assert.True(t, core.IsErrorCode(err, core.ErrCodeUnsupported))
	assert.Contains(t, err.Error(), "unsupported operation: UNKNOWN")
}

func TestIsPrivate(t *testing.T) {
	assert.True(t, isPrivate("/private/OpenOrders"))
	assert.True(t, isPrivate("/private/Balance"))
	assert.False(t, isPrivate("/public/Time"))
	assert.False(t, isPrivate("/public/AssetPairs"))
}
