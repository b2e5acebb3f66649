package kraken

import (
	"fmt"
	"net/http"
	"strings"

	"krakenrest/pkg/core"
)

// Endpoint paths relative to the versioned base URL.
const (
	PathServerTime   = "/public/Time"
	PathSystemStatus = "/public/SystemStatus"
	PathAssetPairs   = "/public/AssetPairs"
	PathOpenOrders   = "/private/OpenOrders"
	PathBalance      = "/private/Balance"
)

// privateMarker identifies authenticated endpoints by path.
const privateMarker = "private"

// Protocol maps operations to Kraken REST requests.
type Protocol struct{}

// NewProtocol creates a new Kraken protocol instance.
func NewProtocol() *Protocol {
	return &Protocol{}
}

// Name returns the protocol identifier "kraken".
func (p *Protocol) Name() string {
	return core.ExchangeName
}

// Version returns the REST API version segment.
func (p *Protocol) Version() string {
	return "0"
}

// SupportedOperations returns the list of operations supported by this protocol.
func (p *Protocol) SupportedOperations() []core.Operation {
	return []core.Operation{
		core.OpGetServerTime,
		core.OpGetSystemStatus,
		core.OpGetAssetPairs,
		core.OpGetOpenOrders,
		core.OpGetBalance,
	}
}

// BuildRequest constructs the request for op carrying a copy of params.
// params keep their insertion order all the way to the signer.
func (p *Protocol) BuildRequest(op core.Operation, params *core.Params) (*core.Request, error) {
	var method, path string
	switch op {
	case core.OpGetServerTime:
		method, path = http.MethodGet, PathServerTime
	case core.OpGetSystemStatus:
		method, path = http.MethodGet, PathSystemStatus
	case core.OpGetAssetPairs:
		if !params.Has("pair") {
			return nil, core.NewExchangeErrorWithCode(core.ErrorTypeBadRequest, http.StatusBadRequest,
				core.ErrCodeBadRequest, "pair parameter is required")
		}
		method, path = http.MethodGet, PathAssetPairs
	case core.OpGetOpenOrders:
		method, path = http.MethodPost, PathOpenOrders
	case core.OpGetBalance:
		method, path = http.MethodPost, PathBalance
	default:
		return nil, core.NewExchangeErrorWithCode(core.ErrorTypeBadRequest, http.StatusBadRequest,
			core.ErrCodeUnsupported, fmt.Sprintf("unsupported operation: %s", op))
	}

	return core.NewRequest(method, path).
		SetOperation(op).
		SetParams(params).
		SetRequireAuth(isPrivate(path)), nil
}

func isPrivate(path string) bool {
	return strings.Contains(path, privateMarker)
}
