package core

// Operation identifies which endpoint a request targets and therefore which
// result shape its response decodes into.
type Operation int

// Operation constants define all supported exchange operations.
const (
	// OpUnknown is used for raw calls made outside the typed endpoints.
	OpUnknown Operation = iota
	// OpGetServerTime retrieves the exchange clock.
	OpGetServerTime
	// OpGetSystemStatus retrieves the exchange trading status.
	OpGetSystemStatus
	// OpGetAssetPairs retrieves tradable pair metadata.
	OpGetAssetPairs
	// OpGetOpenOrders retrieves all open orders.
	OpGetOpenOrders
	// OpGetBalance retrieves account balance information.
	OpGetBalance
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	names := [...]string{
		"UNKNOWN",
		"GET_SERVER_TIME",
		"GET_SYSTEM_STATUS",
		"GET_ASSET_PAIRS",
		"GET_OPEN_ORDERS",
		"GET_BALANCE",
	}
	if o < 0 || int(o) >= len(names) {
		return "UNKNOWN"
	}
	return names[o]
}

// Private reports whether the operation targets an authenticated endpoint.
func (o Operation) Private() bool {
	return o == OpGetOpenOrders || o == OpGetBalance
}
