package core

import (
	"net/http"
	"strings"
)

// Response is the envelope every Kraken endpoint returns.
// A non-empty Error list reports business errors even on HTTP 200.
type Response[T any] struct {
	Error  []string `json:"error"`
	Result T        `json:"result"`
}

// OK reports whether the exchange reported no errors.
func (r *Response[T]) OK() bool {
	return len(r.Error) == 0
}

// Err converts the exchange-reported error list into an ExchangeError.
// It returns nil when the list is empty. The first entry decides the type.
func (r *Response[T]) Err() error {
	if len(r.Error) == 0 {
		return nil
	}
	errorType, code := classifyAPIError(r.Error[0])
	exErr := NewExchangeErrorWithCode(errorType, http.StatusOK, code, strings.Join(r.Error, "; "))
	exErr.RawError = r.Error
	return exErr
}

// classifyAPIError maps Kraken's "E<Category>:<Message>" strings to error types.
func classifyAPIError(msg string) (ErrorType, ErrorCode) {
	category, detail, _ := strings.Cut(msg, ":")
	switch category {
	case "EAPI":
		switch {
		case strings.HasPrefix(detail, "Invalid nonce"):
			return ErrorTypeAuthentication, ErrCodeInvalidNonce
		case strings.HasPrefix(detail, "Rate limit"):
			return ErrorTypeRateLimit, ErrCodeRateLimit
		case strings.HasPrefix(detail, "Invalid key"),
			strings.HasPrefix(detail, "Invalid signature"),
			strings.HasPrefix(detail, "Bad request"):
			return ErrorTypeAuthentication, ErrCodeAuth
		}
	case "EGeneral":
		switch {
		case strings.HasPrefix(detail, "Permission denied"):
			return ErrorTypeAuthentication, ErrCodeAuth
		case strings.HasPrefix(detail, "Invalid arguments"):
			return ErrorTypeBadRequest, ErrCodeBadRequest
		case strings.HasPrefix(detail, "Unknown method"):
			return ErrorTypeNotFound, ErrCodeNotFound
		}
	case "EQuery":
		if strings.HasPrefix(detail, "Unknown asset pair") {
			return ErrorTypeBadRequest, ErrCodeInvalidSymbol
		}
		return ErrorTypeBadRequest, ErrCodeBadRequest
	case "EOrder":
		if strings.HasPrefix(detail, "Insufficient funds") {
			return ErrorTypeInsufficientFunds, ErrCodeInsufficientFunds
		}
		if strings.HasPrefix(detail, "Rate limit") {
			return ErrorTypeRateLimit, ErrCodeRateLimit
		}
		return ErrorTypeInvalidOrder, ErrCodeInvalidOrder
	case "EService":
		return ErrorTypeServerError, ErrCodeServerError
	}
	return ErrorTypeUnknown, ErrCodeExchange
}

// ServerTime is the result of the public Time endpoint.
type ServerTime struct {
	// Unixtime is the server clock in seconds since the Unix epoch.
	Unixtime int64 `json:"unixtime"`
	// RFC1123 is the same instant formatted per RFC 1123.
	RFC1123 string `json:"rfc1123"`
}

// SystemStatus is the result of the public SystemStatus endpoint.
type SystemStatus struct {
	// Status is one of online, maintenance, cancel_only, post_only.
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// AssetPair is the metadata of a single tradable pair.
type AssetPair struct {
	Altname           string      `json:"altname"`
	Wsname            string      `json:"wsname"`
	AclassBase        string      `json:"aclass_base"`
	Base              string      `json:"base"`
	AclassQuote       string      `json:"aclass_quote"`
	Quote             string      `json:"quote"`
	Lot               string      `json:"lot"`
	CostDecimals      int64       `json:"cost_decimals"`
	PairDecimals      int64       `json:"pair_decimals"`
	LotDecimals       int64       `json:"lot_decimals"`
	LotMultiplier     int64       `json:"lot_multiplier"`
	LeverageBuy       []int64     `json:"leverage_buy"`
	LeverageSell      []int64     `json:"leverage_sell"`
	Fees              [][]float64 `json:"fees"`
	FeesMaker         [][]float64 `json:"fees_maker"`
	FeeVolumeCurrency string      `json:"fee_volume_currency"`
	MarginCall        int64       `json:"margin_call"`
	MarginStop        int64       `json:"margin_stop"`
	OrderMin          string      `json:"ordermin"`
	CostMin           string      `json:"costmin"`
	TickSize          string      `json:"tick_size"`
	Status            string      `json:"status"`
}

// AssetPairs maps pair names to their metadata.
type AssetPairs map[string]AssetPair

// OpenOrders is the result of the private OpenOrders endpoint.
type OpenOrders struct {
	Open map[string]Order `json:"open"`
}

// Order is a single order record keyed by transaction id in OpenOrders.
// Amounts are kept as the exchange's decimal strings.
type Order struct {
	RefID      string     `json:"refid"`
	UserRef    int64      `json:"userref"`
	Status     string     `json:"status"`
	OpenTime   float64    `json:"opentm"`
	StartTime  float64    `json:"starttm"`
	ExpireTime float64    `json:"expiretm"`
	Descr      OrderDescr `json:"descr"`
	Vol        string     `json:"vol"`
	VolExec    string     `json:"vol_exec"`
	Cost       string     `json:"cost"`
	Fee        string     `json:"fee"`
	Price      string     `json:"price"`
	StopPrice  string     `json:"stopprice"`
	LimitPrice string     `json:"limitprice"`
	Trigger    string     `json:"trigger"`
	Misc       string     `json:"misc"`
	OFlags     string     `json:"oflags"`
	Trades     []string   `json:"trades,omitempty"`
}

// OrderDescr describes the order as submitted.
type OrderDescr struct {
	Pair      string `json:"pair"`
	Type      string `json:"type"`
	OrderType string `json:"ordertype"`
	Price     string `json:"price"`
	Price2    string `json:"price2"`
	Leverage  string `json:"leverage"`
	Order     string `json:"order"`
	Close     string `json:"close"`
}

// Balances maps asset names to decimal string balances.
type Balances map[string]string
