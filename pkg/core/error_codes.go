package core

import "errors"

// ErrorCode represents a stable error identifier.
type ErrorCode string

// Error code constants.
const (
	// ErrCodeNetwork indicates a network connectivity failure.
	ErrCodeNetwork ErrorCode = "NETWORK_ERROR"
	// ErrCodeTimeout indicates the request exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimit indicates the rate limit was exceeded.
	ErrCodeRateLimit ErrorCode = "RATE_LIMIT"
	// ErrCodeAuth indicates authentication or authorization failure.
	ErrCodeAuth ErrorCode = "AUTH_ERROR"
	// ErrCodeInvalidNonce indicates the exchange rejected the nonce.
	ErrCodeInvalidNonce ErrorCode = "INVALID_NONCE"
	// ErrCodeBadRequest is the generic code for failures without a usable status.
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"
	// ErrCodeHTTPStatus indicates the server answered with a non-OK status.
	ErrCodeHTTPStatus ErrorCode = "HTTP_STATUS"
	// ErrCodeDecode indicates the response body could not be decoded.
	ErrCodeDecode ErrorCode = "DECODE_ERROR"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeServerError indicates a server-side error occurred.
	ErrCodeServerError ErrorCode = "SERVER_ERROR"
	// ErrCodeInsufficientFunds indicates the account lacks required balance.
	ErrCodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	// ErrCodeInvalidOrder indicates the order violates exchange rules.
	ErrCodeInvalidOrder ErrorCode = "INVALID_ORDER"
	// ErrCodeInvalidSymbol indicates the trading pair is not recognized.
	ErrCodeInvalidSymbol ErrorCode = "INVALID_SYMBOL"

	// Configuration errors
	ErrCodeInvalidConfig      ErrorCode = "INVALID_CONFIG"
	ErrCodeNoCredentials      ErrorCode = "NO_CREDENTIALS"
	ErrCodePassphraseRequired ErrorCode = "PASSPHRASE_REQUIRED"
	ErrCodeInvalidSecret      ErrorCode = "INVALID_SECRET"

	// Client state errors
	ErrCodeClientClosed ErrorCode = "CLIENT_CLOSED"

	// Unsupported operation or method
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED_METHOD"

	// ErrCodeExchange is used for exchange-reported errors that match no known prefix.
	ErrCodeExchange ErrorCode = "EXCHANGE_ERROR"
)

// IsErrorCode checks if the error matches the specified error code.
// It extracts the exchange error and compares its code field against the provided ErrorCode.
func IsErrorCode(err error, code ErrorCode) bool {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return ErrorCode(exErr.Code) == code
	}
	return false
}
