package core

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ExchangeName identifies errors produced by this client.
const ExchangeName = "kraken"

// ErrorType represents the category of an exchange error.
type ErrorType int

// Error type constants categorize errors for proper handling.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork indicates the request never produced an HTTP status.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates the request exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeRateLimit indicates rate limit was exceeded.
	ErrorTypeRateLimit
	// ErrorTypeAuthentication indicates invalid or expired credentials.
	ErrorTypeAuthentication
	// ErrorTypeBadRequest indicates invalid request parameters.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates the requested resource does not exist.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates a server-side error.
	ErrorTypeServerError
	// ErrorTypeInsufficientFunds indicates account lacks required balance.
	ErrorTypeInsufficientFunds
	// ErrorTypeInvalidOrder indicates the order violates exchange rules.
	ErrorTypeInvalidOrder
	// ErrorTypeConfig indicates missing or malformed credential material.
	// Config errors are raised before any network I/O.
	ErrorTypeConfig
	// ErrorTypeDecode indicates the body did not match the expected shape.
	ErrorTypeDecode
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	names := [...]string{
		"UNKNOWN",
		"NETWORK",
		"TIMEOUT",
		"RATE_LIMIT",
		"AUTHENTICATION",
		"BAD_REQUEST",
		"NOT_FOUND",
		"SERVER_ERROR",
		"INSUFFICIENT_FUNDS",
		"INVALID_ORDER",
		"CONFIG",
		"DECODE",
	}
	if t < 0 || int(t) >= len(names) {
		return "UNKNOWN"
	}
	return names[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrNoCredentials is returned when the active key pair is empty.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrPassphraseRequired is returned when 2FA is required but no passphrase is set.
	ErrPassphraseRequired = errors.New("api passphrase required but missing")
)

// ExchangeError represents a structured error produced by the client.
// StatusCode always carries an HTTP-status-like code: the real status when the
// server answered, http.StatusBadRequest otherwise.
type ExchangeError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code from the response.
	StatusCode int `json:"status_code"`
	// Code is the stable machine readable error code.
	Code string `json:"code"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// RawError contains the original error payload for debugging.
	RawError any `json:"raw_error,omitempty"`
	// Exchange identifies which exchange returned this error.
	Exchange string `json:"exchange"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
	// Err is the underlying cause, if any.
	Err error `json:"-"`
}

// Error implements the error interface for ExchangeError.
// It returns a formatted string with exchange name, error type, status code, and message.
func (e *ExchangeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s (%d/%s): %s",
			e.Exchange, e.Type, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (%d): %s",
		e.Exchange, e.Type, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// WithCode sets the error code and returns the error for chaining.
func (e *ExchangeError) WithCode(code ErrorCode) *ExchangeError {
	e.Code = string(code)
	return e
}

// WithCause sets the underlying cause and returns the error for chaining.
func (e *ExchangeError) WithCause(err error) *ExchangeError {
	e.Err = err
	return e
}

// NewExchangeError creates a new ExchangeError with the specified details.
// The timestamp is automatically set to the current time.
func NewExchangeError(errorType ErrorType, statusCode int, message string) *ExchangeError {
	return &ExchangeError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Exchange:   ExchangeName,
		Timestamp:  time.Now(),
	}
}

// NewExchangeErrorWithCode creates a new ExchangeError including an error code.
func NewExchangeErrorWithCode(errorType ErrorType, statusCode int, code ErrorCode, message string) *ExchangeError {
	return NewExchangeError(errorType, statusCode, message).WithCode(code)
}

// NewConfigError creates a configuration error. Config errors carry
// http.StatusBadRequest so every error exposes a status-like code.
func NewConfigError(code ErrorCode, message string) *ExchangeError {
	return NewExchangeErrorWithCode(ErrorTypeConfig, http.StatusBadRequest, code, message)
}

// StatusCode returns the HTTP-status-like code carried by err.
// Errors that are not an ExchangeError map to http.StatusBadRequest; nil maps to 0.
func StatusCode(err error) int {
	if err == nil {
		return 0
	}
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr.StatusCode
	}
	return http.StatusBadRequest
}

// StatusErrorType maps an HTTP status code to an ErrorType.
func StatusErrorType(statusCode int) ErrorType {
	switch {
	case statusCode >= 500:
		return ErrorTypeServerError
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return ErrorTypeAuthentication
	case statusCode == http.StatusBadRequest:
		return ErrorTypeBadRequest
	case statusCode == http.StatusNotFound:
		return ErrorTypeNotFound
	default:
		return ErrorTypeUnknown
	}
}

func isType(err error, t ErrorType) bool {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		return exErr.Type == t
	}
	return false
}

// IsConfigError returns true if the error was raised by credential or config checks.
func IsConfigError(err error) bool {
	return isType(err, ErrorTypeConfig)
}

// IsDecodeError returns true if the response body did not match the expected shape.
func IsDecodeError(err error) bool {
	return isType(err, ErrorTypeDecode)
}

// IsNetworkError returns true if the request failed without an HTTP status.
func IsNetworkError(err error) bool {
	return isType(err, ErrorTypeNetwork)
}

// IsTimeoutError returns true if the error is a timeout.
func IsTimeoutError(err error) bool {
	return isType(err, ErrorTypeTimeout)
}

// IsRateLimitError returns true if the error is a rate limit violation.
func IsRateLimitError(err error) bool {
	return isType(err, ErrorTypeRateLimit)
}

// IsAuthenticationError returns true if the error is an authentication failure.
func IsAuthenticationError(err error) bool {
	return isType(err, ErrorTypeAuthentication)
}

// IsTerminalError returns true if the error indicates a terminal condition.
// Terminal errors will not succeed if sent again unchanged.
func IsTerminalError(err error) bool {
	var e *ExchangeError
	if errors.As(err, &e) {
		return e.Type == ErrorTypeInsufficientFunds ||
			e.Type == ErrorTypeInvalidOrder ||
			e.Type == ErrorTypeNotFound ||
			e.Type == ErrorTypeConfig
	}
	return false
}
