package http

import (
	"context"
	"errors"
	"net"
	nethttp "net/http"
	"strings"
)

// ErrorType represents different classes of errors for retry strategy
type ErrorType int

const (
	// ErrorTypeSuccess indicates operation succeeded
	ErrorTypeSuccess ErrorType = iota
	// ErrorTypeNetwork indicates network/connection issues (timeouts, connection refused, etc.)
	ErrorTypeNetwork
	// ErrorTypeRetryable indicates gateway/throttling statuses that can be retried
	ErrorTypeRetryable
	// ErrorTypeFatal indicates anything that must not be retried
	ErrorTypeFatal
)

// ClassifyError determines the error type for retry strategy.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeSuccess
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeFatal
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorTypeNetwork
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "eof") ||
		strings.Contains(errStr, "timeout") {
		return ErrorTypeNetwork
	}

	return ErrorTypeFatal
}

// ClassifyStatus maps an HTTP status code onto a retry class. Application errors
// (4xx, 500) are reported to the user rather than retried.
func ClassifyStatus(status int) ErrorType {
	switch status {
	case nethttp.StatusTooManyRequests, nethttp.StatusBadGateway,
		nethttp.StatusServiceUnavailable, nethttp.StatusGatewayTimeout:
		return ErrorTypeRetryable
	}
	if status >= 200 && status < 400 {
		return ErrorTypeSuccess
	}
	return ErrorTypeFatal
}

// RetryPolicy is a retryablehttp.CheckRetry implementation that only retries
// network failures and gateway/throttling statuses.
func RetryPolicy(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return ClassifyError(err) == ErrorTypeNetwork, nil
	}
	if resp == nil {
		return false, nil
	}
	return ClassifyStatus(resp.StatusCode) == ErrorTypeRetryable, nil
}

// ErrorTypeName returns a human-readable name for an ErrorType
func ErrorTypeName(errType ErrorType) string {
	switch errType {
	case ErrorTypeSuccess:
		return "success"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeRetryable:
		return "retryable"
	case ErrorTypeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}
