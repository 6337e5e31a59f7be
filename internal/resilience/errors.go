// Package resilience classifies transient store errors and retries them
// with bounded backoff.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/aws/smithy-go"
)

// transientS3Codes are S3 error codes that indicate a retryable
// server-side condition rather than a permanent failure.
var transientS3Codes = map[string]bool{
	"SlowDown":            true,
	"RequestTimeout":      true,
	"InternalError":       true,
	"ServiceUnavailable":  true,
	"Throttling":          true,
	"ThrottlingException": true,
	"RequestLimitExceeded": true,
}

// IsTransient returns true if the error (or any error in its chain) is a
// retryable condition: a throttled or 5xx S3 response, a network timeout,
// or a connection-level failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// S3 service errors carry a code via smithy.APIError.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && transientS3Codes[apiErr.ErrorCode()] {
		return true
	}

	// HTTP-level errors from the SDK expose the response status.
	var httpErr interface{ HTTPStatusCode() int }
	if errors.As(err, &httpErr) && IsTransientHTTPStatus(httpErr.HTTPStatusCode()) {
		return true
	}

	// Network-level transient errors.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Connection reset / refused / DNS.
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP transports.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}
