package utils

import "net/http"

// BrowserHeaders builds the default request headers sent to the upstream.
func BrowserHeaders(userAgent string) http.Header {
	headers := http.Header{}

	headers.Set("User-Agent", userAgent)
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	headers.Set("Accept-Language", "en-US,en;q=0.5")

	return headers
}

// IsRetryableStatus reports whether a response status is a temporary failure.
func IsRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout,
		http.StatusTooManyRequests, http.StatusRequestTimeout:
		return true
	}

	return false
}
