package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds handler run time. The request context is cancelled at the
// deadline so store calls abort too.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	message := errorJSON("REQUEST_TIMEOUT", "request timed out")

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}
