package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// Proxy headers consulted for the caller's address, in precedence order.
var clientIPHeaders = []string{"X-Forwarded-For", "X-Real-IP"}

// getClientIP resolves the caller's IP for per-client rate limiting. Proxy
// headers win over the socket address; X-Forwarded-For may carry a hop
// chain, in which case the first entry is the originating client.
func getClientIP(c *gin.Context) string {
	for _, header := range clientIPHeaders {
		value := c.GetHeader(header)
		if value == "" {
			continue
		}
		first, _, _ := strings.Cut(value, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	remote := c.Request.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}
