// Package network provides request address helpers.
package network

import (
	"net"
	"net/http"

	"go.uber.org/zap"
)

// ClientIP returns the client address of r without the port. The router
// runs chi's RealIP middleware, so RemoteAddr already reflects
// X-Forwarded-For / X-Real-IP when a proxy set them.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// IPField is the zap field for the client address of r.
func IPField(r *http.Request) zap.Field {
	return zap.String("ip", ClientIP(r))
}
