package pkg

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ReadUserIP finds the client address, preferring the proxy headers set by
// the reverse proxy in front of the service over the raw remote address.
func ReadUserIP(r *http.Request) (string, error) {
	addr := r.Header.Get("X-Real-Ip")
	if addr == "" {
		addr = r.Header.Get("X-Forwarded-For")
	}
	if addr == "" {
		addr = r.RemoteAddr
	}

	// X-Forwarded-For may hold a chain, the first hop is the client
	if i := strings.IndexByte(addr, ','); i >= 0 {
		addr = addr[:i]
	}
	addr = strings.TrimSpace(addr)

	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	if net.ParseIP(addr) == nil {
		return "", fmt.Errorf("ip addr %q is invalid", addr)
	}
	return addr, nil
}
