package httpext

import (
	"net"
	"net/http"
	"strings"
)

// SessionHeader carries the conversation id on calls a session makes back
// into this service
const SessionHeader = "X-Session-ID"

// ClientKey identifies the caller for rate limiting. Loopback calls that
// name a session are keyed by that session; everything else by the first
// X-Forwarded-For address or the remote host without its port.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" && isLoopback(host) {
		return "session:" + id
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
