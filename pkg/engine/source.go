package engine

import (
	"net"
	"net/http"
	"strings"
)

// RequestSource adapts an HTTP request (including a WebSocket handshake).
//
// With trustProxy set the remote address is taken from the first
// X-Forwarded-For hop, then X-Real-IP, before falling back to the peer
// address of the connection.
func RequestSource(r *http.Request, trustProxy bool) Source {
	return requestSource{r: r, trustProxy: trustProxy}
}

type requestSource struct {
	r          *http.Request
	trustProxy bool
}

func (s requestSource) Header(name string) (string, bool) {
	values := s.r.Header.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (s requestSource) RemoteAddr() (string, bool) {
	if s.trustProxy {
		if xff := s.r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first, true
			}
		}
		if xrip := strings.TrimSpace(s.r.Header.Get("X-Real-IP")); xrip != "" {
			return xrip, true
		}
	}
	return peerAddr(s.r.RemoteAddr)
}

func peerAddr(remoteAddr string) (string, bool) {
	if remoteAddr == "" {
		return "", false
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr, true
	}
	return host, true
}

// HeaderSource is a Source backed by plain values, for callers that do not
// hold an *http.Request.
type HeaderSource struct {
	Headers http.Header
	Addr    string
}

func (s HeaderSource) Header(name string) (string, bool) {
	values := s.Headers.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (s HeaderSource) RemoteAddr() (string, bool) {
	return s.Addr, s.Addr != ""
}
