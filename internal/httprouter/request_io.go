package httprouter

import (
	"context"
	"io"
	"net"
	"net/http"

	"github.com/launchkit/launchkit/internal/ioc"
)

// requestIO adapts an inbound *http.Request/http.ResponseWriter pair into
// ioc.ReadonlyIO, the ServerRequestIO contract named in spec §4.7.
type requestIO struct {
	r *http.Request
	w http.ResponseWriter
}

func (io_ *requestIO) Read(ctx context.Context) ([]byte, error) {
	defer io_.r.Body.Close()
	return io.ReadAll(io_.r.Body)
}

func (io_ *requestIO) Extra(sig ioc.Signature) (any, error) {
	switch sig {
	case ioc.SigHttpRequest:
		cookies := make(map[string]string, len(io_.r.Cookies()))
		for _, c := range io_.r.Cookies() {
			cookies[c.Name] = c.Value
		}
		clientIP, clientPort := splitRemoteAddr(io_.r.RemoteAddr)
		return map[string]any{
			"headers":     map[string][]string(io_.r.Header),
			"cookies":     cookies,
			"method":      io_.r.Method,
			"path":        io_.r.URL.Path,
			"query":       io_.r.URL.Query(),
			"client_ip":   clientIP,
			"client_port": clientPort,
		}, nil
	default:
		return nil, ioc.ErrUnsupportedResponse
	}
}

// splitRemoteAddr mirrors HttpRequest.client_ip/client_port from the
// source's http extras dataclass. RemoteAddr is host:port except when the
// listener doesn't report a port, so a split failure just falls back to
// the raw string as the IP with a zero port.
func splitRemoteAddr(remoteAddr string) (string, int) {
	host, portStr, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr, 0
	}
	port := 0
	for _, c := range portStr {
		if c < '0' || c > '9' {
			return host, 0
		}
		port = port*10 + int(c-'0')
	}
	return host, port
}
