// Package httprouter bridges a concrete gorilla/mux HTTP server into the
// HttpEndpoint/WebsocketEndpoint model described in spec §4.7/§6's router
// adapter contract.
package httprouter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/launchkit/launchkit/internal/ioc"
	"github.com/launchkit/launchkit/internal/launart"
	"github.com/launchkit/launchkit/internal/rider"
	"github.com/launchkit/launchkit/internal/transport"
)

// Router adapts declared HttpEndpoint/WebsocketEndpoint signatures from one
// or more Transports onto a gorilla/mux.Router.
type Router struct {
	mux      *mux.Router
	rider    *rider.ServerRider
	upgrader websocket.Upgrader

	mu       sync.Mutex
	declared map[ioc.Signature]struct{}
}

// NewRouter constructs a Router backed by serverRider, which owns the
// accepted-connection map every mounted WebSocket endpoint registers into.
func NewRouter(serverRider *rider.ServerRider, readBufBytes, writeBufBytes int) *Router {
	return &Router{
		mux:   mux.NewRouter(),
		rider: serverRider,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufBytes,
			WriteBufferSize: writeBufBytes,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		declared: make(map[ioc.Signature]struct{}),
	}
}

// Handler returns the http.Handler to pass to an http.Server.
func (rt *Router) Handler() http.Handler { return rt.mux }

// MountTransport mounts every HttpEndpoint/WebsocketEndpoint signature tr
// declares, failing with ErrDuplicateRoute if another Transport already
// claimed the same signature in this Router (spec's chosen "error" policy
// for route conflicts).
func (rt *Router) MountTransport(tr *transport.Transport) error {
	for _, sig := range tr.Declares() {
		if err := rt.mountOne(tr, sig); err != nil {
			return err
		}
	}
	return nil
}

func (rt *Router) mountOne(tr *transport.Transport, sig ioc.Signature) error {
	rt.mu.Lock()
	if _, exists := rt.declared[sig]; exists {
		rt.mu.Unlock()
		return fmt.Errorf("%w: %s", launart.ErrDuplicateRoute, sig)
	}
	rt.declared[sig] = struct{}{}
	rt.mu.Unlock()

	path, methods, isWS := parseEndpointSignature(sig)
	if path == "" {
		return nil // not an endpoint signature (e.g. a pure event/marker), nothing to mount
	}

	if isWS {
		rt.rider.Subscribe(tr)
		rt.mux.HandleFunc(path, rt.websocketHandler()).Methods(http.MethodGet)
		return nil
	}

	handler, err := tr.GetHandler(sig)
	if err != nil {
		return err
	}
	rt.mux.HandleFunc(path, rt.httpHandler(handler)).Methods(methods...)
	return nil
}

func (rt *Router) websocketHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := rt.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		io := newWebsocketIO(conn)
		_ = rt.rider.ServeWebsocket(r.Context(), io)
	}
}

func (rt *Router) httpHandler(handler transport.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqIO := &requestIO{r: r, w: w}
		result, err := handler(r.Context(), reqIO)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := writeResponse(w, result); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// parseEndpointSignature recovers (path, methods, isWebsocket) from a
// structural signature minted by ioc.HttpEndpoint/ioc.WebsocketEndpoint.
func parseEndpointSignature(sig ioc.Signature) (path string, methods []string, isWS bool) {
	s := string(sig)
	switch {
	case strings.HasPrefix(s, "endpoint:http:"):
		rest := strings.TrimPrefix(s, "endpoint:http:")
		idx := strings.LastIndex(rest, ":")
		if idx < 0 {
			return rest, []string{http.MethodGet}, false
		}
		return rest[:idx], strings.Split(rest[idx+1:], ","), false
	case strings.HasPrefix(s, "endpoint:ws:"):
		return strings.TrimPrefix(s, "endpoint:ws:"), nil, true
	default:
		return "", nil, false
	}
}

// writeResponse applies the body-normalization rules from spec §4.7: a bare
// body, or a (body, ioc.Response) pair.
func writeResponse(w http.ResponseWriter, result any) error {
	body := result
	resp := ioc.Response{Status: http.StatusOK}

	if pair, ok := result.(ResponseTuple); ok {
		body = pair.Body
		resp = pair.Descriptor
		if resp.Status == 0 {
			resp.Status = http.StatusOK
		}
	}

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	for name, value := range resp.Cookies {
		cookie := &http.Cookie{Name: name, Value: value}
		if resp.CookieExpires != nil {
			cookie.MaxAge = *resp.CookieExpires
		}
		http.SetCookie(w, cookie)
	}

	switch ioc.ClassifyBody(normalizeKind(body)) {
	case ioc.BodyRaw:
		w.WriteHeader(resp.Status)
		switch v := body.(type) {
		case string:
			_, err := w.Write([]byte(v))
			return err
		case []byte:
			_, err := w.Write(v)
			return err
		}
		return nil
	case ioc.BodyJSON:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.Status)
		return json.NewEncoder(w).Encode(body)
	case ioc.BodyFile:
		path := string(body.(ioc.FilePath))
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		w.WriteHeader(resp.Status)
		_, err = w.Write(data)
		return err
	case ioc.BodyNative:
		native := body.(ioc.NativeResponse)
		if writer, ok := native.Value.(func(http.ResponseWriter)); ok {
			writer(w)
			return nil
		}
		return nil
	default:
		http.Error(w, ioc.ErrUnsupportedResponse.Error(), http.StatusInternalServerError)
		return ioc.ErrUnsupportedResponse
	}
}

// normalizeKind widens a map[string]string/struct-ish body into a shape
// ioc.ClassifyBody recognizes as JSON; ClassifyBody only special-cases
// map[string]any/[]any directly, so anything else structured is treated as
// JSON-able unless it's already one of the other kinds.
func normalizeKind(body any) any {
	switch body.(type) {
	case string, []byte, ioc.FilePath, ioc.NativeResponse:
		return body
	default:
		return map[string]any{"_": body}
	}
}

// ResponseTuple is the Go shape of the source's (body, *descriptors...)
// handler return convention.
type ResponseTuple struct {
	Body       any
	Descriptor ioc.Response
}
