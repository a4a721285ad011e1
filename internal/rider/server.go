package rider

import (
	"context"
	"sync"

	"github.com/launchkit/launchkit/internal/ioc"
	"github.com/launchkit/launchkit/internal/transport"
)

// Handle is a single-owner reference (not reference-counted) to one entry in a ServerRider's
// connections map, standing in for the source's weak-map entry (spec §9's
// "weak server-connection map" redesign flag): Release drops the map entry
// from inside the request-scope's exit path instead of relying on GC to
// notice the reference died.
type Handle struct {
	id      string
	rider   *ServerRider
	release sync.Once
}

// ID returns the random 12-char connection id this handle was issued under.
func (h *Handle) ID() string { return h.id }

// Release drops this connection from the owning rider's map. Safe to call
// more than once; only the first call has any effect.
func (h *Handle) Release() {
	h.release.Do(func() {
		h.rider.mu.Lock()
		delete(h.rider.connections, h.id)
		h.rider.mu.Unlock()
	})
}

// ServerRider is the server-side TransportRider: a routing surface that
// hands each accepted request/socket a fresh random id, dispatches frames to
// subscribed Transports' callbacks, and drops the connection entry once the
// request scope exits (spec's no-leak invariant P6).
type ServerRider struct {
	mu          sync.Mutex
	connections map[string]ioc.PacketIO
	transports  []*transport.Transport
}

// NewServerRider constructs an empty ServerRider.
func NewServerRider() *ServerRider {
	return &ServerRider{connections: make(map[string]ioc.PacketIO)}
}

// Subscribe registers tr so its callbacks fire for every accepted
// connection.
func (s *ServerRider) Subscribe(tr *transport.Transport) {
	s.mu.Lock()
	s.transports = append(s.transports, tr)
	s.mu.Unlock()
}

// Accept registers io under a fresh connection id and returns a Handle the
// caller must Release when the request scope ends.
func (s *ServerRider) Accept(io ioc.PacketIO) *Handle {
	id := newConnectionID()
	s.mu.Lock()
	s.connections[id] = io
	s.mu.Unlock()
	return &Handle{id: id, rider: s}
}

// Connection looks up a previously accepted connection by id.
func (s *ServerRider) Connection(id string) (ioc.PacketIO, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io, ok := s.connections[id]
	return io, ok
}

// Len reports the number of live connections, exposed for P6 leak tests.
func (s *ServerRider) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}

// ServeWebsocket runs the full per-socket pipeline described in spec §4.7:
// fire Connect, loop receiving firing Received, fire Close, then release
// the connection's handle. Call this from the router adapter's WebSocket
// handler once it has wrapped the raw socket in a ServerWebsocketIO.
func (s *ServerRider) ServeWebsocket(ctx context.Context, io ioc.PacketIO) error {
	handle := s.Accept(io)
	defer handle.Release()

	s.mu.Lock()
	active := append([]*transport.Transport{}, s.transports...)
	s.mu.Unlock()

	if err := io.Accept(ctx); err != nil {
		return err
	}

	_ = triggerCallbacks(ctx, active, ioc.SigWebsocketConnect, ioc.WebsocketConnectEvent{IO: io})

	for {
		payload, err := io.Receive(ctx)
		if err != nil {
			break
		}
		_ = triggerCallbacks(ctx, active, ioc.SigWebsocketReceived, ioc.WebsocketReceivedEvent{IO: io, Payload: payload})
	}

	_ = triggerCallbacks(ctx, active, ioc.SigWebsocketClose, ioc.WebsocketCloseEvent{IO: io})
	return io.Close(ctx)
}
