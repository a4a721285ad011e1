// Package echo is the reference embedder's demonstration Transport: a
// WebSocket endpoint that upper-cases and echoes every text frame it
// receives, mounted server-side via httprouter.Router.MountTransport and
// driven client-side by a rider.ClientRider dialing through
// internal/httpclient. It exists to give the Transport/TransportRider/
// Router triangle a production call site instead of only a test one,
// mirroring the end-to-end usage shown in the source's test_transport.py.
package echo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/launchkit/launchkit/internal/config"
	"github.com/launchkit/launchkit/internal/httpclient"
	"github.com/launchkit/launchkit/internal/ioc"
	"github.com/launchkit/launchkit/internal/launart"
	"github.com/launchkit/launchkit/internal/rider"
	"github.com/launchkit/launchkit/internal/statv"
	"github.com/launchkit/launchkit/internal/transport"
)

// Path is the WebSocket route the server Transport declares and the client
// dials.
const Path = "/ws/echo"

// ClientID is the component id the client-side Launchable registers under.
const ClientID = "echo/client"

const (
	statConnections = "connections"
	statLastEcho    = "last_echo"
	statReconnects  = "reconnects"
)

// NewServerTransport builds the server-side Transport declaring Path: on
// each received text frame it sends back the upper-cased payload, tracking
// the number of open connections (+1 on connect, -1 on close) and the last
// echoed line on stats.
func NewServerTransport(stats *statv.Statv) *transport.Transport {
	reg := transport.NewRegistrar()
	reg.Declare(ioc.WebsocketEndpoint(Path))

	reg.On(ioc.SigWebsocketConnect, func(ctx context.Context, args ...any) error {
		stats.Set(statConnections, stats.MustGet(statConnections).(int)+1)
		return nil
	})

	reg.On(ioc.SigWebsocketReceived, transport.DataType(func(ctx context.Context, io ioc.PacketIO, data string) error {
		reply := strings.ToUpper(data)
		stats.Set(statLastEcho, reply)
		return io.Send(ctx, reply)
	}, false))

	reg.On(ioc.SigWebsocketClose, func(ctx context.Context, args ...any) error {
		stats.Set(statConnections, stats.MustGet(statConnections).(int)-1)
		return nil
	})

	return reg.Build("echo.server")
}

var serverStatDescriptors = []statv.Descriptor{
	{ID: statConnections, Default: 0},
	{ID: statLastEcho, Default: ""},
}

// NewServerStats constructs the Statv record NewServerTransport reports
// into, exposed separately so an embedder can wire it to a status endpoint.
func NewServerStats() (*statv.Statv, error) {
	return statv.New(serverStatDescriptors, nil)
}

// ClientService is the Launchable driving a ClientRider against the echo
// Transport: it dials Path, sends one line per reconnect cycle, and keeps
// reconnecting according to cfg.Reconnect. The reconnect handler counts
// every time it is asked, without resetting, and declines on the
// maxAttempts-th ask, which lets the transport drop.
type ClientService struct {
	launart.Base

	dialURL     string
	policy      rider.ReconnectPolicy
	maxAttempts int

	clientRider *rider.ClientRider
	stats       *statv.Statv
}

var clientStatDescriptors = []statv.Descriptor{
	{ID: statReconnects, Default: 0},
	{ID: statLastEcho, Default: ""},
}

// NewClientService builds the client-side demonstration Launchable. server
// is the address the HTTP/WebSocket listener binds (cfg.Server); when its
// host is a wildcard bind address, the dial target falls back to loopback.
func NewClientService(server config.ServerConfig, reconnect config.ReconnectConfig) *ClientService {
	host := server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	stats, _ := statv.New(clientStatDescriptors, nil)

	return &ClientService{
		Base:    launart.NewBase(ClientID, nil, launart.StageBlocking),
		dialURL: fmt.Sprintf("ws://%s:%d%s", host, server.Port, Path),
		policy: rider.ReconnectPolicy{
			Enabled:        reconnect.Enabled,
			InitialBackoff: durationSeconds(reconnect.InitialBackoffS),
			MaxBackoff:     durationSeconds(reconnect.MaxBackoffS),
			Multiplier:     reconnect.Multiplier,
		},
		maxAttempts: 3,
		stats:       stats,
	}
}

// Stats exposes the reconnect-count/last-echo Statv record for observability.
func (s *ClientService) Stats() *statv.Statv { return s.stats }

// Launch dials the echo endpoint and keeps the connection alive via
// ClientRider.Use, letting the rider's reconnect handler decide (bounded by
// maxAttempts) whether a dropped connection is worth retrying.
func (s *ClientService) Launch(ctx context.Context, mgr *launart.Manager) error {
	s.Status().SetPrepare()
	s.Status().SetBlocking()

	s.clientRider = rider.NewClientRider(func(dialCtx context.Context) (ioc.PacketIO, error) {
		return httpclient.Dial(dialCtx, s.dialURL, httpclient.DialerOptions{})
	}, s.policy)

	reg := transport.NewRegistrar()
	reg.On(ioc.SigWebsocketConnect, func(ctx context.Context, args ...any) error {
		if len(args) == 0 {
			return nil
		}
		event, ok := args[0].(ioc.WebsocketConnectEvent)
		if !ok || event.IO == nil {
			return nil
		}
		return event.IO.Send(ctx, "hi")
	})
	reg.On(ioc.SigWebsocketReceived, transport.DataType(func(ctx context.Context, io ioc.PacketIO, data string) error {
		s.stats.Set(statLastEcho, data)
		return nil
	}, false))
	reg.Handle(ioc.SigWebsocketReconnect, func(ctx context.Context, args ...any) (any, error) {
		attempts := s.stats.MustGet(statReconnects).(int) + 1
		s.stats.Set(statReconnects, attempts)
		return attempts < s.maxAttempts, nil
	})
	tr := reg.Build("echo.client")

	s.clientRider.Use(ctx, tr)

	<-ctx.Done()
	return nil
}

func durationSeconds(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
