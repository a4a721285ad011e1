package httprouter

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchkit/launchkit/internal/ioc"
	"github.com/launchkit/launchkit/internal/launart"
	"github.com/launchkit/launchkit/internal/rider"
	"github.com/launchkit/launchkit/internal/transport"
)

// TestHttpHandlerNormalizesStatusHeaderAndCookie covers scenario 4: a
// handler returning a ResponseTuple with a non-200 status, a custom
// header, and a Set-Cookie is normalized onto the real http.ResponseWriter.
func TestHttpHandlerNormalizesStatusHeaderAndCookie(t *testing.T) {
	reg := transport.NewRegistrar()
	sig := ioc.HttpEndpoint("/widgets", "POST")
	reg.Declare(sig)
	reg.Handle(sig, func(ctx context.Context, args ...any) (any, error) {
		return ResponseTuple{
			Body: "created",
			Descriptor: ioc.Response{
				Status:  201,
				Headers: map[string]string{"X-Widget-Id": "42"},
				Cookies: map[string]string{"session": "abc"},
			},
		}, nil
	})
	tr := reg.Build("widgets")

	rt := NewRouter(rider.NewServerRider(), 4096, 4096)
	require.NoError(t, rt.MountTransport(tr))

	srv := httptest.NewServer(rt.Handler())
	defer srv.Close()

	resp, err := srv.Client().Post(srv.URL+"/widgets", "text/plain", strings.NewReader(""))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "42", resp.Header.Get("X-Widget-Id"))

	var sessionCookie *string
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			v := c.Value
			sessionCookie = &v
		}
	}
	require.NotNil(t, sessionCookie)
	assert.Equal(t, "abc", *sessionCookie)
}

// TestMountTransportRejectsDuplicateRoute covers spec's chosen "error" policy
// for two Transports declaring the same signature.
func TestMountTransportRejectsDuplicateRoute(t *testing.T) {
	sig := ioc.HttpEndpoint("/dup", "GET")

	first := transport.NewRegistrar()
	first.Declare(sig)
	first.Handle(sig, func(ctx context.Context, args ...any) (any, error) { return "first", nil })

	second := transport.NewRegistrar()
	second.Declare(sig)
	second.Handle(sig, func(ctx context.Context, args ...any) (any, error) { return "second", nil })

	rt := NewRouter(rider.NewServerRider(), 4096, 4096)
	require.NoError(t, rt.MountTransport(first.Build("first")))

	err := rt.MountTransport(second.Build("second"))
	require.Error(t, err)
	assert.ErrorIs(t, err, launart.ErrDuplicateRoute)
}

// TestWebsocketRouteEchoesAndClosesCleanly drives a mounted WebsocketEndpoint
// with a real gorilla/websocket client dial, matching scenario 3 but from
// the router's side of the upgrade.
func TestWebsocketRouteEchoesAndClosesCleanly(t *testing.T) {
	reg := transport.NewRegistrar()
	reg.Declare(ioc.WebsocketEndpoint("/ws/echo"))
	reg.On(ioc.SigWebsocketReceived, func(ctx context.Context, args ...any) error {
		event := args[0].(ioc.WebsocketReceivedEvent)
		return event.IO.Send(ctx, "echo:"+event.Payload.(string))
	})
	tr := reg.Build("echo")

	serverRider := rider.NewServerRider()
	rt := NewRouter(serverRider, 4096, 4096)
	require.NoError(t, rt.MountTransport(tr))

	srv := httptest.NewServer(rt.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/echo"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte("hi")))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", string(msg))

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return serverRider.Len() == 0
	}, time.Second, 10*time.Millisecond)
}
