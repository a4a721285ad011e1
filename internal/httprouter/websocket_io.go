package httprouter

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/launchkit/launchkit/internal/ioc"
)

// websocketIO adapts a *websocket.Conn into ioc.PacketIO, the
// ServerWebsocketIO contract named in spec §4.7/§4.8.
type websocketIO struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	accepted atomic.Bool
	closed   atomic.Bool
}

func newWebsocketIO(conn *websocket.Conn) *websocketIO {
	return &websocketIO{conn: conn}
}

func (w *websocketIO) Accept(ctx context.Context) error {
	// The HTTP upgrade already completed the accept handshake; Accept is a
	// no-op marker call here, idempotent per spec's round-trip law.
	w.accepted.Store(true)
	return nil
}

func (w *websocketIO) Close(ctx context.Context) error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	return w.conn.Close()
}

func (w *websocketIO) Receive(ctx context.Context) (any, error) {
	if w.closed.Load() {
		return nil, ioc.ErrConnectionClosed
	}
	msgType, data, err := w.conn.ReadMessage()
	if err != nil {
		w.closed.Store(true)
		return nil, ioc.ErrConnectionClosed
	}
	switch msgType {
	case websocket.TextMessage:
		return string(data), nil
	case websocket.BinaryMessage:
		return data, nil
	default:
		return nil, ioc.ErrUnexpectedFrame
	}
}

func (w *websocketIO) Send(ctx context.Context, payload any) error {
	if w.closed.Load() {
		return ioc.ErrConnectionClosed
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	switch v := payload.(type) {
	case string:
		return w.conn.WriteMessage(websocket.TextMessage, []byte(v))
	case []byte:
		return w.conn.WriteMessage(websocket.BinaryMessage, v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return w.conn.WriteMessage(websocket.TextMessage, data)
	}
}

func (w *websocketIO) Extra(sig ioc.Signature) (any, error) {
	switch sig {
	case ioc.SigWSConnectionAccept:
		return w.accepted.Load(), nil
	case ioc.SigWSConnectionClose:
		return w.closed.Load(), nil
	default:
		return nil, ioc.ErrUnsupportedResponse
	}
}

func (w *websocketIO) Packets(ctx context.Context) <-chan ioc.PacketOrError {
	ch := make(chan ioc.PacketOrError)
	go func() {
		defer close(ch)
		for {
			payload, err := w.Receive(ctx)
			if err != nil {
				ch <- ioc.PacketOrError{Err: err}
				return
			}
			select {
			case ch <- ioc.PacketOrError{Payload: payload}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
