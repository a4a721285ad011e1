package httpclient

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/launchkit/launchkit/internal/ioc"
)

// clientSocket adapts a dialed *websocket.Conn into ioc.PacketIO, the
// client-side counterpart of httprouter's server websocketIO.
type clientSocket struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	accepted atomic.Bool
	closed   atomic.Bool
}

func newClientSocket(conn *websocket.Conn) *clientSocket {
	return &clientSocket{conn: conn}
}

func (s *clientSocket) Accept(ctx context.Context) error {
	s.accepted.Store(true)
	return nil
}

func (s *clientSocket) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.conn.Close()
}

func (s *clientSocket) Receive(ctx context.Context) (any, error) {
	if s.closed.Load() {
		return nil, ioc.ErrConnectionClosed
	}
	msgType, data, err := s.conn.ReadMessage()
	if err != nil {
		s.closed.Store(true)
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

func (s *clientSocket) Send(ctx context.Context, payload any) error {
	if s.closed.Load() {
		return ioc.ErrConnectionClosed
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	switch v := payload.(type) {
	case string:
		return s.conn.WriteMessage(websocket.TextMessage, []byte(v))
	case []byte:
		return s.conn.WriteMessage(websocket.BinaryMessage, v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return s.conn.WriteMessage(websocket.TextMessage, data)
	}
}

func (s *clientSocket) Extra(sig ioc.Signature) (any, error) {
	switch sig {
	case ioc.SigWSConnectionAccept:
		return s.accepted.Load(), nil
	case ioc.SigWSConnectionClose:
		return s.closed.Load(), nil
	default:
		return nil, ioc.ErrUnsupportedResponse
	}
}

func (s *clientSocket) Packets(ctx context.Context) <-chan ioc.PacketOrError {
	ch := make(chan ioc.PacketOrError)
	go func() {
		defer close(ch)
		for {
			payload, err := s.Receive(ctx)
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
