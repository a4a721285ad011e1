package rider

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/launchkit/launchkit/internal/ioc"
	"github.com/launchkit/launchkit/internal/launart"
	"github.com/launchkit/launchkit/internal/statv"
	"github.com/launchkit/launchkit/internal/transport"
)

// ConnectFactory opens one connection attempt, returning a PacketIO (for
// WebSocket riders) wrapping it. Client HTTP riders that only need a single
// request/response instead call a ReadonlyIO-shaped factory; this package
// focuses on the WebSocket case, where reconnection is meaningful.
type ConnectFactory func(ctx context.Context) (ioc.PacketIO, error)

// ReconnectPolicy controls the client rider's connect-retry backoff.
type ReconnectPolicy struct {
	Enabled         bool
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	Multiplier      float64
}

// ClientRider is the client-side TransportRider: it owns a connect task that
// (re)establishes one connection at a time and a set of subscribed
// Transports whose WebSocketReconnect handlers decide, per cycle, whether to
// keep trying.
type ClientRider struct {
	factory ConnectFactory
	policy  ReconnectPolicy
	status  *statv.ConnectionStatus

	mu          sync.Mutex
	io          ioc.PacketIO
	autoreceive bool
	transports  []*transport.Transport
	cancelMgr   context.CancelFunc
}

// NewClientRider constructs a ClientRider with the given connect factory and
// reconnect policy.
func NewClientRider(factory ConnectFactory, policy ReconnectPolicy) *ClientRider {
	return &ClientRider{
		factory: factory,
		policy:  policy,
		status:  statv.NewConnectionStatus(),
	}
}

// Status exposes the rider's ConnectionStatus.
func (r *ClientRider) Status() *statv.ConnectionStatus { return r.status }

// Await drives _start_conn: if the connection is not available, it opens one
// via the factory, marking connected=true on success, then returns once the
// status reports available (or the connect attempt itself failed).
func (r *ClientRider) Await(ctx context.Context) error {
	r.mu.Lock()
	if r.status.Connected() {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	io, err := r.factory(ctx)
	if err != nil {
		return fmt.Errorf("rider: connect: %w", err)
	}

	r.mu.Lock()
	r.io = io
	r.mu.Unlock()

	connected, succeed := true, true
	if err := r.status.Update(&connected, &succeed); err != nil {
		return err
	}
	return nil
}

// IO returns the active PacketIO, failing with ErrTakenOver if Use() has
// switched this rider to autoreceive.
func (r *ClientRider) IO() (ioc.PacketIO, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.autoreceive {
		return nil, launart.ErrTakenOver
	}
	return r.io, nil
}

// Use enables autoreceive for WebSockets: tr is registered and
// connectionManage is spawned if it is not already running.
func (r *ClientRider) Use(ctx context.Context, tr *transport.Transport) {
	r.mu.Lock()
	r.autoreceive = true
	r.transports = append(r.transports, tr)
	alreadyRunning := r.cancelMgr != nil
	r.mu.Unlock()

	if alreadyRunning {
		return
	}

	mgrCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancelMgr = cancel
	r.mu.Unlock()

	go r.connectionManage(mgrCtx)
}

// connectionManage implements spec §4.7's server... client loop: while any
// transports remain, ensure the connection, fire Connect, receive packets
// firing Received for each, fire Close on closure, then ask each transport's
// WebsocketReconnect handler whether to keep it subscribed for another
// cycle.
func (r *ClientRider) connectionManage(ctx context.Context) {
	backoff := r.policy.InitialBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	for {
		r.mu.Lock()
		active := append([]*transport.Transport{}, r.transports...)
		r.mu.Unlock()
		if len(active) == 0 {
			return
		}

		if err := r.Await(ctx); err != nil {
			if !r.policy.Enabled {
				return
			}
			// Pace the next attempt with a one-shot rate.Limiter sized to
			// the current backoff instead of a bare time.After. A new
			// limiter starts with a full bucket, so its one token is spent
			// first and Wait then blocks for one backoff interval.
			limiter := rate.NewLimiter(rate.Every(backoff), 1)
			limiter.Allow()
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			backoff = nextBackoff(backoff, r.policy)
			continue
		}
		backoff = r.policy.InitialBackoff

		r.mu.Lock()
		io := r.io
		r.mu.Unlock()

		_ = triggerCallbacks(ctx, active, ioc.SigWebsocketConnect, ioc.WebsocketConnectEvent{IO: io})

		for {
			payload, err := io.Receive(ctx)
			if err != nil {
				break
			}
			_ = triggerCallbacks(ctx, active, ioc.SigWebsocketReceived, ioc.WebsocketReceivedEvent{IO: io, Payload: payload})
		}

		_ = triggerCallbacks(ctx, active, ioc.SigWebsocketClose, ioc.WebsocketCloseEvent{IO: io})

		connected := false
		_ = r.status.Update(&connected, nil)

		var keep []*transport.Transport
		for _, tr := range active {
			h, err := tr.GetHandler(ioc.SigWebsocketReconnect)
			if err != nil {
				continue
			}
			decision, err := h(ctx)
			if err == nil && decision == true {
				keep = append(keep, tr)
			}
		}

		r.mu.Lock()
		r.transports = keep
		done := len(keep) == 0
		if done {
			r.cancelMgr = nil
		}
		r.mu.Unlock()

		if done {
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func nextBackoff(current time.Duration, policy ReconnectPolicy) time.Duration {
	mult := policy.Multiplier
	if mult <= 1 {
		mult = 2
	}
	next := time.Duration(math.Min(float64(current)*mult, float64(maxBackoff(policy))))
	return next
}

func maxBackoff(policy ReconnectPolicy) time.Duration {
	if policy.MaxBackoff <= 0 {
		return 30 * time.Second
	}
	return policy.MaxBackoff
}
