// Package rider implements TransportRider (spec §4.7): the holder of a live
// connection (client) or of the routing surface (server) that dispatches
// frames to a set of subscribed Transports.
package rider

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/launchkit/launchkit/internal/ioc"
	"github.com/launchkit/launchkit/internal/launart"
	"github.com/launchkit/launchkit/internal/transport"
)

// newConnectionID mints the random 12-char alphanumeric id spec §4.7
// requires for server-side connections, grounded on google/uuid for the
// entropy source (truncated rather than used whole, since the spec calls
// for a short id, not a full UUID).
func newConnectionID() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	if len(raw) > 12 {
		raw = raw[:12]
	}
	return raw
}

// triggerCallbacks fans sig out to every subscribed transport's bound
// callbacks concurrently, via launart.TriggerCallbacks, converting
// transport.Callback (variadic args) into launart.Callback (single payload)
// by closing over args.
func triggerCallbacks(ctx context.Context, transports []*transport.Transport, sig ioc.Signature, args ...any) error {
	var callbacks []launart.Callback
	for _, tr := range transports {
		for _, cb := range tr.GetCallbacks(sig) {
			cb := cb
			callbacks = append(callbacks, func(ctx context.Context, _ any) error {
				return cb(ctx, args...)
			})
		}
	}
	if len(callbacks) == 0 {
		return nil
	}
	return launart.TriggerCallbacks(ctx, callbacks, nil, 0)
}
