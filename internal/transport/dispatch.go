package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/launchkit/launchkit/internal/ioc"
)

// DataType wraps fn so it only runs when the WebsocketReceivedEvent's
// Payload is exactly of type T, silently skipping frames of any other
// shape unless strict is true, in which case a type mismatch becomes an
// error. Grounded on the source's websocket shortcut.py `data_type`
// decorator, which lets a Transport declare one received-callback per
// frame kind (text vs binary) instead of type-switching by hand in every
// handler body.
func DataType[T any](fn func(ctx context.Context, io ioc.PacketIO, data T) error, strict bool) Callback {
	return func(ctx context.Context, args ...any) error {
		event, ok := firstEvent(args)
		if !ok {
			return nil
		}
		data, ok := event.Payload.(T)
		if !ok {
			if strict {
				var zero T
				return fmt.Errorf("transport: expected payload of type %T, got %T", zero, event.Payload)
			}
			return nil
		}
		return fn(ctx, event.IO, data)
	}
}

// JSONReceived wraps fn so a text WebSocket frame is JSON-decoded into T
// before fn runs. Grounded on the source's `json_require` decorator.
func JSONReceived[T any](fn func(ctx context.Context, io ioc.PacketIO, data T) error) Callback {
	return DataType(func(ctx context.Context, io ioc.PacketIO, raw string) error {
		var decoded T
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			return fmt.Errorf("transport: decode json frame: %w", err)
		}
		return fn(ctx, io, decoded)
	}, true)
}

func firstEvent(args []any) (ioc.WebsocketReceivedEvent, bool) {
	if len(args) == 0 {
		return ioc.WebsocketReceivedEvent{}, false
	}
	event, ok := args[0].(ioc.WebsocketReceivedEvent)
	return event, ok
}
