package ioc

// WebsocketConnectEvent is the payload delivered to callbacks bound to
// SigWebsocketConnect, fired once per accepted socket.
type WebsocketConnectEvent struct {
	IO PacketIO
}

// WebsocketReceivedEvent is the payload delivered to callbacks bound to
// SigWebsocketReceived, fired once per inbound packet.
type WebsocketReceivedEvent struct {
	IO      PacketIO
	Payload any
}

// WebsocketCloseEvent is the payload delivered to callbacks bound to
// SigWebsocketClose, fired exactly once per socket lifecycle (spec P4).
type WebsocketCloseEvent struct {
	IO PacketIO
}

// ReconnectDecision is returned by a SigWebsocketReconnect handler: true
// keeps the transport subscribed for the rider's next connect cycle, false
// drops it.
type ReconnectDecision = bool
