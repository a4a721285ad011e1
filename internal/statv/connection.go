package statv

import "context"

// Connection stat ids.
const (
	statConnected = "connected"
	statSucceed   = "succeed"
	statDrop      = "drop"
)

// ConnectionStatus is a Statv specialization tracking the liveness of a
// single rider connection: connected and succeed booleans, from which
// closed/available are derived, plus a transient drop flag the client rider
// uses to signal end-of-use.
type ConnectionStatus struct {
	*Statv
}

// NewConnectionStatus constructs a ConnectionStatus with connected=false,
// succeed=false, drop=false.
func NewConnectionStatus() *ConnectionStatus {
	descriptors := []Descriptor{
		{ID: statConnected, Default: false},
		{ID: statSucceed, Default: false},
		{ID: statDrop, Default: false},
	}
	s, err := New(descriptors, nil)
	if err != nil {
		// descriptors above always carry defaults; this can never fail.
		panic(err)
	}
	return &ConnectionStatus{Statv: s}
}

// Connected reports the current connected value.
func (c *ConnectionStatus) Connected() bool {
	return c.MustGet(statConnected).(bool)
}

// Succeed reports whether the connection's last attempt succeeded.
func (c *ConnectionStatus) Succeed() bool {
	return c.MustGet(statSucceed).(bool)
}

// Dropped reports whether the owner has signaled end-of-use.
func (c *ConnectionStatus) Dropped() bool {
	return c.MustGet(statDrop).(bool)
}

// Closed derives ¬connected.
func (c *ConnectionStatus) Closed() bool {
	return !c.Connected()
}

// Available derives connected.
func (c *ConnectionStatus) Available() bool {
	return c.Connected()
}

// Update writes only the provided fields and notifies waiters once. A nil
// pointer argument leaves that field untouched.
func (c *ConnectionStatus) Update(connected, succeed *bool) error {
	mapping := make(map[string]any, 2)
	if connected != nil {
		mapping[statConnected] = *connected
	}
	if succeed != nil {
		mapping[statSucceed] = *succeed
	}
	if len(mapping) == 0 {
		return nil
	}
	return c.UpdateMulti(mapping)
}

// SetDrop marks the connection for teardown by the client rider.
func (c *ConnectionStatus) SetDrop(drop bool) {
	c.Set(statDrop, drop)
}

// WaitForAvailable blocks until Connected() is true.
func (c *ConnectionStatus) WaitForAvailable(ctx context.Context) error {
	return c.WaitUntil(ctx, func(s Snapshot) bool {
		v, _ := s[statConnected].(bool)
		return v
	})
}

// WaitForUnavailable blocks until Connected() is false.
func (c *ConnectionStatus) WaitForUnavailable(ctx context.Context) error {
	return c.WaitUntil(ctx, func(s Snapshot) bool {
		v, _ := s[statConnected].(bool)
		return !v
	})
}

// WaitForDrop blocks until Dropped() is true.
func (c *ConnectionStatus) WaitForDrop(ctx context.Context) error {
	return c.WaitUntil(ctx, func(s Snapshot) bool {
		v, _ := s[statDrop].(bool)
		return v
	})
}
