// Package transport defines the contract against the external
// chat-protocol client library. The wire protocol itself (framing,
// encryption, message encoding) lives entirely behind these interfaces;
// a concrete binding registers its Dialer at startup, the same way
// database/sql drivers announce themselves.
package transport

import (
	"context"
	"sync"
)

type EventType int

const (
	EventPairingCode EventType = iota
	EventCredentialsSaved
	EventConnectionOpen
	EventConnectionClose
)

func (t EventType) String() string {
	names := []string{
		"PAIRING_CODE",
		"CREDENTIALS_SAVED",
		"CONNECTION_OPEN",
		"CONNECTION_CLOSE"}

	if t < EventPairingCode || t > EventConnectionClose {
		return "UNKNOWN"
	}

	return names[t]
}

// Event is an asynchronous signal emitted by a live client connection.
// Code is set for EventPairingCode, Reason for EventConnectionClose.
type Event struct {
	Type   EventType
	Code   string
	Reason int
}

// Client is one live connection to the messaging network. Events returns
// the connection's signal stream; the channel is closed when the
// connection is torn down.
type Client interface {
	Events() <-chan Event
	Send(ctx context.Context, to string, payload []byte) error
	Logout() error
	Close() error
}

// Dialer opens a client bound to a credential-material scope. An empty
// scope is invalid.
type Dialer interface {
	Dial(scope string) (Client, error)
}

type dialerError string

func (e dialerError) Error() string {
	return string(e)
}

// ErrNoDialer is returned by Dial when no protocol binding registered
// itself.
const ErrNoDialer = dialerError("transport: no dialer registered")

var (
	mu            sync.RWMutex
	defaultDialer Dialer
)

// RegisterDialer installs the process-wide protocol binding. It is meant
// to be called once from the binding's init.
func RegisterDialer(d Dialer) {
	mu.Lock()
	defer mu.Unlock()
	defaultDialer = d
}

// DefaultDialer returns the registered binding, or a dialer that always
// fails with ErrNoDialer when none is registered.
func DefaultDialer() Dialer {
	mu.RLock()
	defer mu.RUnlock()
	if defaultDialer == nil {
		return unavailableDialer{}
	}
	return defaultDialer
}

type unavailableDialer struct{}

func (unavailableDialer) Dial(scope string) (Client, error) {
	return nil, ErrNoDialer
}
