package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/storage/memory"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/transport"
)

type fakeClient struct {
	scope  string
	events chan transport.Event

	mu        sync.Mutex
	closed    bool
	loggedOut bool
	logoutErr error
}

func newFakeClient(scope string) *fakeClient {
	return &fakeClient{
		scope:  scope,
		events: make(chan transport.Event, 16),
	}
}

func (c *fakeClient) Events() <-chan transport.Event { return c.events }

func (c *fakeClient) Send(ctx context.Context, to string, payload []byte) error {
	return nil
}

func (c *fakeClient) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loggedOut = true
	return c.logoutErr
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
	return nil
}

func (c *fakeClient) emit(ev transport.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.events <- ev
	}
}

type fakeDialer struct {
	mu      sync.Mutex
	clients []*fakeClient
	err     error
	onDial  func(*fakeClient)
}

func (d *fakeDialer) Dial(scope string) (transport.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	c := newFakeClient(scope)
	d.clients = append(d.clients, c)
	if d.onDial != nil {
		d.onDial(c)
	}
	return c, nil
}

func (d *fakeDialer) last() *fakeClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.clients) == 0 {
		return nil
	}
	return d.clients[len(d.clients)-1]
}

type fakeCreds struct {
	mu     sync.Mutex
	scopes map[string]bool
}

func newFakeCreds() *fakeCreds {
	return &fakeCreds{scopes: make(map[string]bool)}
}

func (s *fakeCreds) Exists(scope string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scopes[scope], nil
}

func (s *fakeCreds) Copy(fromScope, toScope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scopes[fromScope] {
		s.scopes[toScope] = true
	}
	return nil
}

func (s *fakeCreds) Delete(scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scopes, scope)
	return nil
}

func (s *fakeCreds) put(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes[scope] = true
}

func testOptions() Options {
	return Options{
		PairingWindow:   time.Minute,
		CodeWaitTimeout: 2 * time.Second,
		SettleDelay:     10 * time.Millisecond,
		RecencyWindow:   time.Minute,
		CleanupLookback: 10 * time.Minute,
		CleanupBucket:   30 * time.Second,
	}
}

func newTestController(opts Options) (*Controller, *fakeDialer, *fakeCreds) {
	dialer := &fakeDialer{}
	creds := newFakeCreds()
	ctrl := NewController(memory.NewStore(), creds, dialer, NewRegistry(), nil, opts)
	return ctrl, dialer, creds
}

func transportEventCredentialsSaved() transport.Event {
	return transport.Event{Type: transport.EventCredentialsSaved}
}

type errForTest string

func (e errForTest) Error() string { return string(e) }

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
