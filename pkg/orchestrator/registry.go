package orchestrator

import (
	"sync"
	"time"

	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/transport"
)

type sessionEntry struct {
	client      transport.Client
	pairingCode string
	createdAt   time.Time
}

// Registry is the process-wide map of live transport sessions. It is the
// only shared mutable structure touched from event callbacks and
// administrative calls at once. State is lost on restart by design; a
// registry hit never proves a connection beyond the current process.
type Registry struct {
	sync.RWMutex
	entries map[string]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*sessionEntry),
	}
}

func (r *Registry) Register(sessionID string, client transport.Client) {
	r.Lock()
	defer r.Unlock()

	r.entries[sessionID] = &sessionEntry{
		client:    client,
		createdAt: time.Now().Round(time.Second).UTC(),
	}
}

func (r *Registry) Get(sessionID string) (transport.Client, bool) {
	r.RLock()
	defer r.RUnlock()

	e, ok := r.entries[sessionID]
	if !ok {
		return nil, false
	}
	return e.client, true
}

func (r *Registry) Remove(sessionID string) {
	r.Lock()
	defer r.Unlock()

	delete(r.entries, sessionID)
}

func (r *Registry) SetPairingCode(sessionID, code string) {
	r.Lock()
	defer r.Unlock()

	if e, ok := r.entries[sessionID]; ok {
		e.pairingCode = code
	}
}

func (r *Registry) PairingCode(sessionID string) (string, bool) {
	r.RLock()
	defer r.RUnlock()

	e, ok := r.entries[sessionID]
	if !ok || e.pairingCode == "" {
		return "", false
	}
	return e.pairingCode, true
}

// Rekey moves an entry to a new key, dropping any cached pairing code.
// It is used when a pairing session is promoted to a device id.
func (r *Registry) Rekey(oldID, newID string) bool {
	r.Lock()
	defer r.Unlock()

	e, ok := r.entries[oldID]
	if !ok {
		return false
	}

	delete(r.entries, oldID)
	e.pairingCode = ""
	r.entries[newID] = e
	return true
}

// Clear empties the registry and hands back the removed clients so the
// caller can tear the connections down.
func (r *Registry) Clear() []transport.Client {
	r.Lock()
	defer r.Unlock()

	clients := make([]transport.Client, 0, len(r.entries))
	for _, e := range r.entries {
		clients = append(clients, e.client)
	}
	r.entries = make(map[string]*sessionEntry)
	return clients
}

func (r *Registry) Len() int {
	r.RLock()
	defer r.RUnlock()

	return len(r.entries)
}
