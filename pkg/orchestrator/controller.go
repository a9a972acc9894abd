package orchestrator

import (
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/credentials"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/storage"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/transport"
	log "github.com/sirupsen/logrus"
)

// Options carries the orchestrator's timing knobs. Tests shrink these.
type Options struct {
	// PairingWindow is how long a pairing attempt stays valid overall.
	PairingWindow time.Duration
	// CodeWaitTimeout bounds how long StartPairing blocks for a code.
	CodeWaitTimeout time.Duration
	// SettleDelay is the pause between promotion and the confirming
	// reconciler pass.
	SettleDelay time.Duration
	// RecencyWindow limits how far back CheckPairingStatus looks for a
	// freshly promoted device.
	RecencyWindow time.Duration
	// CleanupLookback and CleanupBucket drive duplicate-device cleanup.
	CleanupLookback time.Duration
	CleanupBucket   time.Duration
}

func DefaultOptions() Options {
	return Options{
		PairingWindow:   5 * time.Minute,
		CodeWaitTimeout: 30 * time.Second,
		SettleDelay:     12 * time.Second,
		RecencyWindow:   5 * time.Minute,
		CleanupLookback: 10 * time.Minute,
		CleanupBucket:   30 * time.Second,
	}
}

// pairingAttempt binds a transient session to the device it should
// become. It lives from StartPairing until the pairing window elapses.
type pairingAttempt struct {
	sessionID   string
	scope       string
	tenantID    string
	createdBy   string
	name        string
	description string
	expiresAt   time.Time
	codeCh      chan string
	window      *time.Timer
	deviceID    string
}

type deviceRef struct {
	tenantID string
	deviceID string
}

// Controller owns the device connection orchestration: pairing, session
// promotion, reconciliation and the administrative lifecycle. One
// instance supervises all tenants' sessions in the process.
type Controller struct {
	store    storage.Interface
	creds    credentials.Store
	dialer   transport.Dialer
	registry *Registry
	nc       *nats.Conn
	opts     Options

	mu       sync.Mutex
	pending  map[string]*pairingAttempt
	promoted map[string]struct{}
	devices  map[string]deviceRef
}

// NewController wires the orchestrator. nc may be nil; status events are
// then skipped.
func NewController(store storage.Interface, creds credentials.Store, dialer transport.Dialer, registry *Registry, nc *nats.Conn, opts Options) *Controller {
	return &Controller{
		store:    store,
		creds:    creds,
		dialer:   dialer,
		registry: registry,
		nc:       nc,
		opts:     opts,
		pending:  make(map[string]*pairingAttempt),
		promoted: make(map[string]struct{}),
		devices:  make(map[string]deviceRef),
	}
}

func pairingScope(sessionID string) string {
	return "pairing-" + sessionID
}

func deviceScope(deviceID string) string {
	return "device-" + deviceID
}

// sessionEventLoop consumes a client's signal stream. Reading the stream
// sequentially is what serializes the racing connection-open and
// credentials-saved signals for one session.
func (ctrl *Controller) sessionEventLoop(sessionID string, client transport.Client) {
	defer ctrl.forgetSession(sessionID)

	for ev := range client.Events() {
		switch ev.Type {
		case transport.EventPairingCode:
			ctrl.handlePairingCode(sessionID, ev.Code)
		case transport.EventCredentialsSaved, transport.EventConnectionOpen:
			ctrl.promote(sessionID)
		case transport.EventConnectionClose:
			ctrl.handleConnectionClose(sessionID, ev.Reason)
		}
	}
}

func (ctrl *Controller) handlePairingCode(sessionID, code string) {
	ctrl.registry.SetPairingCode(sessionID, code)

	ctrl.mu.Lock()
	p, ok := ctrl.pending[sessionID]
	ctrl.mu.Unlock()
	if !ok {
		return
	}

	select {
	case p.codeCh <- code:
	default:
	}
}

func (ctrl *Controller) handleConnectionClose(sessionID string, reason int) {
	ctrl.mu.Lock()
	ref, isDevice := ctrl.devices[sessionID]
	ctrl.mu.Unlock()

	key := sessionID
	if isDevice {
		key = ref.deviceID
	}
	ctrl.registry.Remove(key)

	log.Infof("orchestrator: transport connection for session '%s' closed (reason %d)", sessionID, reason)

	if isDevice {
		ctrl.ValidateAndUpdateStatus(ref.tenantID, ref.deviceID, ref.deviceID)
	}
}

// forgetSession drops the per-session bookkeeping once the event loop
// exits. The pairing window timer still covers a not-yet-expired attempt.
func (ctrl *Controller) forgetSession(sessionID string) {
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()

	delete(ctrl.promoted, sessionID)
	delete(ctrl.devices, sessionID)
}
