package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/model"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/storage"
	log "github.com/sirupsen/logrus"
)

type PairingResult struct {
	SessionID string
	Code      string
	ExpiresAt time.Time
}

type PairingStatus struct {
	Connected bool
	DeviceID  string
}

// StartPairing opens a fresh transport session bound to an ephemeral
// credential scope and blocks until the network issues a pairing code or
// the wait cap elapses. The attempt as a whole stays alive for the
// pairing window; if neither code nor credentials show up in that window
// the session is discarded.
func (ctrl *Controller) StartPairing(ctx context.Context, tenantID, createdBy, name, description string) (*PairingResult, error) {
	if name == "" {
		return nil, newError(KindConflict, "device name is required")
	}

	ctrl.mu.Lock()
	for _, p := range ctrl.pending {
		if p.tenantID == tenantID && p.name == name {
			ctrl.mu.Unlock()
			return nil, newErrorf(KindConflict, "a pairing attempt for device '%s' is already in progress", name)
		}
	}
	ctrl.mu.Unlock()

	sessionID := uuid.NewString()
	scope := pairingScope(sessionID)

	client, err := ctrl.dialer.Dial(scope)
	if err != nil {
		return nil, newErrorf(KindUnavailable, "failed to open transport connection: %s", err.Error())
	}

	p := &pairingAttempt{
		sessionID:   sessionID,
		scope:       scope,
		tenantID:    tenantID,
		createdBy:   createdBy,
		name:        name,
		description: description,
		expiresAt:   time.Now().Round(time.Second).UTC().Add(ctrl.opts.PairingWindow),
		codeCh:      make(chan string, 1),
	}

	// Arm the window before publishing the attempt; p is shared once it
	// is in the pending map.
	p.window = time.AfterFunc(ctrl.opts.PairingWindow, func() {
		ctrl.expirePairing(sessionID)
	})

	ctrl.mu.Lock()
	ctrl.pending[sessionID] = p
	ctrl.mu.Unlock()

	ctrl.registry.Register(sessionID, client)

	go ctrl.sessionEventLoop(sessionID, client)

	log.Infof("orchestrator: pairing session '%s' started for device '%s'", sessionID, name)

	select {
	case code := <-p.codeCh:
		return &PairingResult{SessionID: sessionID, Code: code, ExpiresAt: p.expiresAt}, nil
	case <-time.After(ctrl.opts.CodeWaitTimeout):
		ctrl.discardPairing(sessionID)
		return nil, newError(KindTimeout, "pairing code was not issued in time")
	case <-ctx.Done():
		ctrl.discardPairing(sessionID)
		return nil, ctx.Err()
	}
}

// CheckPairingStatus is a polling-friendly, side-effect-free read. It
// reports connected only once the promoted device has settled to
// `connected`; a device still in `connecting` is deliberately reported
// as not yet connected.
func (ctrl *Controller) CheckPairingStatus(tenantID, sessionID string) (*PairingStatus, error) {
	ctrl.mu.Lock()
	p, ok := ctrl.pending[sessionID]
	var deviceID string
	if ok {
		deviceID = p.deviceID
	}
	ctrl.mu.Unlock()
	if !ok || p.tenantID != tenantID {
		return nil, newErrorf(KindNotFound, "unknown pairing session '%s'", sessionID)
	}

	// Credential material on the pairing scope is the proxy for "the
	// user completed pairing on their handset".
	exists, err := ctrl.creds.Exists(p.scope)
	if err != nil {
		return nil, newErrorf(KindUnavailable, "failed to check credential material: %s", err.Error())
	}
	if !exists {
		return &PairingStatus{}, nil
	}

	// A promoted attempt knows its device; read that record directly.
	if deviceID != "" {
		dev, err := ctrl.store.Devices().FindByID(p.tenantID, deviceID)
		if err == storage.ErrNotFound {
			return &PairingStatus{}, nil
		} else if err != nil {
			return nil, newErrorf(KindUnavailable, "failed to find device: %s", err.Error())
		}
		if dev.Status == model.StatusConnected {
			return &PairingStatus{Connected: true, DeviceID: deviceID}, nil
		}
		return &PairingStatus{}, nil
	}

	since := time.Now().Add(-ctrl.opts.RecencyWindow)
	devices, err := ctrl.store.Devices().FetchRecent(p.tenantID, since)
	if err != nil {
		return nil, newErrorf(KindUnavailable, "failed to fetch recent devices: %s", err.Error())
	}

	for i := len(devices) - 1; i >= 0; i-- {
		switch devices[i].Status {
		case model.StatusConnected:
			return &PairingStatus{Connected: true, DeviceID: devices[i].ID}, nil
		case model.StatusConnecting:
			return &PairingStatus{}, nil
		}
	}

	return &PairingStatus{}, nil
}

// discardPairing tears an attempt down after the caller gave up waiting
// for a code.
func (ctrl *Controller) discardPairing(sessionID string) {
	ctrl.mu.Lock()
	p, ok := ctrl.pending[sessionID]
	if ok {
		delete(ctrl.pending, sessionID)
	}
	ctrl.mu.Unlock()
	if !ok {
		return
	}

	if p.window != nil {
		p.window.Stop()
	}
	ctrl.teardownTransport(sessionID, p.scope)
}

// expirePairing fires when the pairing window elapses. A promoted
// attempt only loses its bookkeeping entry and its ephemeral pairing
// scope; the live session continues under the device id.
func (ctrl *Controller) expirePairing(sessionID string) {
	ctrl.mu.Lock()
	p, ok := ctrl.pending[sessionID]
	if ok {
		delete(ctrl.pending, sessionID)
	}
	_, wasPromoted := ctrl.promoted[sessionID]
	ctrl.mu.Unlock()
	if !ok {
		return
	}

	if wasPromoted {
		if err := ctrl.creds.Delete(p.scope); err != nil {
			log.Warnf("orchestrator: failed to delete pairing credential scope '%s': %v", p.scope, err)
		}
		return
	}

	log.Infof("orchestrator: pairing session '%s' expired without completing", sessionID)
	ctrl.teardownTransport(sessionID, p.scope)
}

// teardownTransport closes and deregisters a session and wipes its
// credential scope. Failures are logged and swallowed; teardown must
// always make forward progress.
func (ctrl *Controller) teardownTransport(sessionID, scope string) {
	if client, ok := ctrl.registry.Get(sessionID); ok {
		if err := client.Close(); err != nil {
			log.Warnf("orchestrator: failed to close transport for session '%s': %v", sessionID, err)
		}
	}
	ctrl.registry.Remove(sessionID)

	if err := ctrl.creds.Delete(scope); err != nil {
		log.Warnf("orchestrator: failed to delete credential scope '%s': %v", scope, err)
	}
}
