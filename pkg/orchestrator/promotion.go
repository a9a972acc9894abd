package orchestrator

import (
	"time"

	"github.com/google/uuid"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/model"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/storage"
	log "github.com/sirupsen/logrus"
)

// promote turns a successfully paired session into a durable device
// record. Both the connection-open and the credentials-saved signal land
// here; the session's event loop delivers them one at a time and the
// promoted set makes the second delivery a no-op. The guard is only set
// after the device persisted, so a store failure leaves the session
// eligible for retry on the next signal.
func (ctrl *Controller) promote(sessionID string) {
	ctrl.mu.Lock()
	if _, done := ctrl.promoted[sessionID]; done {
		ctrl.mu.Unlock()
		return
	}
	p, ok := ctrl.pending[sessionID]
	ctrl.mu.Unlock()
	if !ok {
		// Not a pairing session; device connections signal open/saved
		// too and need no promotion.
		return
	}

	// Never create a device without durable auth material.
	exists, err := ctrl.creds.Exists(p.scope)
	if err != nil {
		log.Errorf("orchestrator: promotion of session '%s' failed to check credential material: %v", sessionID, err)
		return
	}
	if !exists {
		log.Warnf("orchestrator: promotion of session '%s' aborted, no credential material on scope", sessionID)
		return
	}

	// Re-pairing an existing name binds the fresh session to that
	// device instead of minting a twin; names stay unique within the
	// tenant among non-deleted devices.
	existing, err := ctrl.store.Devices().FindByName(p.tenantID, p.name)
	if err != nil && err != storage.ErrNotFound {
		log.Errorf("orchestrator: promotion of session '%s' failed to check for an existing device: %v", sessionID, err)
		return
	}

	deviceID := uuid.NewString()
	if existing != nil {
		deviceID = existing.ID
	}

	if err := ctrl.creds.Copy(p.scope, deviceScope(deviceID)); err != nil {
		log.Errorf("orchestrator: failed to migrate credential material for session '%s': %v", sessionID, err)
		return
	}

	// Promotion proves pairing, not a stable connection. The settle
	// delay below decides between connected and disconnected.
	if existing != nil {
		if old, ok := ctrl.registry.Get(deviceID); ok {
			if err := old.Close(); err != nil {
				log.Warnf("orchestrator: failed to close replaced session for device '%s': %v", deviceID, err)
			}
			ctrl.registry.Remove(deviceID)
		}

		existing.Status = model.StatusConnecting
		existing.IsActive = true
		if p.description != "" {
			existing.Description = p.description
		}
		if err := ctrl.store.Devices().Update(existing); err != nil {
			log.Errorf("orchestrator: failed to persist re-paired device for session '%s': %v", sessionID, err)
			return
		}
	} else {
		dev := &model.Device{
			ID:          deviceID,
			TenantID:    p.tenantID,
			CreatedBy:   p.createdBy,
			Name:        p.name,
			Description: p.description,
			Status:      model.StatusConnecting,
			IsActive:    true,
		}
		if err := ctrl.store.Devices().Create(dev); err != nil {
			log.Errorf("orchestrator: failed to persist promoted device for session '%s': %v", sessionID, err)
			return
		}
	}

	ctrl.mu.Lock()
	ctrl.promoted[sessionID] = struct{}{}
	p.deviceID = deviceID
	ctrl.devices[sessionID] = deviceRef{tenantID: p.tenantID, deviceID: deviceID}
	ctrl.mu.Unlock()

	ctrl.registry.Rekey(sessionID, deviceID)
	ctrl.publishDeviceStatus(p.tenantID, deviceID, model.StatusConnecting, nil)

	log.Infof("orchestrator: session '%s' promoted to device '%s' ('%s')", sessionID, deviceID, p.name)

	tenantID := p.tenantID
	time.AfterFunc(ctrl.opts.SettleDelay, func() {
		ctrl.ValidateAndUpdateStatus(tenantID, deviceID, deviceID)
	})
}
