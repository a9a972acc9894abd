package orchestrator

import (
	"time"

	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/model"
	log "github.com/sirupsen/logrus"
)

// ValidateAndUpdateStatus is the single source of truth reconciling a
// device's persisted status with the actual session and credential
// state. It runs after promotion, after an administrative reconnect, and
// whenever a status read finds a persisted `connected` device without a
// live session. It never reports internal errors back to the caller; a
// persistence failure leaves the device in its last known state.
func (ctrl *Controller) ValidateAndUpdateStatus(tenantID, deviceID, sessionID string) {
	dev, err := ctrl.store.Devices().FindByID(tenantID, deviceID)
	if err != nil {
		log.Errorf("orchestrator: reconcile could not load device '%s': %v", deviceID, err)
		return
	}

	status := model.StatusDisconnected
	if _, live := ctrl.registry.Get(sessionID); live {
		exists, err := ctrl.creds.Exists(deviceScope(deviceID))
		if err != nil {
			log.Errorf("orchestrator: reconcile failed to check credential material for device '%s': %v", deviceID, err)
		}
		if err == nil && exists {
			status = model.StatusConnected
		}
	}

	dev.Status = status
	if status == model.StatusConnected {
		now := time.Now().Round(time.Second).UTC()
		dev.LastSeen = &now
	}

	if err := ctrl.store.Devices().Update(dev); err != nil {
		log.Errorf("orchestrator: reconcile failed to update device '%s': %v", deviceID, err)
		return
	}

	ctrl.publishDeviceStatus(tenantID, deviceID, status, dev.LastSeen)

	log.Infof("orchestrator: device '%s' reconciled to status '%s'", deviceID, status)
}
