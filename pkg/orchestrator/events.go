package orchestrator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/model"
	log "github.com/sirupsen/logrus"
)

type deviceStatusEvent struct {
	TenantID  string     `json:"tenant_id"`
	DeviceID  string     `json:"device_id"`
	Status    string     `json:"status"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// publishDeviceStatus fans a status transition out over NATS, one
// subject per tenant. Publish failures are logged only; status events
// are advisory.
func (ctrl *Controller) publishDeviceStatus(tenantID, deviceID string, status model.Status, lastSeen *time.Time) {
	if ctrl.nc == nil {
		return
	}

	msg := deviceStatusEvent{
		TenantID:  tenantID,
		DeviceID:  deviceID,
		Status:    status.String(),
		LastSeen:  lastSeen,
		Timestamp: time.Now().Round(time.Second).UTC(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("orchestrator: failed to marshal device status event: %v", err)
		return
	}

	subj := fmt.Sprintf("waadmin.orchestrator.v1.%s.events.devicestatus", tenantID)
	if err := ctrl.nc.Publish(subj, data); err != nil {
		log.Errorf("orchestrator: could not publish device status: %v", err)
	}
}
