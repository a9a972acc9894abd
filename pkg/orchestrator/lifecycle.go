package orchestrator

import (
	"time"

	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/model"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/storage"
	log "github.com/sirupsen/logrus"
)

// DeviceUpdate carries the mutable fields of an administrative update.
// Nil fields stay untouched.
type DeviceUpdate struct {
	Name        *string
	Description *string
	IsActive    *bool
}

func (ctrl *Controller) ListDevices(tenantID string) ([]model.Device, error) {
	devices, err := ctrl.store.Devices().FetchAllByTenant(tenantID)
	if err != nil {
		return nil, newErrorf(KindUnavailable, "failed to fetch devices: %s", err.Error())
	}
	return devices, nil
}

func (ctrl *Controller) GetDevice(tenantID, id string) (*model.Device, error) {
	dev, err := ctrl.store.Devices().FindByID(tenantID, id)
	if err == storage.ErrNotFound {
		return nil, newErrorf(KindNotFound, "device '%s' not found", id)
	} else if err != nil {
		return nil, newErrorf(KindUnavailable, "failed to find device: %s", err.Error())
	}
	return dev, nil
}

// CreateDevice persists a new device in status disconnected. The device
// name must be unique within the tenant among non-deleted devices.
func (ctrl *Controller) CreateDevice(tenantID, createdBy, name, description string) (*model.Device, error) {
	if name == "" {
		return nil, newError(KindConflict, "device name is required")
	}

	_, err := ctrl.store.Devices().FindByName(tenantID, name)
	if err == nil {
		return nil, newErrorf(KindConflict, "a device named '%s' exists already", name)
	} else if err != storage.ErrNotFound {
		return nil, newErrorf(KindUnavailable, "failed to check for existing device: %s", err.Error())
	}

	dev := &model.Device{
		TenantID:    tenantID,
		CreatedBy:   createdBy,
		Name:        name,
		Description: description,
		Status:      model.StatusDisconnected,
		IsActive:    true,
	}
	if err := ctrl.store.Devices().Create(dev); err != nil {
		return nil, newErrorf(KindUnavailable, "failed to create device: %s", err.Error())
	}

	return dev, nil
}

func (ctrl *Controller) UpdateDevice(tenantID, id string, upd DeviceUpdate) (*model.Device, error) {
	dev, err := ctrl.GetDevice(tenantID, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil && *upd.Name != dev.Name {
		if *upd.Name == "" {
			return nil, newError(KindConflict, "device name is required")
		}
		_, err := ctrl.store.Devices().FindByName(tenantID, *upd.Name)
		if err == nil {
			return nil, newErrorf(KindConflict, "a device named '%s' exists already", *upd.Name)
		} else if err != storage.ErrNotFound {
			return nil, newErrorf(KindUnavailable, "failed to check for existing device: %s", err.Error())
		}
		dev.Name = *upd.Name
	}
	if upd.Description != nil {
		dev.Description = *upd.Description
	}
	if upd.IsActive != nil {
		dev.IsActive = *upd.IsActive
	}

	if err := ctrl.store.Devices().Update(dev); err != nil {
		return nil, newErrorf(KindUnavailable, "failed to update device: %s", err.Error())
	}

	return dev, nil
}

// DeleteDevice soft-deletes a device. Any live session is torn down
// best-effort first; teardown failures never block the deletion.
func (ctrl *Controller) DeleteDevice(tenantID, id string) error {
	dev, err := ctrl.GetDevice(tenantID, id)
	if err != nil {
		return err
	}

	ctrl.logoutSession(id)
	ctrl.teardownTransport(id, deviceScope(id))

	dev.IsDeleted = true
	dev.Status = model.StatusDisconnected
	if err := ctrl.store.Devices().Update(dev); err != nil {
		return newErrorf(KindUnavailable, "failed to delete device: %s", err.Error())
	}

	ctrl.publishDeviceStatus(tenantID, id, model.StatusDisconnected, nil)
	return nil
}

// Reconnect re-opens a transport session from persisted credential
// material. The device moves to connecting; the scheduled reconciler
// pass settles it to connected or disconnected.
func (ctrl *Controller) Reconnect(tenantID, id string) (*model.Device, error) {
	dev, err := ctrl.GetDevice(tenantID, id)
	if err != nil {
		return nil, err
	}

	if _, live := ctrl.registry.Get(id); live {
		ctrl.ValidateAndUpdateStatus(tenantID, id, id)
		return ctrl.GetDevice(tenantID, id)
	}

	exists, err := ctrl.creds.Exists(deviceScope(id))
	if err != nil {
		return nil, newErrorf(KindUnavailable, "failed to check credential material: %s", err.Error())
	}
	if !exists {
		return nil, newErrorf(KindUnavailable, "no session material for device '%s', pair the device again", id)
	}

	client, err := ctrl.dialer.Dial(deviceScope(id))
	if err != nil {
		return nil, newErrorf(KindUnavailable, "failed to open transport connection: %s", err.Error())
	}

	ctrl.registry.Register(id, client)

	ctrl.mu.Lock()
	ctrl.devices[id] = deviceRef{tenantID: tenantID, deviceID: id}
	ctrl.mu.Unlock()

	go ctrl.sessionEventLoop(id, client)

	dev.Status = model.StatusConnecting
	if err := ctrl.store.Devices().Update(dev); err != nil {
		return nil, newErrorf(KindUnavailable, "failed to update device: %s", err.Error())
	}
	ctrl.publishDeviceStatus(tenantID, id, model.StatusConnecting, nil)

	time.AfterFunc(ctrl.opts.SettleDelay, func() {
		ctrl.ValidateAndUpdateStatus(tenantID, id, id)
	})

	return dev, nil
}

// ForceDisconnect logs the session out, tolerating logout failures, and
// unconditionally clears registry entry, cached pairing code and
// credential scope before marking the device disconnected.
func (ctrl *Controller) ForceDisconnect(tenantID, id string) (*model.Device, error) {
	dev, err := ctrl.GetDevice(tenantID, id)
	if err != nil {
		return nil, err
	}

	ctrl.logoutSession(id)
	ctrl.teardownTransport(id, deviceScope(id))

	dev.Status = model.StatusDisconnected
	if err := ctrl.store.Devices().Update(dev); err != nil {
		return nil, newErrorf(KindUnavailable, "failed to update device: %s", err.Error())
	}

	ctrl.publishDeviceStatus(tenantID, id, model.StatusDisconnected, nil)
	return dev, nil
}

// GetDeviceStatus reads a device and, when the record still claims
// connected without a live session in this process, reconciles it first.
// This is the crash-recovery path after a restart.
func (ctrl *Controller) GetDeviceStatus(tenantID, id string) (*model.Device, error) {
	dev, err := ctrl.GetDevice(tenantID, id)
	if err != nil {
		return nil, err
	}

	if dev.Status == model.StatusConnected {
		if _, live := ctrl.registry.Get(id); !live {
			ctrl.ValidateAndUpdateStatus(tenantID, id, id)
			return ctrl.GetDevice(tenantID, id)
		}
	}

	return dev, nil
}

// CleanupDuplicateDevices reaps devices created by promotion signals
// that slipped past the idempotency guard across restarts. Recently
// created devices are grouped into fixed time buckets; in any bucket
// with more than one device the earliest survives and the rest are
// soft-deleted with their sessions torn down. This is a heuristic
// reconciliation, not a strict guarantee.
func (ctrl *Controller) CleanupDuplicateDevices(tenantID string) (int, error) {
	since := time.Now().Add(-ctrl.opts.CleanupLookback)
	devices, err := ctrl.store.Devices().FetchRecent(tenantID, since)
	if err != nil {
		return 0, newErrorf(KindUnavailable, "failed to fetch recent devices: %s", err.Error())
	}

	width := int64(ctrl.opts.CleanupBucket / time.Second)
	if width < 1 {
		width = 1
	}

	// FetchRecent returns devices ordered by creation time, so the
	// first entry of every bucket is the one to keep.
	buckets := make(map[int64][]model.Device)
	order := make([]int64, 0)
	for _, d := range devices {
		b := d.CreatedAt.Unix() / width
		if _, ok := buckets[b]; !ok {
			order = append(order, b)
		}
		buckets[b] = append(buckets[b], d)
	}

	removed := 0
	for _, b := range order {
		group := buckets[b]
		if len(group) < 2 {
			continue
		}

		for _, dup := range group[1:] {
			ctrl.logoutSession(dup.ID)
			ctrl.teardownTransport(dup.ID, deviceScope(dup.ID))

			dup.IsDeleted = true
			dup.Status = model.StatusDisconnected
			if err := ctrl.store.Devices().Update(&dup); err != nil {
				log.Errorf("orchestrator: cleanup failed to delete duplicate device '%s': %v", dup.ID, err)
				continue
			}

			ctrl.publishDeviceStatus(tenantID, dup.ID, model.StatusDisconnected, nil)
			removed++

			log.Infof("orchestrator: cleanup removed duplicate device '%s' ('%s'), kept '%s'", dup.ID, dup.Name, group[0].ID)
		}
	}

	return removed, nil
}

// ClearAllSessions is the administrative global reset: every live
// session is dropped and every persisted device marked disconnected.
func (ctrl *Controller) ClearAllSessions() (int, error) {
	ctrl.mu.Lock()
	for _, p := range ctrl.pending {
		if p.window != nil {
			p.window.Stop()
		}
	}
	ctrl.pending = make(map[string]*pairingAttempt)
	ctrl.promoted = make(map[string]struct{})
	ctrl.devices = make(map[string]deviceRef)
	ctrl.mu.Unlock()

	for _, client := range ctrl.registry.Clear() {
		if err := client.Close(); err != nil {
			log.Warnf("orchestrator: failed to close transport during session reset: %v", err)
		}
	}

	devices, err := ctrl.store.Devices().FetchAll()
	if err != nil {
		return 0, newErrorf(KindUnavailable, "failed to fetch devices: %s", err.Error())
	}

	reset := 0
	for _, dev := range devices {
		if dev.Status == model.StatusDisconnected {
			continue
		}
		dev.Status = model.StatusDisconnected
		if err := ctrl.store.Devices().Update(&dev); err != nil {
			log.Errorf("orchestrator: session reset failed to update device '%s': %v", dev.ID, err)
			continue
		}
		ctrl.publishDeviceStatus(dev.TenantID, dev.ID, model.StatusDisconnected, nil)
		reset++
	}

	log.Infof("orchestrator: session reset cleared the registry and disconnected %d devices", reset)
	return reset, nil
}

// RecordMessageSent bumps the sent counter after a successful transport
// send.
func (ctrl *Controller) RecordMessageSent(tenantID, id string) error {
	return ctrl.bumpCounter(tenantID, id, func(dev *model.Device) {
		dev.MessagesSent++
	})
}

// RecordMessageReceived bumps the received counter when the transport
// delivers an inbound message.
func (ctrl *Controller) RecordMessageReceived(tenantID, id string) error {
	return ctrl.bumpCounter(tenantID, id, func(dev *model.Device) {
		dev.MessagesReceived++
	})
}

func (ctrl *Controller) bumpCounter(tenantID, id string, bump func(*model.Device)) error {
	dev, err := ctrl.GetDevice(tenantID, id)
	if err != nil {
		return err
	}

	bump(dev)
	now := time.Now().Round(time.Second).UTC()
	dev.LastMessageAt = &now

	if err := ctrl.store.Devices().Update(dev); err != nil {
		return newErrorf(KindUnavailable, "failed to update device counters: %s", err.Error())
	}
	return nil
}

// logoutSession asks the transport to invalidate the session on the
// network side. Best-effort; a failed logout never blocks teardown.
func (ctrl *Controller) logoutSession(sessionID string) {
	client, ok := ctrl.registry.Get(sessionID)
	if !ok {
		return
	}
	if err := client.Logout(); err != nil {
		log.Warnf("orchestrator: transport logout for session '%s' failed: %v", sessionID, err)
	}
}
