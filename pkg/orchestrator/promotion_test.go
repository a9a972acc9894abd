package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/model"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/transport"
)

func startPairedSession(t *testing.T, ctrl *Controller, dialer *fakeDialer, creds *fakeCreds, tenantID string) (string, *fakeClient) {
	t.Helper()

	dialer.onDial = func(c *fakeClient) {
		c.emit(transport.Event{Type: transport.EventPairingCode, Code: "ABCD-1234"})
	}

	res, err := ctrl.StartPairing(context.Background(), tenantID, "user-1", "phone", "")
	if err != nil {
		t.Fatalf("start pairing: %v", err)
	}

	creds.put(pairingScope(res.SessionID))
	return res.SessionID, dialer.last()
}

func TestPromotionCreatesExactlyOneDevice(t *testing.T) {
	orders := map[string][]transport.EventType{
		"credentials_first": {transport.EventCredentialsSaved, transport.EventConnectionOpen},
		"open_first":        {transport.EventConnectionOpen, transport.EventCredentialsSaved},
		"double_delivery": {
			transport.EventCredentialsSaved, transport.EventCredentialsSaved,
			transport.EventConnectionOpen, transport.EventConnectionOpen,
		},
	}

	for name, events := range orders {
		t.Run(name, func(t *testing.T) {
			ctrl, dialer, creds := newTestController(testOptions())
			sessionID, client := startPairedSession(t, ctrl, dialer, creds, "tenant-a")

			for _, typ := range events {
				client.emit(transport.Event{Type: typ})
			}

			waitFor(t, "device promotion", func() bool {
				devices, _ := ctrl.store.Devices().FetchAllByTenant("tenant-a")
				return len(devices) >= 1
			})

			// Give a second insert every chance to happen before counting.
			time.Sleep(50 * time.Millisecond)

			devices, _ := ctrl.store.Devices().FetchAllByTenant("tenant-a")
			if len(devices) != 1 {
				t.Fatalf("expected exactly one device, got %d", len(devices))
			}

			dev := devices[0]
			if dev.Name != "phone" || dev.TenantID != "tenant-a" || dev.CreatedBy != "user-1" {
				t.Fatalf("unexpected device: %+v", dev)
			}

			// The registry entry moved from the session id to the device id.
			if _, ok := ctrl.registry.Get(sessionID); ok {
				t.Fatal("expected pairing session key removed after promotion")
			}
			if _, ok := ctrl.registry.Get(dev.ID); !ok {
				t.Fatal("expected registry entry under the device id")
			}

			// Device credential material was migrated from the pairing scope.
			if exists, _ := creds.Exists(deviceScope(dev.ID)); !exists {
				t.Fatal("expected credential material on the device scope")
			}
		})
	}
}

func TestPromotionBindsToExistingDeviceName(t *testing.T) {
	ctrl, dialer, creds := newTestController(testOptions())

	existing, err := ctrl.CreateDevice("tenant-a", "user-1", "phone", "old handset")
	if err != nil {
		t.Fatalf("create device: %v", err)
	}

	// Age the record well past any recency cut-off.
	existing.CreatedAt = time.Now().Add(-24 * time.Hour).Round(time.Second).UTC()
	if err := ctrl.store.Devices().Update(existing); err != nil {
		t.Fatalf("update device: %v", err)
	}

	// Pairing the same name again re-binds the device instead of
	// creating a twin.
	sessionID, client := startPairedSession(t, ctrl, dialer, creds, "tenant-a")
	client.emit(transportEventCredentialsSaved())

	waitFor(t, "device settling", func() bool {
		d, err := ctrl.GetDevice("tenant-a", existing.ID)
		return err == nil && d.Status == model.StatusConnected
	})

	devices, _ := ctrl.store.Devices().FetchAllByTenant("tenant-a")
	named := 0
	for _, d := range devices {
		if d.Name == "phone" {
			named++
		}
	}
	if named != 1 {
		t.Fatalf("expected a single device named 'phone', got %d", named)
	}

	if _, ok := ctrl.registry.Get(existing.ID); !ok {
		t.Fatal("expected session rekeyed onto the existing device id")
	}
	if exists, _ := creds.Exists(deviceScope(existing.ID)); !exists {
		t.Fatal("expected credential material on the existing device scope")
	}

	// The poller sees the re-paired device even though its record is old.
	status, err := ctrl.CheckPairingStatus("tenant-a", sessionID)
	if err != nil {
		t.Fatalf("check pairing status: %v", err)
	}
	if !status.Connected || status.DeviceID != existing.ID {
		t.Fatalf("expected connected with device id '%s', got %+v", existing.ID, status)
	}
}

func TestPromotionSettlesToConnected(t *testing.T) {
	ctrl, dialer, creds := newTestController(testOptions())
	_, client := startPairedSession(t, ctrl, dialer, creds, "tenant-a")

	client.emit(transport.Event{Type: transport.EventCredentialsSaved})

	waitFor(t, "device settling", func() bool {
		devices, _ := ctrl.store.Devices().FetchAllByTenant("tenant-a")
		return len(devices) == 1 && devices[0].Status == model.StatusConnected
	})

	devices, _ := ctrl.store.Devices().FetchAllByTenant("tenant-a")
	if devices[0].LastSeen == nil {
		t.Fatal("expected lastSeen set on a connected device")
	}
}

func TestPromotionWithoutCredentialsAborts(t *testing.T) {
	ctrl, dialer, _ := newTestController(testOptions())
	dialer.onDial = func(c *fakeClient) {
		c.emit(transport.Event{Type: transport.EventPairingCode, Code: "ABCD-1234"})
	}

	res, err := ctrl.StartPairing(context.Background(), "tenant-a", "user-1", "phone", "")
	if err != nil {
		t.Fatalf("start pairing: %v", err)
	}

	// Connection opens but the transport never saved credentials.
	dialer.last().emit(transport.Event{Type: transport.EventConnectionOpen})
	time.Sleep(50 * time.Millisecond)

	devices, _ := ctrl.store.Devices().FetchAllByTenant("tenant-a")
	if len(devices) != 0 {
		t.Fatalf("expected no device without credential material, got %d", len(devices))
	}

	// The session stays registered; a later signal may still promote it.
	if _, ok := ctrl.registry.Get(res.SessionID); !ok {
		t.Fatal("expected session still registered")
	}
}

func TestConnectionCloseReconcilesToDisconnected(t *testing.T) {
	ctrl, dialer, creds := newTestController(testOptions())
	_, client := startPairedSession(t, ctrl, dialer, creds, "tenant-a")

	client.emit(transport.Event{Type: transport.EventCredentialsSaved})

	waitFor(t, "device settling", func() bool {
		devices, _ := ctrl.store.Devices().FetchAllByTenant("tenant-a")
		return len(devices) == 1 && devices[0].Status == model.StatusConnected
	})

	client.emit(transport.Event{Type: transport.EventConnectionClose, Reason: 401})

	waitFor(t, "disconnect reconciliation", func() bool {
		devices, _ := ctrl.store.Devices().FetchAllByTenant("tenant-a")
		return devices[0].Status == model.StatusDisconnected
	})

	devices, _ := ctrl.store.Devices().FetchAllByTenant("tenant-a")
	if _, ok := ctrl.registry.Get(devices[0].ID); ok {
		t.Fatal("expected registry entry removed on connection close")
	}
}
