package memory

import (
	"testing"
	"time"

	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/model"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/storage"
)

func TestDeviceStoreCreateAndFind(t *testing.T) {
	s := NewStore()

	m := &model.Device{TenantID: "t1", Name: "A", Status: model.StatusDisconnected}
	if err := s.Devices().Create(m); err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.ID == "" {
		t.Fatal("expected generated id")
	}
	if m.CreatedAt.IsZero() || m.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps set")
	}

	got, err := s.Devices().FindByID("t1", m.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if got.Name != "A" {
		t.Fatalf("unexpected device: %+v", got)
	}

	if _, err := s.Devices().FindByID("t2", m.ID); err != storage.ErrNotFound {
		t.Fatalf("expected not found for foreign tenant, got %v", err)
	}

	got, err = s.Devices().FindByName("t1", "A")
	if err != nil || got.ID != m.ID {
		t.Fatalf("find by name: %v", err)
	}
}

func TestDeviceStoreSoftDeleteHidesRecord(t *testing.T) {
	s := NewStore()

	m := &model.Device{TenantID: "t1", Name: "A"}
	if err := s.Devices().Create(m); err != nil {
		t.Fatalf("create: %v", err)
	}

	m.IsDeleted = true
	if err := s.Devices().Update(m); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := s.Devices().FindByID("t1", m.ID); err != storage.ErrNotFound {
		t.Fatalf("expected deleted record hidden, got %v", err)
	}
	if _, err := s.Devices().FindByName("t1", "A"); err != storage.ErrNotFound {
		t.Fatalf("expected deleted record hidden by name, got %v", err)
	}

	devices, err := s.Devices().FetchAllByTenant("t1")
	if err != nil || len(devices) != 0 {
		t.Fatalf("expected empty tenant listing, got %d", len(devices))
	}

	// Updates on the raw record still work, e.g. an un-delete.
	m.IsDeleted = false
	if err := s.Devices().Update(m); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := s.Devices().FindByID("t1", m.ID); err != nil {
		t.Fatalf("expected record visible again, got %v", err)
	}
}

func TestDeviceStoreFetchRecentOrdering(t *testing.T) {
	s := NewStore()

	a := &model.Device{TenantID: "t1", Name: "A"}
	b := &model.Device{TenantID: "t1", Name: "B"}
	for _, m := range []*model.Device{a, b} {
		if err := s.Devices().Create(m); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	now := time.Now().Round(time.Second).UTC()
	a.CreatedAt = now.Add(-3 * time.Minute)
	b.CreatedAt = now.Add(-1 * time.Minute)
	for _, m := range []*model.Device{a, b} {
		if err := s.Devices().Update(m); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	recent, err := s.Devices().FetchRecent("t1", now.Add(-2*time.Minute))
	if err != nil {
		t.Fatalf("fetch recent: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != b.ID {
		t.Fatalf("expected only the newer device, got %d", len(recent))
	}

	all, err := s.Devices().FetchRecent("t1", now.Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("fetch recent: %v", err)
	}
	if len(all) != 2 || all[0].ID != a.ID {
		t.Fatal("expected devices ordered by creation time")
	}
}

func TestDeviceStoreUpdateUnknown(t *testing.T) {
	s := NewStore()

	m := &model.Device{ID: "missing", TenantID: "t1", Name: "A"}
	if err := s.Devices().Update(m); err != storage.ErrNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
