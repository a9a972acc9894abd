package storage

import (
	"time"

	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/model"
)

// Interface is implemented by the storage
type Interface interface {
	Devices() DeviceStore
}

// DeviceStore is responsible for managing the Device model. All finders
// are tenant-scoped and skip soft-deleted records; Update operates on the
// raw record so soft-deletion itself can be persisted.
type DeviceStore interface {
	FetchAllByTenant(tenantID string) ([]model.Device, error)
	FetchRecent(tenantID string, since time.Time) ([]model.Device, error)
	FetchAll() ([]model.Device, error)
	FindByID(tenantID, id string) (*model.Device, error)
	FindByName(tenantID, name string) (*model.Device, error)
	Create(m *model.Device) error
	Update(m *model.Device) error
}
