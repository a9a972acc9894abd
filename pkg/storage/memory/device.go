package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/model"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/storage"
)

type deviceStore struct {
	store map[string]model.Device
	sync.RWMutex
}

func newDeviceStore() *deviceStore {
	return &deviceStore{
		store: make(map[string]model.Device),
	}
}

func (s *deviceStore) FetchAllByTenant(tenantID string) ([]model.Device, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.Device, 0)
	for _, m := range s.store {
		if m.TenantID == tenantID && !m.IsDeleted {
			models = append(models, m)
		}
	}

	sortByCreatedAt(models)
	return models, nil
}

func (s *deviceStore) FetchRecent(tenantID string, since time.Time) ([]model.Device, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.Device, 0)
	for _, m := range s.store {
		if m.TenantID == tenantID && !m.IsDeleted && !m.CreatedAt.Before(since) {
			models = append(models, m)
		}
	}

	sortByCreatedAt(models)
	return models, nil
}

func (s *deviceStore) FetchAll() ([]model.Device, error) {
	s.RLock()
	defer s.RUnlock()

	models := make([]model.Device, 0, len(s.store))
	for _, m := range s.store {
		if !m.IsDeleted {
			models = append(models, m)
		}
	}

	sortByCreatedAt(models)
	return models, nil
}

func (s *deviceStore) FindByID(tenantID, id string) (*model.Device, error) {
	s.RLock()
	defer s.RUnlock()

	if m, ok := s.store[id]; ok && m.TenantID == tenantID && !m.IsDeleted {
		return &m, nil
	}

	return nil, storage.ErrNotFound
}

func (s *deviceStore) FindByName(tenantID, name string) (*model.Device, error) {
	s.RLock()
	defer s.RUnlock()

	for _, m := range s.store {
		if m.TenantID == tenantID && m.Name == name && !m.IsDeleted {
			return &m, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (s *deviceStore) Create(m *model.Device) error {
	s.Lock()
	defer s.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	m.CreatedAt = time.Now().Round(time.Second).UTC()
	m.UpdatedAt = time.Now().Round(time.Second).UTC()

	s.store[m.ID] = *m

	return nil
}

func (s *deviceStore) Update(m *model.Device) error {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.store[m.ID]; !ok {
		return storage.ErrNotFound
	}

	m.UpdatedAt = time.Now().Round(time.Second).UTC()
	s.store[m.ID] = *m

	return nil
}

func sortByCreatedAt(models []model.Device) {
	sort.Slice(models, func(i, j int) bool {
		if models[i].CreatedAt.Equal(models[j].CreatedAt) {
			return models[i].ID < models[j].ID
		}
		return models[i].CreatedAt.Before(models[j].CreatedAt)
	})
}
