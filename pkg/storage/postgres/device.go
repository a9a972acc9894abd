package postgres

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/model"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/storage"
)

func newDeviceStore(db *sqlx.DB) *deviceStore {
	return &deviceStore{
		db: db,
	}
}

type deviceStore struct {
	db *sqlx.DB
}

type sqlDataDevice struct {
	ID               string     `db:"id"`
	TenantID         string     `db:"tenant_id"`
	CreatedBy        string     `db:"created_by"`
	Name             string     `db:"name"`
	Description      string     `db:"description"`
	Status           string     `db:"status"`
	IsActive         bool       `db:"is_active"`
	IsDeleted        bool       `db:"is_deleted"`
	MessagesSent     int64      `db:"messages_sent"`
	MessagesReceived int64      `db:"messages_received"`
	LastSeen         *time.Time `db:"last_seen"`
	LastMessageAt    *time.Time `db:"last_message_at"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

var sqlParamsDevice = []string{
	"id",
	"tenant_id",
	"created_by",
	"name",
	"description",
	"status",
	"is_active",
	"is_deleted",
	"messages_sent",
	"messages_received",
	"last_seen",
	"last_message_at",
	"created_at",
	"updated_at",
}

func (d *sqlDataDevice) Scan(m *model.Device) error {
	var createdAt, updatedAt = m.CreatedAt, m.UpdatedAt

	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	if m.UpdatedAt.IsZero() {
		updatedAt = time.Now().Round(time.Second).UTC()
	}

	d.ID = m.ID
	d.TenantID = m.TenantID
	d.CreatedBy = m.CreatedBy
	d.Name = m.Name
	d.Description = m.Description
	d.Status = m.Status.String()
	d.IsActive = m.IsActive
	d.IsDeleted = m.IsDeleted
	d.MessagesSent = m.MessagesSent
	d.MessagesReceived = m.MessagesReceived
	d.LastSeen = m.LastSeen
	d.LastMessageAt = m.LastMessageAt
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt

	return nil
}

func (d *sqlDataDevice) Model() (*model.Device, error) {
	m := &model.Device{
		ID:               d.ID,
		TenantID:         d.TenantID,
		CreatedBy:        d.CreatedBy,
		Name:             d.Name,
		Description:      d.Description,
		Status:           model.ParseStatus(d.Status),
		IsActive:         d.IsActive,
		IsDeleted:        d.IsDeleted,
		MessagesSent:     d.MessagesSent,
		MessagesReceived: d.MessagesReceived,
		LastSeen:         d.LastSeen,
		LastMessageAt:    d.LastMessageAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}

	return m, nil
}

func (s *deviceStore) FetchAllByTenant(tenantID string) ([]model.Device, error) {
	query := "SELECT * FROM devices WHERE tenant_id=$1 AND is_deleted=FALSE ORDER BY created_at"
	return fetchDevices(s.db, query, tenantID)
}

func (s *deviceStore) FetchRecent(tenantID string, since time.Time) ([]model.Device, error) {
	query := "SELECT * FROM devices WHERE tenant_id=$1 AND is_deleted=FALSE AND created_at>=$2 ORDER BY created_at"
	return fetchDevices(s.db, query, tenantID, since)
}

func (s *deviceStore) FetchAll() ([]model.Device, error) {
	query := "SELECT * FROM devices WHERE is_deleted=FALSE ORDER BY created_at"
	return fetchDevices(s.db, query)
}

func (s *deviceStore) FindByID(tenantID, id string) (*model.Device, error) {
	d := sqlDataDevice{}
	query := "SELECT * FROM devices WHERE tenant_id=$1 AND id=$2 AND is_deleted=FALSE"
	if err := s.db.Get(&d, query, tenantID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find device")
	}

	return d.Model()
}

func (s *deviceStore) FindByName(tenantID, name string) (*model.Device, error) {
	d := sqlDataDevice{}
	query := "SELECT * FROM devices WHERE tenant_id=$1 AND name=$2 AND is_deleted=FALSE"
	if err := s.db.Get(&d, query, tenantID, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find device")
	}

	return d.Model()
}

func (s *deviceStore) Create(m *model.Device) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	d := sqlDataDevice{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert device model to SQL data")
	}

	query := fmt.Sprintf(
		"INSERT INTO devices (%s) VALUES (%s)",
		strings.Join(sqlParamsDevice, ", "),
		":"+strings.Join(sqlParamsDevice, ", :"),
	)
	if _, err := s.db.NamedExec(query, d); err != nil {
		return errors.Wrap(err, "failed to create device")
	}

	m.CreatedAt = d.CreatedAt
	m.UpdatedAt = d.UpdatedAt

	return nil
}

func (s *deviceStore) Update(m *model.Device) error {
	m.UpdatedAt = time.Now().Round(time.Second).UTC()

	d := sqlDataDevice{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert device model to SQL data")
	}

	assignments := make([]string, 0, len(sqlParamsDevice))
	for _, s := range sqlParamsDevice {
		if s == "id" || s == "created_at" {
			continue
		}
		assignments = append(assignments, s+"=:"+s)
	}

	query := fmt.Sprintf("UPDATE devices SET %s WHERE id=:id", strings.Join(assignments, ", "))
	res, err := s.db.NamedExec(query, d)
	if err != nil {
		return errors.Wrap(err, "failed to update device")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func fetchDevices(db *sqlx.DB, query string, args ...interface{}) ([]model.Device, error) {
	rows := make([]sqlDataDevice, 0)
	if err := db.Select(&rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to fetch devices")
	}

	models := make([]model.Device, 0, len(rows))
	for _, d := range rows {
		m, err := d.Model()
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to device model")
		}
		models = append(models, *m)
	}

	return models, nil
}
