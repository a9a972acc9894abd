package resource

import (
	"fmt"
	"time"

	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/model"
)

type DeviceResource struct {
	ID               string     `json:"id"`
	TenantID         string     `json:"tenantId"`
	CreatedBy        string     `json:"createdBy"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Status           string     `json:"status"`
	IsActive         bool       `json:"isActive"`
	MessagesSent     int64      `json:"messagesSent"`
	MessagesReceived int64      `json:"messagesReceived"`
	LastSeen         *time.Time `json:"lastSeen,omitempty"`
	LastMessageAt    *time.Time `json:"lastMessageAt,omitempty"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

type DeviceListResource struct {
	Members []*DeviceResource `json:"members"`
}

// CreateDeviceRequest is the administrative create/update payload.
type CreateDeviceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedBy   string `json:"createdBy"`
}

type UpdateDeviceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

func NewDevice(m *model.Device) (out *DeviceResource) {
	out = &DeviceResource{
		ID:               m.ID,
		TenantID:         m.TenantID,
		CreatedBy:        m.CreatedBy,
		Name:             m.Name,
		Description:      m.Description,
		Status:           m.Status.String(),
		IsActive:         m.IsActive,
		MessagesSent:     m.MessagesSent,
		MessagesReceived: m.MessagesReceived,
		LastSeen:         m.LastSeen,
		LastMessageAt:    m.LastMessageAt,
	}

	if !m.CreatedAt.IsZero() {
		out.CreatedAt = &time.Time{}
		*out.CreatedAt = m.CreatedAt.Round(time.Second)
	}
	if !m.UpdatedAt.IsZero() {
		out.UpdatedAt = &time.Time{}
		*out.UpdatedAt = m.UpdatedAt.Round(time.Second)
	}

	return // out
}

func NewDeviceList(m []model.Device) (out *DeviceListResource) {
	out = &DeviceListResource{
		Members: make([]*DeviceResource, 0, len(m)),
	}

	for i := range m {
		out.Members = append(out.Members, NewDevice(&m[i]))
	}

	return // out
}

func ValidateCreateDevice(r *CreateDeviceRequest) error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
