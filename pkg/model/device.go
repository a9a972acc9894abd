package model

import "time"

// Status describes the connection state of a device as persisted.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusError
)

func (status Status) String() string {
	names := []string{
		"disconnected",
		"connecting",
		"connected",
		"error"}

	if status < StatusDisconnected || status > StatusError {
		return "disconnected"
	}

	return names[status]
}

// ParseStatus converts a persisted status string back to a Status value.
// Unknown strings map to StatusError.
func ParseStatus(s string) Status {
	switch s {
	case "disconnected":
		return StatusDisconnected
	case "connecting":
		return StatusConnecting
	case "connected":
		return StatusConnected
	case "error":
		return StatusError
	}
	return StatusError
}

// Device is a model of the persistency layer. It represents one
// tenant-owned connection endpoint to the external messaging network.
// Devices are never hard-deleted, only flagged via IsDeleted.
type Device struct {
	ID               string
	TenantID         string
	CreatedBy        string
	Name             string
	Description      string
	Status           Status
	IsActive         bool
	IsDeleted        bool
	MessagesSent     int64
	MessagesReceived int64
	LastSeen         *time.Time
	LastMessageAt    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
