package resource

import (
	"fmt"
	"time"

	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/orchestrator"
)

type StartPairingRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedBy   string `json:"createdBy"`
}

type PairingResource struct {
	SessionID string    `json:"sessionId"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type PairingStatusResource struct {
	Connected bool   `json:"connected"`
	DeviceID  string `json:"deviceId,omitempty"`
}

func NewPairing(r *orchestrator.PairingResult) *PairingResource {
	return &PairingResource{
		SessionID: r.SessionID,
		Code:      r.Code,
		ExpiresAt: r.ExpiresAt,
	}
}

func NewPairingStatus(s *orchestrator.PairingStatus) *PairingStatusResource {
	return &PairingStatusResource{
		Connected: s.Connected,
		DeviceID:  s.DeviceID,
	}
}

func ValidateStartPairing(r *StartPairingRequest) error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
