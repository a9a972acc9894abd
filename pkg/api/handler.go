package api

import (
	"net/http"

	"github.com/labstack/echo"
	"github.com/nats-io/nats.go"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/orchestrator"
	log "github.com/sirupsen/logrus"
)

// Handler contains all properties to serve the API
type Handler struct {
	ctrl *orchestrator.Controller
	nc   *nats.Conn
}

// NewHandler creates a new API handler
func NewHandler(ctrl *orchestrator.Controller, nc *nats.Conn) *Handler {
	return &Handler{
		ctrl: ctrl,
		nc:   nc,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register API routes")
	api := e.Group("/api/v1")

	api.GET("/tenants/:tenantId/devices", h.handleFetchDevices)
	api.POST("/tenants/:tenantId/devices", h.handleCreateDevice)
	api.POST("/tenants/:tenantId/devices/cleanup", h.handleCleanupDuplicates)
	api.GET("/tenants/:tenantId/devices/:id", h.handleGetDeviceByID)
	api.PUT("/tenants/:tenantId/devices/:id", h.handleUpdateDevice)
	api.DELETE("/tenants/:tenantId/devices/:id", h.handleDeleteDevice)
	api.GET("/tenants/:tenantId/devices/:id/status", h.handleGetDeviceStatus)
	api.POST("/tenants/:tenantId/devices/:id/reconnect", h.handleReconnectDevice)
	api.POST("/tenants/:tenantId/devices/:id/disconnect", h.handleForceDisconnect)

	api.POST("/tenants/:tenantId/pairing", h.handleStartPairing)
	api.GET("/tenants/:tenantId/pairing/:sessionId", h.handleCheckPairingStatus)

	api.POST("/sessions/clear", h.handleClearSessions)

	api.Any("/realtime-events", h.realtimeEventsHandler())
}

type errorResource struct {
	Error string `json:"error"`
}

// jsonError maps the orchestrator error taxonomy to HTTP status codes.
func jsonError(c echo.Context, err error) error {
	code := http.StatusInternalServerError
	switch {
	case orchestrator.IsNotFound(err):
		code = http.StatusNotFound
	case orchestrator.IsConflict(err):
		code = http.StatusConflict
	case orchestrator.IsUnavailable(err):
		code = http.StatusServiceUnavailable
	case orchestrator.IsTimeout(err):
		code = http.StatusGatewayTimeout
	}

	return c.JSON(code, errorResource{Error: err.Error()})
}
