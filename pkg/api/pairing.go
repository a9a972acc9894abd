package api

import (
	"net/http"

	"github.com/labstack/echo"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/api/resource"
)

func (h *Handler) handleStartPairing(c echo.Context) error {
	r := &resource.StartPairingRequest{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	if err := resource.ValidateStartPairing(r); err != nil {
		return c.JSON(http.StatusBadRequest, errorResource{Error: err.Error()})
	}

	result, err := h.ctrl.StartPairing(c.Request().Context(), c.Param("tenantId"), r.CreatedBy, r.Name, r.Description)
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusCreated, resource.NewPairing(result))
}

func (h *Handler) handleCheckPairingStatus(c echo.Context) error {
	status, err := h.ctrl.CheckPairingStatus(c.Param("tenantId"), c.Param("sessionId"))
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, resource.NewPairingStatus(status))
}

func (h *Handler) handleClearSessions(c echo.Context) error {
	reset, err := h.ctrl.ClearAllSessions()
	if err != nil {
		return jsonError(c, err)
	}

	type clearResult struct {
		Disconnected int `json:"disconnected"`
	}
	return c.JSON(http.StatusOK, clearResult{Disconnected: reset})
}
