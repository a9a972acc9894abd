package api

import (
	"net/http"

	"github.com/labstack/echo"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/api/resource"
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/orchestrator"
)

func (h *Handler) handleFetchDevices(c echo.Context) error {
	devices, err := h.ctrl.ListDevices(c.Param("tenantId"))
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, resource.NewDeviceList(devices))
}

func (h *Handler) handleGetDeviceByID(c echo.Context) error {
	dev, err := h.ctrl.GetDevice(c.Param("tenantId"), c.Param("id"))
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, resource.NewDevice(dev))
}

func (h *Handler) handleCreateDevice(c echo.Context) error {
	r := &resource.CreateDeviceRequest{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	if err := resource.ValidateCreateDevice(r); err != nil {
		return c.JSON(http.StatusBadRequest, errorResource{Error: err.Error()})
	}

	dev, err := h.ctrl.CreateDevice(c.Param("tenantId"), r.CreatedBy, r.Name, r.Description)
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusCreated, resource.NewDevice(dev))
}

func (h *Handler) handleUpdateDevice(c echo.Context) error {
	r := &resource.UpdateDeviceRequest{}
	if err := c.Bind(r); err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	dev, err := h.ctrl.UpdateDevice(c.Param("tenantId"), c.Param("id"), orchestrator.DeviceUpdate{
		Name:        r.Name,
		Description: r.Description,
		IsActive:    r.IsActive,
	})
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, resource.NewDevice(dev))
}

func (h *Handler) handleDeleteDevice(c echo.Context) error {
	if err := h.ctrl.DeleteDevice(c.Param("tenantId"), c.Param("id")); err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusNoContent, nil)
}

func (h *Handler) handleGetDeviceStatus(c echo.Context) error {
	dev, err := h.ctrl.GetDeviceStatus(c.Param("tenantId"), c.Param("id"))
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, resource.NewDevice(dev))
}

func (h *Handler) handleReconnectDevice(c echo.Context) error {
	dev, err := h.ctrl.Reconnect(c.Param("tenantId"), c.Param("id"))
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, resource.NewDevice(dev))
}

func (h *Handler) handleForceDisconnect(c echo.Context) error {
	dev, err := h.ctrl.ForceDisconnect(c.Param("tenantId"), c.Param("id"))
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(http.StatusOK, resource.NewDevice(dev))
}

func (h *Handler) handleCleanupDuplicates(c echo.Context) error {
	removed, err := h.ctrl.CleanupDuplicateDevices(c.Param("tenantId"))
	if err != nil {
		return jsonError(c, err)
	}

	type cleanupResult struct {
		Removed int `json:"removed"`
	}
	return c.JSON(http.StatusOK, cleanupResult{Removed: removed})
}
