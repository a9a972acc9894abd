package cli

import "github.com/sachinsudani/whatsapp-multi-tenant-sub001/config"

type Handler struct {
	Migration *MigrateHandler
}

func NewHandler(c *config.Config) *Handler {
	return &Handler{
		Migration: newMigrateHandler(c),
	}
}
