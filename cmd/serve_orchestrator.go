package cmd

import (
	"github.com/sachinsudani/whatsapp-multi-tenant-sub001/pkg/cmd/server"
	"github.com/spf13/cobra"
)

// serveOrchestratorCmd represents the serve orchestrator command
var serveOrchestratorCmd = &cobra.Command{
	Use:   "orchestrator",
	Short: "Serve the device connection orchestrator instance",
	Run:   server.RunServeOrchestrator(c),
}

func init() {
	serveCmd.AddCommand(serveOrchestratorCmd)
}
