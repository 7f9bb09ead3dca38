package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the sgfcp command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sgfcp",
		Short:         "SGFCP admin dashboard",
		Long:          `Admin analytics dashboard for the SGFCP trucking backend: trips, expenses, advances, fleet and clients.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			LoadEnvFile()
		},
	}
	root.AddCommand(serveCommand())
	root.AddCommand(reportCommand())
	root.AddCommand(notifyCommand())
	root.AddCommand(workerCommand())
	return root
}
