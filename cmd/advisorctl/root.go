package main

import (
	"github.com/spf13/cobra"

	"github.com/Sheris-Milly/ARWIGOS-sub000/internal/utils"
)

var outputJSON bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "advisorctl",
		Short:         "Maintenance tools for the finance advisor",
		Long:          `advisorctl migrates the databases, inspects agent routing, and checks market data providers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&outputJSON, "json", false, "print results as JSON")

	root.AddCommand(
		newMigrateCmd(),
		newRouteCmd(),
		newAgentsCmd(),
		newQuoteCmd(),
		newNewsCmd(),
	)
	return root
}

func loadConfig() (*utils.Config, error) {
	return utils.LoadConfig()
}
