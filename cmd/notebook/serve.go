package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/notebook/internal/notebook/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the notebook HTTP API. Pending migrations are applied and the
administrator account is created on first start. Usage:

	notebook serve
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.LoadConfig()

			application, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run()
		},
	}
}
