package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/notebook/internal/notebook/app"
	"github.com/aussiebroadwan/notebook/internal/notebook/service"
	"github.com/aussiebroadwan/notebook/pkg/cryptox"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative tasks",
	}

	var email, password, name string
	bootstrap := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the administrator account unless its email is taken",
		Long: `Creates an administrator with the configured email unless an account
with that email already exists. Other users, including other administrators,
do not prevent it. Flags override NOTEBOOK_ADMIN_EMAIL, NOTEBOOK_ADMIN_PASSWORD
and NOTEBOOK_ADMIN_NAME; without them the defaults (admin@site.com) apply.

"serve" ensures the administrator from NOTEBOOK_ADMIN_* on every start, so
bootstrapping a different email here leaves two administrators once the
server runs. Set the same NOTEBOOK_ADMIN_* for both to avoid that.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.LoadConfig()
			logger := app.NewLogger(cfg)

			if email != "" {
				cfg.Admin.Email = email
			}
			if password != "" {
				cfg.Admin.Password = password
			}
			if name != "" {
				cfg.Admin.Name = name
			}

			if err := cryptox.LoadPepper(cfg.PepperFile); err != nil {
				return err
			}

			db, err := app.OpenStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := db.ApplyMigrations(); err != nil {
				return fmt.Errorf("migrate up failed: %w", err)
			}

			admin := cfg.Admin.WithDefaults()
			created, err := (&service.BootstrapService{Store: db, Admin: admin}).EnsureAdmin(cmd.Context())
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "administrator %s created\n", admin.Email)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "account %s already exists, nothing to do\n", admin.Email)
			}
			return nil
		},
	}
	bootstrap.Flags().StringVar(&email, "email", "", "administrator email")
	bootstrap.Flags().StringVar(&password, "password", "", "administrator password")
	bootstrap.Flags().StringVar(&name, "name", "", "administrator display name")

	cmd.AddCommand(bootstrap)
	return cmd
}
