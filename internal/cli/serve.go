package cli

import (
	"path/filepath"
	"victorina_backend/internal/app"
	"victorina_backend/internal/config"

	"github.com/spf13/cobra"
)

func newServeCmd(configDir *string) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configDir)
			if err != nil {
				return err
			}
			cfg.ForceMigrate = migrate

			application, err := app.NewApp(cfg)
			if err != nil {
				return err
			}
			application.ConfigPath = filepath.Join(*configDir, "config.yaml")
			return application.Run()
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "run schema migrations on startup even in release mode")
	return cmd
}
