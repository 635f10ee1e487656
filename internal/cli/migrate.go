package cli

import (
	"context"
	"victorina_backend/internal/app"
	"victorina_backend/internal/config"
	"victorina_backend/pkg/logger"

	"github.com/spf13/cobra"
)

func newMigrateCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configDir)
			if err != nil {
				return err
			}
			cfg.ForceMigrate = true
			cfg.MigrateOnly = true

			application, err := app.NewApp(cfg)
			if err != nil {
				return err
			}
			logger.Log.Info("Database migration finished")
			application.Close(context.Background())
			return nil
		},
	}
}
