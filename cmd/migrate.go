package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/linguapet/assets"
	"github.com/robalobadob/linguapet/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := db.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer d.Close()

		if err := db.Migrate(d, assets.Migrations()); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info().Str("db", cfg.DatabasePath).Msg("migrations up to date")
		return nil
	},
}
