package cmd

import (
	"fmt"
	"log/slog"

	"github.com/charlesshaw3/SimpleServers/internal/config"
	"github.com/charlesshaw3/SimpleServers/internal/database"
	"github.com/charlesshaw3/SimpleServers/pkg/log"
	"github.com/spf13/cobra"
)

var migrationActions = map[string]database.MigrationAction{ //nolint:gochecknoglobals
	"up":       database.MigrateUp,
	"down":     database.MigrateDn,
	"up_one":   database.MigrateUpOne,
	"down_one": database.MigrateDownOne,
}

// migrateCmd applies or reverts the embedded schema.
func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|up_one|down_one]",
		Short:     "Create or update the database schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "up_one", "down_one"},
		RunE: func(_ *cobra.Command, args []string) error {
			name := "up"
			if len(args) == 1 {
				name = args[0]
			}

			conf, errConfig := config.Read(cfgFile)
			if errConfig != nil {
				return errConfig
			}

			if !conf.Database.Enabled() {
				return ErrDatabaseDisabled
			}

			db := database.New(conf.Database.DSN, false, conf.Database.LogQueries)
			if errMigrate := db.Migrate(migrationActions[name]); errMigrate != nil {
				slog.Error("Could not migrate schema", log.ErrAttr(errMigrate))

				return errMigrate
			}

			fmt.Printf("Migration %s complete\n", name) //nolint:forbidigo

			return nil
		},
	}
}
