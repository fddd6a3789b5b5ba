package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/csvlens/internal/logging"
	"github.com/KaramelBytes/csvlens/internal/store"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance for the postgres store",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is not set (config set database_url <url> or CSVLENS_DATABASE_URL)")
		}
		if err := store.RunMigrations(c.DatabaseURL, logger); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Database %s is up to date\n", logging.SanitizeConnectionString(c.DatabaseURL))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbMigrateCmd)
}
