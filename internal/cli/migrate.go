package cli

import (
	"github.com/spf13/cobra"

	"github.com/parisxmas/OxiForms/internal/db"
)

func newMigrateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Open the database, apply every pending migration and report the schema
version. Running it against an up-to-date database changes nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.config()
			out := printer{w: cmd.OutOrStdout()}

			conn, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer conn.Close()

			version, dirty, err := db.Version(conn)
			if err != nil {
				return err
			}
			if dirty {
				out.warning("schema version %d is dirty: a migration failed part way", version)
				return nil
			}
			out.success("%s is at schema version %d", cfg.DBPath, version)
			return nil
		},
	}
}
