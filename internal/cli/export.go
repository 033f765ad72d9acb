package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/parisxmas/OxiForms/internal/db"
	"github.com/parisxmas/OxiForms/internal/export"
	"github.com/parisxmas/OxiForms/internal/repository"
	"github.com/parisxmas/OxiForms/internal/service"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	var format, outPath string
	cmd := &cobra.Command{
		Use:   "export FORM_ID",
		Short: "Write a form's submissions as CSV",
		Long: `Export every submission of a form, newest first, straight from the
database. --format selects the column layout: "submissions" (default) or
"responses".

Examples:
  oxiforms export 6f1c... > submissions.csv
  oxiforms export 6f1c... --format responses --out responses.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, ok := export.Preset(format)
			if !ok {
				return fmt.Errorf("unknown export format %q", format)
			}
			cfg := g.config()

			conn, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer conn.Close()

			subs := service.NewSubmissionService(
				repository.NewFormRepo(conn),
				repository.NewSubmissionRepo(conn),
				nil, nil, nil, newLogger(cfg),
			)

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			if err := subs.ExportForm(context.Background(), args[0], w, opts); err != nil {
				return fmt.Errorf("export %s: %w", args[0], err)
			}
			if outPath != "" {
				printer{w: cmd.ErrOrStderr()}.success("wrote %s", outPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "submissions", "Column layout: submissions or responses")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	return cmd
}
