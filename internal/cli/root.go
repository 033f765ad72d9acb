// Package cli implements the oxiforms command line: the HTTP server, schema
// migrations, offline form checks and CSV exports.
package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/parisxmas/OxiForms/internal/config"
	"github.com/parisxmas/OxiForms/internal/gelf"
)

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	envFile string
	dbPath  string
	verbose bool
}

// NewRootCmd builds the command tree. Every call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "oxiforms",
		Short: "OxiForms - form builder and submission engine",
		Long: `OxiForms serves a form builder API: owners design forms with conditional
fields, respondents submit answers, and every accepted submission fans out
to signed webhooks and email.

Commands:
  serve    - Run the HTTP server
  migrate  - Apply database migrations
  check    - Validate a form definition and optionally evaluate answers
  export   - Write a form's submissions as CSV`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.envFile, "env-file", "", "Env file to load instead of .env")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "SQLite database path (overrides FORMS_DB_PATH)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		newServeCmd(g),
		newMigrateCmd(g),
		newCheckCmd(),
		newExportCmd(g),
	)
	return root
}

func (g *globalFlags) config() *config.Config {
	var cfg *config.Config
	if g.envFile != "" {
		cfg = config.Load(g.envFile)
	} else {
		cfg = config.Load()
	}
	if g.dbPath != "" {
		cfg.DBPath = g.dbPath
	}
	if g.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg
}

// newLogger builds the process logger. A GELF hook is attached when an
// address is configured; failing to reach it only costs the hook.
func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.GelfAddr != "" {
		hook, err := gelf.New(cfg.GelfAddr, "oxiforms")
		if err != nil {
			log.Warnf("GELF init failed: %v", err)
		} else {
			log.AddHook(hook)
			log.Infof("GELF logging: enabled (%s)", cfg.GelfAddr)
		}
	}
	return log
}
