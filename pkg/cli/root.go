// Package cli implements the dbfirst command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/TechXTT/dbfirst/pkg/config"
)

// Version is the dbfirst release, overridden at build time.
var Version = "v0.1.0"

// app carries what PersistentPreRunE prepares for the subcommands.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
}

// NewVersionCmd builds the `version` command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(Version)
		},
	}
}

// NewRootCmd builds the top-level `dbfirst` command.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "dbfirst",
		Short: "dbfirst regenerates LoopBack model files from a database schema",
		Long: `dbfirst discovers the tables and views of a database and rewrites
model-config.json plus one <Model>.json and <Model>.js file per model.

  automigrate  remove every model bound to the data source, then rediscover
  autoupdate   rediscover and overwrite, keeping models that disappeared`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			return a.load(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, config.ConfigFlag, "", "config file (default: ./"+config.DefaultFile+")")
	flags.String("driver", config.DefaultDriver, "database/sql driver: postgres, pgx, mysql or sqlite3")
	flags.String("dsn", "", `connection string, or env("VAR") to read it from VAR`)
	flags.String("database", "", "schema owner to discover (default: the connected database)")
	flags.String("data-source", config.DefaultDataSource, "data source name models are bound to")
	flags.String("model-config", config.DefaultModelConfig, "model-config.json to rewrite")
	flags.String("base-model-config", "", "model-config.json whose missing keys are merged in")
	flags.Bool("views", false, "also generate models for views")
	flags.Bool("public", false, "mark generated models public")
	flags.StringSlice("public-models", nil, "model name patterns to mark public (overrides --public)")
	flags.Bool("preserve-logic", false, "keep existing <Model>.js files")
	flags.String("logic-template", "", "text/template used for new <Model>.js files")
	flags.Bool("associations", false, "also discover tables referenced by foreign keys")
	flags.Bool("strict", false, "abort on the first model whose schema cannot be discovered")
	flags.BoolP("verbose", "v", false, "debug logging")

	root.AddCommand(newAutomigrateCmd(a))
	root.AddCommand(newAutoupdateCmd(a))
	root.AddCommand(newDiscoverCmd(a))
	root.AddCommand(NewVersionCmd())
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile, cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	if cfg.File != "" {
		a.logger.Debug("using config file", slog.String("file", cfg.File))
	}
	return nil
}

// Execute runs the root command and reports whether it failed.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
