package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/TechXTT/dbfirst/pkg/discovery"
)

func newDiscoverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "discover [[schema.]table...]",
		Short: "List the models the data source reports, or print table schemas",
		Long: `Without arguments, discover lists the tables (and views with --views) the
data source reports. With table names, it prints their discovered
definitions as JSON. Nothing is written to disk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DSN == "" {
				return fmt.Errorf("dsn is required")
			}
			ctx := cmd.Context()
			src, db, err := openSource(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				models, err := src.DiscoverModelDefinitions(ctx, discovery.ModelListOptions{
					Owner: src.Owner(),
					Views: a.cfg.Views,
				})
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "TYPE\tOWNER\tTABLE\tMODEL")
				for _, m := range models {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Type, m.Owner, m.Name, discovery.ModelName(m.Name))
				}
				return tw.Flush()
			}

			schemas := map[string]*discovery.ModelDefinition{}
			for _, arg := range args {
				schema, table := "", arg
				if i := strings.LastIndex(arg, "."); i > 0 {
					schema, table = arg[:i], arg[i+1:]
				}
				defs, err := src.DiscoverSchemas(ctx, table, discovery.SchemaOptions{
					Owner:        src.Owner(),
					Schema:       schema,
					Relations:    true,
					Associations: a.cfg.Associations,
				})
				if err != nil {
					return err
				}
				for key, def := range defs {
					schemas[key] = def
				}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(schemas)
		},
	}
}
