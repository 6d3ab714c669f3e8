package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/TechXTT/dbfirst/pkg/generator"
)

func newAutomigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "automigrate",
		Short: "Remove the data source's models, then regenerate them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPass(cmd, "automigrate", (*generator.Generator).Automigrate)
		},
	}
}

func newAutoupdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "autoupdate",
		Short: "Regenerate the data source's models without removing any",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPass(cmd, "autoupdate", (*generator.Generator).Autoupdate)
		},
	}
}

type passFunc func(g *generator.Generator, ctx context.Context, includeViews bool) (*generator.Report, error)

func (a *app) runPass(cmd *cobra.Command, op string, run passFunc) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()
	src, db, err := openSource(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	gen, err := newGenerator(a.cfg, src, a.logger)
	if err != nil {
		return err
	}
	report, err := run(gen, ctx, a.cfg.Views)
	if report != nil {
		printReport(cmd.OutOrStdout(), op, report)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func printReport(w io.Writer, op string, r *generator.Report) {
	defined := make(map[string]bool, len(r.Defined))
	for _, name := range r.Defined {
		defined[name] = true
	}
	for _, name := range r.Deleted {
		fmt.Fprintf(w, "deleted  %s\n", name)
	}
	for _, name := range r.Defined {
		fmt.Fprintf(w, "wrote    %s\n", name)
	}
	for _, name := range r.Configured {
		if !defined[name] {
			fmt.Fprintf(w, "bound    %s\n", name)
		}
	}
	for _, name := range r.Skipped {
		fmt.Fprintf(w, "skipped  %s\n", name)
	}
	for _, name := range r.BaseKeys {
		fmt.Fprintf(w, "merged   %s\n", name)
	}
	for _, f := range r.Failed {
		fmt.Fprintf(w, "failed   %s: %v\n", f.Model, f.Err)
	}
	fmt.Fprintf(w, "%s: %d written, %d deleted, %d failed\n",
		op, len(r.Defined), len(r.Deleted), len(r.Failed))
}
