package main

import (
	"context"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/tordrt/syncschema"
	"github.com/tordrt/syncschema/internal/relations"
	"github.com/tordrt/syncschema/internal/resolver"
)

var relationsCmd = &cobra.Command{
	Use:   "relations",
	Short: "List declared relations and how their columns were resolved",
	Long: `Resolves every declared relation against the database without applying the export config,
and prints the source and destination columns together with the rule that produced them.`,
	RunE: runRelations,
}

func runRelations(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	url, err := databaseURL()
	if err != nil {
		return err
	}

	opts := buildOptions(cmd.ErrOrStderr())

	s, err := syncschema.ExtractSchema(ctx, url, opts)
	if err != nil {
		return err
	}

	var decls []relations.Declaration
	if opts.RelationsDir != "" {
		decls, err = syncschema.LoadDeclarations(opts.RelationsDir)
		if err != nil {
			return err
		}
	}

	resolved, err := resolver.Resolve(s, decls, opts.Logger)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Field", "Kind", "Source", "Destination", "Rule"})
	seen := make(map[string]bool)
	for _, d := range decls {
		if seen[d.Table] {
			continue
		}
		seen[d.Table] = true
		for _, rel := range resolved[d.Table] {
			t.AppendRow(table.Row{
				rel.SourceTable,
				rel.Name,
				rel.Kind.String(),
				strings.Join(rel.SourceFields, ", "),
				rel.DestTable + "(" + strings.Join(rel.DestFields, ", ") + ")",
				rel.Rule.String(),
			})
		}
	}
	t.Render()

	return nil
}
