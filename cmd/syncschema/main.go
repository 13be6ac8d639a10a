package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tordrt/syncschema"
	"github.com/tordrt/syncschema/internal/config"
	"github.com/tordrt/syncschema/internal/formatter"
)

var (
	dbURL         string
	mysqlURL      string
	sqlitePath    string
	schemaName    string
	excludeTables string
	relationsDir  string
	configPath    string
	outputFile    string
	outputDir     string
	format        string
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "syncschema",
	Short: "Generate a sync schema graph from a relational database",
	Long: `SyncSchema reads table metadata from PostgreSQL, MySQL, or SQLite, resolves the declared
relations against foreign keys and named relation pairs, and writes the exported tables,
columns, primary keys and relationships as a sync schema.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dbURL, "db-url", "", "Database URL (postgres://, mysql:// or sqlite://); defaults to $DATABASE_URL")
	pf.StringVar(&mysqlURL, "mysql-url", "", "MySQL connection string")
	pf.StringVar(&sqlitePath, "sqlite", "", "SQLite database file path")
	pf.StringVarP(&schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL)")
	pf.StringVarP(&excludeTables, "exclude", "x", "", "Tables to ignore entirely (comma-separated)")
	pf.StringVarP(&relationsDir, "relations", "r", "", "Directory of <table>.star relation declarations")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log relation inference decisions to stderr")

	f := rootCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "syncschema.yaml", "Export config file")
	f.Int(config.FlagVersion, 1, "Schema version (overrides the config file)")
	f.String(config.FlagCasing, "none", "Column casing: none or snake_case (overrides the config file)")
	f.StringVarP(&format, "format", "f", formatter.FormatJSON, "Output format: json, yaml, text or markdown")
	f.StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	f.StringVarP(&outputDir, "output-dir", "d", "", "Output directory for multi-file output")

	rootCmd.AddCommand(relationsCmd)
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if outputDir != "" && outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}

	url, err := databaseURL()
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	opts := buildOptions(cmd.ErrOrStderr())

	s, err := syncschema.ExtractSchema(ctx, url, opts)
	if err != nil {
		return err
	}

	g, err := syncschema.Build(s, cfg, opts)
	if err != nil {
		return err
	}

	if outputDir != "" {
		return syncschema.FormatGraph(g, &syncschema.OutputOptions{OutputDir: outputDir, Format: format})
	}

	var writer io.Writer = cmd.OutOrStdout()
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to close output file: %v\n", err)
			}
		}()
		writer = f
	}

	if err := syncschema.FormatGraph(g, &syncschema.OutputOptions{Writer: writer, Format: format}); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	return nil
}

// databaseURL picks the database from the flags, falling back to DATABASE_URL (also read from .env)
func databaseURL() (string, error) {
	dbCount := 0
	for _, v := range []string{dbURL, mysqlURL, sqlitePath} {
		if v != "" {
			dbCount++
		}
	}
	if dbCount > 1 {
		return "", fmt.Errorf("only one of --db-url, --mysql-url, or --sqlite can be specified")
	}

	switch {
	case sqlitePath != "":
		return "sqlite://" + sqlitePath, nil
	case mysqlURL != "":
		return "mysql://" + strings.TrimPrefix(mysqlURL, "mysql://"), nil
	case dbURL != "":
		return dbURL, nil
	}

	_ = godotenv.Load()
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}

	return "", fmt.Errorf("one of --db-url, --mysql-url, or --sqlite must be specified (or set DATABASE_URL)")
}

func buildOptions(logOutput io.Writer) *syncschema.Options {
	opts := &syncschema.Options{
		SchemaName:   schemaName,
		RelationsDir: relationsDir,
		Logger:       newLogger(logOutput, verbose),
	}
	if excludeTables != "" {
		for _, t := range strings.Split(excludeTables, ",") {
			if t = strings.TrimSpace(t); t != "" {
				opts.ExcludeTables = append(opts.ExcludeTables, t)
			}
		}
	}
	return opts
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
