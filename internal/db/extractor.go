package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/tordrt/syncschema/internal/schema"
)

// Database kinds understood by Connect
const (
	KindPostgres = "postgres"
	KindMySQL    = "mysql"
	KindSQLite   = "sqlite"
)

// SchemaExtractor reads table metadata from a live database
type SchemaExtractor interface {
	// ExtractSchema extracts the given tables, or every table when tables is empty
	ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error)
}

// Source is an open database connection paired with the extractor for its dialect
type Source struct {
	Kind      string
	Extractor SchemaExtractor
	closeFn   func() error
}

// Close closes the underlying connection
func (s *Source) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// Connect opens a metadata source for a postgres://, mysql:// or sqlite:// URL.
// schemaName is only used by PostgreSQL ("public" when empty) and MySQL (taken from the DSN when empty).
func Connect(ctx context.Context, databaseURL, schemaName string) (*Source, error) {
	kind, connStr, err := ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindPostgres:
		client, err := NewPostgresClient(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		if schemaName == "" {
			schemaName = "public"
		}
		return &Source{
			Kind:      kind,
			Extractor: NewPostgresExtractor(client, schemaName),
			closeFn:   func() error { return client.Close(context.Background()) },
		}, nil
	case KindMySQL:
		if schemaName == "" {
			schemaName, err = ParseDatabaseName(connStr)
			if err != nil {
				return nil, fmt.Errorf("failed to determine database name: %w", err)
			}
		}
		client, err := NewMySQLClient(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
		}
		return &Source{
			Kind:      kind,
			Extractor: NewMySQLExtractor(client, schemaName),
			closeFn:   client.Close,
		}, nil
	default:
		client, err := NewSQLiteClient(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}
		return &Source{
			Kind:      kind,
			Extractor: NewSQLiteExtractor(client),
			closeFn:   client.Close,
		}, nil
	}
}

// ParseDatabaseURL detects the database kind and returns the driver connection string
func ParseDatabaseURL(url string) (kind, connectionStr string, err error) {
	if url == "" {
		return "", "", fmt.Errorf("database URL is required")
	}

	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return KindPostgres, url, nil
	}

	if strings.HasPrefix(url, "mysql://") {
		// Strip mysql:// prefix for the Go MySQL driver
		return KindMySQL, strings.TrimPrefix(url, "mysql://"), nil
	}

	if strings.HasPrefix(url, "sqlite://") {
		return KindSQLite, strings.TrimPrefix(url, "sqlite://"), nil
	}

	return "", "", fmt.Errorf("invalid database URL scheme (must start with postgres://, mysql://, or sqlite://)")
}

// foreignKeyRow is one column pair of a foreign key constraint as returned by the catalog queries
type foreignKeyRow struct {
	constraint      string
	column          string
	referencedTable string
	referencedCol   string
}

// groupForeignKeys folds per-column rows into multi-column constraints.
// Rows must be ordered by position within their constraint; constraint order is first-seen.
func groupForeignKeys(rows []foreignKeyRow) []schema.ForeignKey {
	var fks []schema.ForeignKey
	index := make(map[string]int)

	for _, row := range rows {
		i, ok := index[row.constraint]
		if !ok {
			i = len(fks)
			index[row.constraint] = i
			fks = append(fks, schema.ForeignKey{
				Name:            row.constraint,
				ReferencedTable: row.referencedTable,
			})
		}
		fks[i].Columns = append(fks[i].Columns, row.column)
		fks[i].ReferencedColumns = append(fks[i].ReferencedColumns, row.referencedCol)
	}

	return fks
}
