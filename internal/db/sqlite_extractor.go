package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tordrt/syncschema/internal/schema"
)

// SQLiteExtractor handles schema extraction from SQLite
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// ExtractSchema extracts the complete schema for specified tables
// If tables is empty, extracts all tables in the database
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	var extractedTables []schema.Table

	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	for _, tableName := range tableNames {
		table, err := e.extractTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		extractedTables = append(extractedTables, *table)
	}

	return &schema.Schema{Tables: extractedTables}, nil
}

// getTableNames returns the list of tables to extract
func (e *SQLiteExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}

	return tableList, rows.Err()
}

// extractTable extracts all information for a single table
func (e *SQLiteExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	// Extract columns and primary key (both come from table_info)
	columns, pk, err := e.extractColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", tableName)
	}
	table.Columns = columns
	table.PrimaryKey = pk

	// Extract foreign keys
	fks, err := e.extractForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract foreign keys: %w", err)
	}
	table.ForeignKeys = fks

	return table, nil
}

// extractColumns extracts column information and the ordered primary key for a table
func (e *SQLiteExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, []string, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName))

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	type pkColumn struct {
		order int
		name  string
	}

	var columns []schema.Column
	var pkColumns []pkColumn

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, err
		}

		columns = append(columns, schema.Column{
			Name:     name,
			Type:     strings.ToLower(colType),
			Nullable: notNull == 0 && pk == 0,
		})

		// pk is the 1-based position within the primary key
		if pk > 0 {
			pkColumns = append(pkColumns, pkColumn{order: pk, name: name})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(pkColumns, func(i, j int) bool {
		return pkColumns[i].order < pkColumns[j].order
	})
	var pk []string
	for _, c := range pkColumns {
		pk = append(pk, c.name)
	}

	return columns, pk, nil
}

// extractForeignKeys extracts foreign key constraints, grouping rows by constraint id
func (e *SQLiteExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]schema.ForeignKey, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName))

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	type pragmaRow struct {
		id  int
		row foreignKeyRow
	}

	var pragmaRows []pragmaRow
	// Constraints declared without a column list reference the target's primary key
	implicit := false

	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, onUpdate, onDelete, match string
		var toCol sql.NullString

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			rows.Close()
			return nil, err
		}

		if !toCol.Valid {
			implicit = true
		}

		pragmaRows = append(pragmaRows, pragmaRow{
			id: id,
			row: foreignKeyRow{
				constraint:      tableName + "_fk_" + strconv.Itoa(id),
				column:          fromCol,
				referencedTable: targetTable,
				referencedCol:   toCol.String,
			},
		})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// SQLite numbers constraints last-declared first; seq already orders columns within one constraint
	sort.SliceStable(pragmaRows, func(i, j int) bool {
		return pragmaRows[i].id > pragmaRows[j].id
	})

	fkRows := make([]foreignKeyRow, 0, len(pragmaRows))
	for _, r := range pragmaRows {
		fkRows = append(fkRows, r.row)
	}

	if implicit {
		if err := e.fillImplicitReferences(ctx, fkRows); err != nil {
			return nil, err
		}
	}

	return groupForeignKeys(fkRows), nil
}

// fillImplicitReferences resolves referenced columns left empty by "REFERENCES t" clauses.
// Rows are ordered by constraint and then seq, so the nth row of a constraint maps to the nth primary key column.
func (e *SQLiteExtractor) fillImplicitReferences(ctx context.Context, fkRows []foreignKeyRow) error {
	pks := make(map[string][]string)
	position := make(map[string]int)

	for i := range fkRows {
		row := &fkRows[i]
		pos := position[row.constraint]
		position[row.constraint] = pos + 1

		if row.referencedCol != "" {
			continue
		}

		pk, ok := pks[row.referencedTable]
		if !ok {
			var err error
			_, pk, err = e.extractColumns(ctx, row.referencedTable)
			if err != nil {
				return fmt.Errorf("failed to read primary key of %s: %w", row.referencedTable, err)
			}
			pks[row.referencedTable] = pk
		}

		if pos >= len(pk) {
			return fmt.Errorf("foreign key %s references %s without a matching primary key column", row.constraint, row.referencedTable)
		}
		row.referencedCol = pk[pos]
	}

	return nil
}

// quoteIdent quotes an identifier for use in PRAGMA statements
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
