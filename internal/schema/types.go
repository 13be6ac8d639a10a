package schema

// Schema represents the table metadata of a database
type Schema struct {
	Tables []Table
}

// Table represents a database table
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
}

// Column represents a table column
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// ForeignKey represents a foreign key constraint.
// Columns and ReferencedColumns are positionally paired.
type ForeignKey struct {
	Name              string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
}

// Table returns the table with the given name, or nil if the schema has none
func (s *Schema) Table(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// Column returns the column with the given name, or nil if the table has none
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// ForeignKeysTo returns the foreign keys of t that reference the named table, in declaration order
func (t *Table) ForeignKeysTo(table string) []ForeignKey {
	var fks []ForeignKey
	for _, fk := range t.ForeignKeys {
		if fk.ReferencedTable == table {
			fks = append(fks, fk)
		}
	}
	return fks
}

// Names returns the table names in schema order
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		names = append(names, t.Name)
	}
	return names
}
