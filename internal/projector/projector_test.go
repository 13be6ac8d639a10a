package projector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/syncschema/internal/schema"
)

func postsTable() schema.Table {
	return schema.Table{
		Name: "posts",
		Columns: []schema.Column{
			{Name: "id", Type: "integer"},
			{Name: "content", Type: "text", Nullable: true},
			{Name: "authorId", Type: "integer"},
			{Name: "draft", Type: "boolean"},
		},
		PrimaryKey: []string{"id"},
	}
}

func TestProject(t *testing.T) {
	got, err := Project(postsTable(), Inclusion{"id": true, "content": true, "authorId": true, "draft": false}, CasingNone)
	require.NoError(t, err)

	assert.Equal(t, &TableSchema{
		TableName: "posts",
		Columns: map[string]ColumnType{
			"id":       {Type: TypeNumber},
			"content":  {Type: TypeString, Optional: true},
			"authorId": {Type: TypeNumber},
		},
		PrimaryKey: []string{"id"},
	}, got)
}

func TestProject_SnakeCase(t *testing.T) {
	table := postsTable()
	table.PrimaryKey = []string{"id", "authorId"}

	got, err := Project(table, Inclusion{"id": true, "authorId": true}, CasingSnake)
	require.NoError(t, err)

	assert.Contains(t, got.Columns, "author_id")
	assert.NotContains(t, got.Columns, "authorId")
	assert.Equal(t, []string{"id", "author_id"}, got.PrimaryKey)
	assert.Equal(t, "posts", got.TableName, "table names are not renamed")
}

func TestProject_ConfigErrors(t *testing.T) {
	tests := []struct {
		name       string
		table      schema.Table
		include    Inclusion
		casing     Casing
		wantColumn string
		wantReason string
	}{
		{
			name:       "unknown column",
			table:      postsTable(),
			include:    Inclusion{"id": true, "title": true},
			wantColumn: "title",
			wantReason: "column does not exist",
		},
		{
			name:       "unknown column marked false",
			table:      postsTable(),
			include:    Inclusion{"id": true, "title": false},
			wantColumn: "title",
			wantReason: "column does not exist",
		},
		{
			name:       "primary key excluded",
			table:      postsTable(),
			include:    Inclusion{"content": true},
			wantColumn: "id",
			wantReason: "primary key column must be included",
		},
		{
			name:       "no primary key",
			table:      schema.Table{Name: "logs", Columns: []schema.Column{{Name: "line", Type: "text"}}},
			include:    Inclusion{"line": true},
			wantReason: "table has no primary key",
		},
		{
			name: "casing collision",
			table: schema.Table{
				Name:       "users",
				Columns:    []schema.Column{{Name: "id", Type: "int"}, {Name: "userName", Type: "text"}, {Name: "user_name", Type: "text"}},
				PrimaryKey: []string{"id"},
			},
			include:    Inclusion{"id": true, "userName": true, "user_name": true},
			casing:     CasingSnake,
			wantColumn: "user_name",
			wantReason: "collides with column userName",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Project(tt.table, tt.include, tt.casing)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.table.Name, cfgErr.Table)
			assert.Equal(t, tt.wantColumn, cfgErr.Column)
			assert.Contains(t, cfgErr.Reason, tt.wantReason)
		})
	}
}

func TestParseCasing(t *testing.T) {
	c, err := ParseCasing("")
	require.NoError(t, err)
	assert.Equal(t, CasingNone, c)

	c, err = ParseCasing("snake_case")
	require.NoError(t, err)
	assert.Equal(t, CasingSnake, c)

	_, err = ParseCasing("camelCase")
	assert.ErrorContains(t, err, "unknown casing")
}

func TestCasingApply(t *testing.T) {
	assert.Equal(t, "author_id", CasingSnake.Apply("authorId"))
	assert.Equal(t, "created_at", CasingSnake.Apply("created_at"))
	assert.Equal(t, "authorId", CasingNone.Apply("authorId"))
	assert.Equal(t, []string{"post_id", "id"}, CasingSnake.ApplyAll([]string{"postId", "id"}))
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		sqlType string
		want    ValueType
	}{
		{"integer", TypeNumber},
		{"INTEGER", TypeNumber},
		{"bigint unsigned", TypeNumber},
		{"numeric(10,2)", TypeNumber},
		{"double precision", TypeNumber},
		{"timestamptz", TypeNumber},
		{"datetime", TypeNumber},
		{"boolean", TypeBoolean},
		{"tinyint(1)", TypeBoolean},
		{"tinyint(4)", TypeNumber},
		{"jsonb", TypeJSON},
		{"text[]", TypeJSON},
		{"varchar(255)", TypeString},
		{"uuid", TypeString},
		{"enum('a','b')", TypeString},
		{"mood", TypeString},
		{"time", TypeString},
	}

	for _, tt := range tests {
		t.Run(tt.sqlType, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.sqlType))
		})
	}
}
