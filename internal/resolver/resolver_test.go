package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/syncschema/internal/config"
	"github.com/tordrt/syncschema/internal/projector"
	"github.com/tordrt/syncschema/internal/relations"
	"github.com/tordrt/syncschema/internal/schema"
	"github.com/tordrt/syncschema/internal/testutil"
)

func blogSchema() *schema.Schema {
	return &schema.Schema{Tables: []schema.Table{
		{
			Name: "users",
			Columns: []schema.Column{
				{Name: "id", Type: "integer"},
				{Name: "name", Type: "text"},
			},
			PrimaryKey: []string{"id"},
		},
		{
			Name: "posts",
			Columns: []schema.Column{
				{Name: "id", Type: "integer"},
				{Name: "content", Type: "text", Nullable: true},
				{Name: "authorId", Type: "integer"},
			},
			PrimaryKey: []string{"id"},
			ForeignKeys: []schema.ForeignKey{
				{Name: "posts_author_fk", Columns: []string{"authorId"}, ReferencedTable: "users", ReferencedColumns: []string{"id"}},
			},
		},
	}}
}

func blogDeclarations() []relations.Declaration {
	return []relations.Declaration{
		{Table: "posts", Define: func(h *relations.Helpers) map[string]relations.Spec {
			return map[string]relations.Spec{"author": h.One("users")}
		}},
		{Table: "users", Define: func(h *relations.Helpers) map[string]relations.Spec {
			return map[string]relations.Spec{"posts": h.Many("posts")}
		}},
	}
}

func exportAll() *config.Export {
	return &config.Export{
		Version: 1,
		Casing:  projector.CasingNone,
		Tables: map[string]projector.Inclusion{
			"users": {"id": true, "name": true},
			"posts": {"id": true, "content": true, "authorId": true},
		},
	}
}

func TestBuild_ForeignKeyInference(t *testing.T) {
	graph, err := Build(blogSchema(), blogDeclarations(), exportAll(), &Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)

	assert.Equal(t, 1, graph.Version)
	assert.Equal(t, []string{"posts", "users"}, graph.TableNames())

	posts := graph.Tables["posts"]
	users := graph.Tables["users"]

	author := posts.Relationships["author"]
	assert.Equal(t, []string{"authorId"}, author.SourceField)
	assert.Equal(t, []string{"id"}, author.DestField)
	assert.Same(t, users, author.Dest())

	userPosts := users.Relationships["posts"]
	assert.Equal(t, []string{"id"}, userPosts.SourceField)
	assert.Equal(t, []string{"authorId"}, userPosts.DestField)
	assert.Same(t, posts, userPosts.Dest())

	assert.Equal(t, projector.ColumnType{Type: projector.TypeString, Optional: true}, posts.Columns["content"])
	assert.Equal(t, []string{"id"}, posts.PrimaryKey)
}

func TestBuild_DropsRelationshipToUnexportedTable(t *testing.T) {
	cfg := exportAll()
	delete(cfg.Tables, "users")

	graph, err := Build(blogSchema(), blogDeclarations(), cfg, &Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)

	assert.Equal(t, []string{"posts"}, graph.TableNames())
	assert.Nil(t, graph.Tables["posts"].Relationships)
}

func TestBuild_EmptyInclusionIsNotExported(t *testing.T) {
	cfg := exportAll()
	cfg.Tables["users"] = projector.Inclusion{}

	graph, err := Build(blogSchema(), blogDeclarations(), cfg, nil)
	require.NoError(t, err)

	assert.NotContains(t, graph.Tables, "users")
	assert.Nil(t, graph.Tables["posts"].Relationships)
}

func TestBuild_UnresolvableRelation(t *testing.T) {
	s := blogSchema()
	s.Table("posts").ForeignKeys = nil

	_, err := Build(s, blogDeclarations(), exportAll(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvableRelation))

	var unresolved *UnresolvableRelationError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "posts", unresolved.SourceTable)
	assert.Equal(t, "author", unresolved.Field)
	assert.Equal(t, relations.ToOne, unresolved.Kind)
	assert.Equal(t, LookupForeignKey, unresolved.Lookup)
	assert.Equal(t,
		"no relationship found for: author (ToOne from posts to users). Did you forget to define foreign keys?",
		err.Error())
}

func TestBuild_UnresolvableNamedRelation(t *testing.T) {
	decls := []relations.Declaration{
		{Table: "users", Define: func(h *relations.Helpers) map[string]relations.Spec {
			return map[string]relations.Spec{"posts": h.Many("posts", relations.Named("written"))}
		}},
	}

	_, err := Build(blogSchema(), decls, exportAll(), nil)

	var unresolved *UnresolvableRelationError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, LookupNamed, unresolved.Lookup)
	assert.Equal(t, relations.ToMany, unresolved.Kind)
	assert.Contains(t, err.Error(), `for named relation "written"`)
}

func TestBuild_ExplicitFieldsWin(t *testing.T) {
	s := blogSchema()
	s.Tables[1].Columns = append(s.Tables[1].Columns, schema.Column{Name: "editorId", Type: "integer"})

	decls := []relations.Declaration{
		{Table: "posts", Define: func(h *relations.Helpers) map[string]relations.Spec {
			return map[string]relations.Spec{
				"editor": h.One("users", relations.On([]string{"editorId"}, []string{"id"})),
			}
		}},
	}
	cfg := exportAll()

	graph, err := Build(s, decls, cfg, nil)
	require.NoError(t, err)
	before := graph.Tables["posts"].Relationships["editor"]

	s.Table("posts").ForeignKeys = nil
	graph, err = Build(s, decls, cfg, nil)
	require.NoError(t, err)
	after := graph.Tables["posts"].Relationships["editor"]

	assert.Equal(t, []string{"editorId"}, before.SourceField)
	assert.Equal(t, []string{"id"}, before.DestField)
	assert.Equal(t, before.SourceField, after.SourceField)
	assert.Equal(t, before.DestField, after.DestField)
}

func TestBuild_NamedPairIsSymmetric(t *testing.T) {
	s := blogSchema()
	s.Table("posts").ForeignKeys = nil

	decls := []relations.Declaration{
		{Table: "posts", Define: func(h *relations.Helpers) map[string]relations.Spec {
			return map[string]relations.Spec{
				"writer": h.One("users", relations.On([]string{"authorId"}, []string{"id"}), relations.Named("authorship")),
			}
		}},
		{Table: "users", Define: func(h *relations.Helpers) map[string]relations.Spec {
			return map[string]relations.Spec{
				"articles": h.Many("posts", relations.Named("authorship")),
			}
		}},
	}

	graph, err := Build(s, decls, exportAll(), nil)
	require.NoError(t, err)

	writer := graph.Tables["posts"].Relationships["writer"]
	articles := graph.Tables["users"].Relationships["articles"]

	assert.Equal(t, writer.SourceField, articles.DestField)
	assert.Equal(t, writer.DestField, articles.SourceField)
}

func TestBuild_NamedRelationIgnoresForeignKeys(t *testing.T) {
	decls := []relations.Declaration{
		{Table: "users", Define: func(h *relations.Helpers) map[string]relations.Spec {
			return map[string]relations.Spec{"posts": h.Many("posts", relations.Named("missing"))}
		}},
	}

	_, err := Build(blogSchema(), decls, exportAll(), nil)
	assert.ErrorIs(t, err, ErrUnresolvableRelation)
}

func TestBuild_SelfReference(t *testing.T) {
	s := &schema.Schema{Tables: []schema.Table{{
		Name: "employees",
		Columns: []schema.Column{
			{Name: "id", Type: "bigint"},
			{Name: "managerId", Type: "bigint", Nullable: true},
		},
		PrimaryKey: []string{"id"},
		ForeignKeys: []schema.ForeignKey{
			{Name: "employees_manager_fk", Columns: []string{"managerId"}, ReferencedTable: "employees", ReferencedColumns: []string{"id"}},
		},
	}}}
	decls := []relations.Declaration{
		{Table: "employees", Define: func(h *relations.Helpers) map[string]relations.Spec {
			return map[string]relations.Spec{
				"manager": h.One("employees"),
				"reports": h.Many("employees"),
			}
		}},
	}
	cfg := &config.Export{
		Version: 1,
		Casing:  projector.CasingSnake,
		Tables:  map[string]projector.Inclusion{"employees": {"id": true, "managerId": true}},
	}

	graph, err := Build(s, decls, cfg, &Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)

	employees := graph.Tables["employees"]
	manager := employees.Relationships["manager"]
	reports := employees.Relationships["reports"]

	assert.Equal(t, []string{"manager_id"}, manager.SourceField)
	assert.Equal(t, []string{"id"}, manager.DestField)
	assert.Equal(t, []string{"id"}, reports.SourceField)
	assert.Equal(t, []string{"manager_id"}, reports.DestField)

	first := manager.Dest()
	second := manager.Dest()
	assert.Same(t, employees, first)
	assert.Same(t, first, second)
	assert.Same(t, employees, first.Relationships["manager"].Dest().Relationships["reports"].Dest())
}

func TestBuild_TableWithoutDeclarationsHasNoRelationships(t *testing.T) {
	decls := blogDeclarations()[:1]

	graph, err := Build(blogSchema(), decls, exportAll(), nil)
	require.NoError(t, err)

	assert.Nil(t, graph.Tables["users"].Relationships)
	assert.Len(t, graph.Tables["posts"].Relationships, 1)
}

func TestBuild_ExtractionSeesUnexportedTables(t *testing.T) {
	s := blogSchema()
	s.Tables = append(s.Tables, schema.Table{
		Name:       "audits",
		Columns:    []schema.Column{{Name: "id", Type: "integer"}},
		PrimaryKey: []string{"id"},
	})
	decls := append(blogDeclarations(), relations.Declaration{
		Table: "audits",
		Define: func(h *relations.Helpers) map[string]relations.Spec {
			return map[string]relations.Spec{"user": h.One("users", relations.On([]string{"id"}, []string{"id"}))}
		},
	})

	graph, err := Build(s, decls, exportAll(), nil)
	require.NoError(t, err)
	assert.NotContains(t, graph.Tables, "audits")

	bad := append(blogDeclarations(), relations.Declaration{
		Table: "audits",
		Define: func(h *relations.Helpers) map[string]relations.Spec {
			return map[string]relations.Spec{"user": h.One("users")}
		},
	})
	_, err = Build(s, bad, exportAll(), nil)
	assert.ErrorIs(t, err, ErrUnresolvableRelation, "declarations on unexported tables are still resolved")
}

func TestBuild_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		tables map[string]projector.Inclusion
	}{
		{
			name:   "unknown table",
			tables: map[string]projector.Inclusion{"comments": {"id": true}},
		},
		{
			name:   "unknown column",
			tables: map[string]projector.Inclusion{"users": {"id": true, "email": true}},
		},
		{
			name:   "primary key excluded",
			tables: map[string]projector.Inclusion{"users": {"id": false, "name": true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Export{Version: 1, Tables: tt.tables}
			_, err := Build(blogSchema(), nil, cfg, nil)
			assert.ErrorIs(t, err, projector.ErrConfig)
		})
	}
}

func TestBuild_CompositeKeys(t *testing.T) {
	s := &schema.Schema{Tables: []schema.Table{
		{
			Name: "orders",
			Columns: []schema.Column{
				{Name: "tenantId", Type: "integer"},
				{Name: "orderId", Type: "integer"},
			},
			PrimaryKey: []string{"tenantId", "orderId"},
		},
		{
			Name: "lines",
			Columns: []schema.Column{
				{Name: "tenantId", Type: "integer"},
				{Name: "orderId", Type: "integer"},
				{Name: "lineNo", Type: "integer"},
			},
			PrimaryKey: []string{"tenantId", "orderId", "lineNo"},
			ForeignKeys: []schema.ForeignKey{{
				Name:              "lines_order_fk",
				Columns:           []string{"tenantId", "orderId"},
				ReferencedTable:   "orders",
				ReferencedColumns: []string{"tenantId", "orderId"},
			}},
		},
	}}
	decls := []relations.Declaration{
		{Table: "orders", Define: func(h *relations.Helpers) map[string]relations.Spec {
			return map[string]relations.Spec{"lines": h.Many("lines")}
		}},
	}
	cfg := &config.Export{Version: 2, Tables: map[string]projector.Inclusion{
		"orders": {"tenantId": true, "orderId": true},
		"lines":  {"tenantId": true, "orderId": true, "lineNo": true},
	}}

	graph, err := Build(s, decls, cfg, nil)
	require.NoError(t, err)

	rel := graph.Tables["orders"].Relationships["lines"]
	assert.Equal(t, []string{"tenantId", "orderId"}, rel.SourceField)
	assert.Equal(t, []string{"tenantId", "orderId"}, rel.DestField)
	assert.Equal(t, len(rel.SourceField), len(rel.DestField))
}

func TestBuild_Deterministic(t *testing.T) {
	first, err := Build(blogSchema(), blogDeclarations(), exportAll(), nil)
	require.NoError(t, err)
	second, err := Build(blogSchema(), blogDeclarations(), exportAll(), nil)
	require.NoError(t, err)

	require.Equal(t, first.TableNames(), second.TableNames())
	for _, name := range first.TableNames() {
		a, b := first.Tables[name], second.Tables[name]
		assert.Equal(t, a.TableName, b.TableName)
		assert.Equal(t, a.Columns, b.Columns)
		assert.Equal(t, a.PrimaryKey, b.PrimaryKey)
		require.Equal(t, a.RelationshipNames(), b.RelationshipNames())
		for _, rel := range a.RelationshipNames() {
			assert.Equal(t, a.Relationships[rel].SourceField, b.Relationships[rel].SourceField)
			assert.Equal(t, a.Relationships[rel].DestField, b.Relationships[rel].DestField)
			assert.Equal(t, a.Relationships[rel].Dest().TableName, b.Relationships[rel].Dest().TableName)
		}
	}
}

func TestResolve_Rules(t *testing.T) {
	resolved, err := Resolve(blogSchema(), blogDeclarations(), testutil.NewTestLogger(t))
	require.NoError(t, err)

	require.Len(t, resolved["posts"], 1)
	assert.Equal(t, Relation{
		Name:         "author",
		Kind:         relations.ToOne,
		SourceTable:  "posts",
		DestTable:    "users",
		SourceFields: []string{"authorId"},
		DestFields:   []string{"id"},
		Rule:         RuleForeignKey,
	}, resolved["posts"][0])

	require.Len(t, resolved["users"], 1)
	assert.Equal(t, RuleForeignKey, resolved["users"][0].Rule)
}

func TestResolve_DeclarationError(t *testing.T) {
	decls := []relations.Declaration{{Table: "posts"}}
	_, err := Resolve(blogSchema(), decls, nil)
	assert.ErrorContains(t, err, "no declaration function")
}
