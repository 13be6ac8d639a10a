package relations

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// entryPoint is the function every declaration file must define
const entryPoint = "relations"

// LoadError reports a declaration file that could not be evaluated
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Loader reads relation declarations from a directory of .star files.
// Each file is named after its source table and defines:
//
//	def relations(one, many):
//	    return {
//	        "author": one("users", fields = ["author_id"], references = ["id"]),
//	        "comments": many("comments"),
//	    }
type Loader struct {
	dir string
}

// NewLoader creates a loader for the specified directory
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load evaluates every .star file in the directory, ordered by file name
func (l *Loader) Load() ([]Declaration, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access relations directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("relations path is not a directory: %s", l.dir)
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.star"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan relations directory: %w", err)
	}
	sort.Strings(files)

	decls := make([]Declaration, 0, len(files))
	for _, file := range files {
		decl, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}

	return decls, nil
}

// LoadFile evaluates a single declaration file; the table name is the file name without extension
func LoadFile(path string) (Declaration, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the configured relations directory
	if err != nil {
		return Declaration{}, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}

	table := strings.TrimSuffix(filepath.Base(path), ".star")
	return LoadSource(table, path, content)
}

// declared is one entry of the dict returned by a relations() function
type declared struct {
	name string
	kind Kind
	opts []Option
	to   string
}

// LoadSource evaluates declaration source for table. filename is only used in error messages.
func LoadSource(table, filename string, src []byte) (Declaration, error) {
	if table == "" {
		return Declaration{}, &LoadError{File: filename, Message: "table name cannot be empty"}
	}

	thread := &starlark.Thread{
		Name: "relations:" + table,
		Print: func(_ *starlark.Thread, _ string) {
			// Ignore prints during declaration loading
		},
	}

	globals, err := starlark.ExecFile(thread, filename, src, nil) //nolint:staticcheck // SA1019: will migrate to ExecFileOptions later
	if err != nil {
		return Declaration{}, &LoadError{File: filename, Message: fmt.Sprintf("Starlark execution error: %v", err)}
	}

	fn, ok := globals[entryPoint].(starlark.Callable)
	if !ok {
		return Declaration{}, &LoadError{File: filename, Message: fmt.Sprintf("file must define a %s(one, many) function", entryPoint)}
	}

	result, err := starlark.Call(thread, fn, starlark.Tuple{oneBuiltin, manyBuiltin}, nil)
	if err != nil {
		return Declaration{}, &LoadError{File: filename, Message: fmt.Sprintf("%s() failed: %v", entryPoint, err)}
	}

	entries, err := decodeRelations(result)
	if err != nil {
		return Declaration{}, &LoadError{File: filename, Message: err.Error()}
	}

	return Declaration{
		Table: table,
		Define: func(h *Helpers) map[string]Spec {
			specs := make(map[string]Spec, len(entries))
			for _, e := range entries {
				if e.kind == ToOne {
					specs[e.name] = h.One(e.to, e.opts...)
				} else {
					specs[e.name] = h.Many(e.to, e.opts...)
				}
			}
			return specs
		},
	}, nil
}

var (
	oneBuiltin  = starlark.NewBuiltin("one", one)
	manyBuiltin = starlark.NewBuiltin("many", many)
)

// one(table, fields=None, references=None, relation_name="")
func one(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var table, relationName string
	var fields, references *starlark.List

	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"table", &table,
		"fields?", &fields,
		"references?", &references,
		"relation_name?", &relationName,
	); err != nil {
		return nil, err
	}

	return relationStruct(ToOne, table, relationName, fields, references), nil
}

// many(table, relation_name="")
func many(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var table, relationName string

	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"table", &table,
		"relation_name?", &relationName,
	); err != nil {
		return nil, err
	}

	return relationStruct(ToMany, table, relationName, nil, nil), nil
}

func relationStruct(kind Kind, table, relationName string, fields, references *starlark.List) starlark.Value {
	if fields == nil {
		fields = starlark.NewList(nil)
	}
	if references == nil {
		references = starlark.NewList(nil)
	}
	return starlarkstruct.FromStringDict(starlark.String("relation"), starlark.StringDict{
		"kind":          starlark.String(kind.String()),
		"table":         starlark.String(table),
		"fields":        fields,
		"references":    references,
		"relation_name": starlark.String(relationName),
	})
}

// decodeRelations converts the dict returned by relations() into declared entries
func decodeRelations(v starlark.Value) ([]declared, error) {
	dict, ok := v.(*starlark.Dict)
	if !ok {
		return nil, fmt.Errorf("%s() must return a dict, got %s", entryPoint, v.Type())
	}

	var entries []declared
	for _, item := range dict.Items() {
		name, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("relation names must be strings, got %s", item[0].Type())
		}

		s, ok := item[1].(*starlarkstruct.Struct)
		if !ok {
			return nil, fmt.Errorf("relation %q: expected one(...) or many(...), got %s", name, item[1].Type())
		}

		entry, err := decodeRelation(name, s)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func decodeRelation(name string, s *starlarkstruct.Struct) (declared, error) {
	kind, err := stringAttr(s, "kind")
	if err != nil {
		return declared{}, fmt.Errorf("relation %q: %w", name, err)
	}
	table, err := stringAttr(s, "table")
	if err != nil {
		return declared{}, fmt.Errorf("relation %q: %w", name, err)
	}
	relationName, err := stringAttr(s, "relation_name")
	if err != nil {
		return declared{}, fmt.Errorf("relation %q: %w", name, err)
	}
	fields, err := listAttr(s, "fields")
	if err != nil {
		return declared{}, fmt.Errorf("relation %q: %w", name, err)
	}
	references, err := listAttr(s, "references")
	if err != nil {
		return declared{}, fmt.Errorf("relation %q: %w", name, err)
	}

	entry := declared{name: name, to: table, kind: ToMany}
	if kind == ToOne.String() {
		entry.kind = ToOne
	}
	if len(fields) > 0 || len(references) > 0 {
		entry.opts = append(entry.opts, On(fields, references))
	}
	if relationName != "" {
		entry.opts = append(entry.opts, Named(relationName))
	}

	return entry, nil
}

func stringAttr(s *starlarkstruct.Struct, attr string) (string, error) {
	v, err := s.Attr(attr)
	if err != nil {
		return "", err
	}
	str, ok := starlark.AsString(v)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %s", attr, v.Type())
	}
	return str, nil
}

func listAttr(s *starlarkstruct.Struct, attr string) ([]string, error) {
	v, err := s.Attr(attr)
	if err != nil {
		return nil, err
	}
	list, ok := v.(*starlark.List)
	if !ok {
		return nil, fmt.Errorf("%s must be a list, got %s", attr, v.Type())
	}

	out := make([]string, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		str, ok := starlark.AsString(list.Index(i))
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string, got %s", attr, i, list.Index(i).Type())
		}
		out = append(out, str)
	}
	return out, nil
}
