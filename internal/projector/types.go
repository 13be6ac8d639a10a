package projector

import "strings"

// ValueType is the semantic type a sync client sees for a column
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeNumber  ValueType = "number"
	TypeBoolean ValueType = "boolean"
	TypeJSON    ValueType = "json"
)

// ColumnType describes one exported column
type ColumnType struct {
	Type     ValueType `json:"type" yaml:"type"`
	Optional bool      `json:"optional,omitempty" yaml:"optional,omitempty"`
}

var numberTypes = map[string]bool{
	"smallint": true, "integer": true, "int": true, "bigint": true,
	"int2": true, "int4": true, "int8": true, "tinyint": true, "mediumint": true,
	"serial": true, "bigserial": true, "smallserial": true,
	"real": true, "float": true, "float4": true, "float8": true,
	"double": true, "double precision": true, "numeric": true, "decimal": true, "money": true,
	// Timestamps travel as epoch milliseconds
	"timestamp": true, "timestamptz": true, "datetime": true, "date": true,
}

var booleanTypes = map[string]bool{
	"boolean": true, "bool": true, "bit": true,
}

var jsonTypes = map[string]bool{
	"json": true, "jsonb": true, "array": true,
}

// TypeOf maps a SQL data type as reported by PostgreSQL, MySQL or SQLite to its semantic type.
// Unknown types, including enums and user-defined types, are strings.
func TypeOf(sqlType string) ValueType {
	t := strings.ToLower(strings.TrimSpace(sqlType))

	if strings.HasSuffix(t, "[]") {
		return TypeJSON
	}
	// MySQL reports BOOLEAN columns as tinyint(1)
	if strings.HasPrefix(t, "tinyint(1)") {
		return TypeBoolean
	}

	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	t = strings.TrimSpace(strings.TrimSuffix(t, " unsigned"))

	switch {
	case numberTypes[t]:
		return TypeNumber
	case booleanTypes[t]:
		return TypeBoolean
	case jsonTypes[t]:
		return TypeJSON
	default:
		return TypeString
	}
}
