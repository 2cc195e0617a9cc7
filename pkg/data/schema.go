package data

import (
	"fmt"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
)

// Kind is the declared type of a column.
type Kind int

const (
	Float Kind = iota // float64, NaN for missing
	Int               // integral values stored as float64, NaN for missing
	String
	Date // time.Time, zero value for missing
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "string"
	case Date:
		return "date"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DefaultDateLayout is used for Date fields without an explicit Layout.
const DefaultDateLayout = "2006-01-02"

// Field describes a single named column.
type Field struct {
	Name     string
	Kind     Kind
	Layout   string // time layout for Date fields
	Nullable bool   // accept null tokens for Float, Int and Date fields
}

func (f Field) layout() string {
	if f.Layout == "" {
		return DefaultDateLayout
	}
	return f.Layout
}

// Schema describes the structure of a dataset.
type Schema struct {
	Fields []Field
	// Strict rejects input columns that are not declared in Fields.
	// Non-strict schemas ignore undeclared columns.
	Strict bool
}

// Field returns the field called name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the declared column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// Validate rejects empty or duplicated field names.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return core.ConfigError("data.schema", "schema declares no fields")
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return core.ConfigError("data.schema", "field with empty name")
		}
		if _, ok := seen[f.Name]; ok {
			return core.ConfigError("data.schema", "field %q declared twice", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}
