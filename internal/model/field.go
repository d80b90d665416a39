package model

import "strings"

// FieldType is the declared type of a column in the record source.
type FieldType string

const (
	FieldTypeDate     FieldType = "date"
	FieldTypeDateTime FieldType = "date_time"
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeSelect   FieldType = "select"
	FieldTypeOther    FieldType = "other"
)

// IsDate reports whether values of this type carry a calendar date.
func (t FieldType) IsDate() bool {
	return t == FieldTypeDate || t == FieldTypeDateTime
}

// Field describes a single named column.
type Field struct {
	Name string    `json:"name" yaml:"name"`
	Type FieldType `json:"type" yaml:"type"`
}

// LowerName returns the field name lower-cased for keyword matching.
func (f Field) LowerName() string {
	return strings.ToLower(f.Name)
}

// FieldRegistry is an ordered collection of fields with name lookups.
type FieldRegistry struct {
	Fields []Field
	byName map[string]int
	byFold map[string]int
}

// NewFieldRegistry indexes fields by exact and lower-cased name. When two
// fields share a name the first one wins.
func NewFieldRegistry(fields []Field) *FieldRegistry {
	r := &FieldRegistry{
		Fields: fields,
		byName: make(map[string]int, len(fields)),
		byFold: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if _, ok := r.byName[f.Name]; !ok {
			r.byName[f.Name] = i
		}
		if _, ok := r.byFold[f.LowerName()]; !ok {
			r.byFold[f.LowerName()] = i
		}
	}
	return r
}

// ByName returns the field with the exact given name.
func (r *FieldRegistry) ByName(name string) (Field, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Field{}, false
	}
	return r.Fields[i], true
}

// ByNameFold returns the field whose name matches case-insensitively.
func (r *FieldRegistry) ByNameFold(name string) (Field, bool) {
	i, ok := r.byFold[strings.ToLower(name)]
	if !ok {
		return Field{}, false
	}
	return r.Fields[i], true
}

// DateFields returns the date-typed fields in declaration order.
func (r *FieldRegistry) DateFields() []Field {
	var out []Field
	for _, f := range r.Fields {
		if f.Type.IsDate() {
			out = append(out, f)
		}
	}
	return out
}

// Names returns all field names in declaration order.
func (r *FieldRegistry) Names() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}
