// Package dsl builds schemas in Go instead of documents. Builders collect
// plain field definitions; Build runs the same structural validation as
// document loading, so a schema is equally trustworthy either way.
package dsl

import (
	goforma "github.com/reoring/goforma"
)

// Field is one definition under construction. Methods mutate and return
// the same builder for chaining. Nesting captures child definitions at
// call time; later edits to a child builder do not propagate.
type Field struct {
	def goforma.FieldDefinition
}

func newField(name string, t goforma.FieldType) *Field {
	return &Field{def: goforma.FieldDefinition{Name: name, Type: t}}
}

// Text starts a single-line text field.
func Text(name string) *Field { return newField(name, goforma.TypeText) }

// Email starts an email field.
func Email(name string) *Field { return newField(name, goforma.TypeEmail) }

// Password starts a password field.
func Password(name string) *Field { return newField(name, goforma.TypePassword) }

// Number starts a numeric field.
func Number(name string) *Field { return newField(name, goforma.TypeNumber) }

// Textarea starts a multi-line text field.
func Textarea(name string) *Field { return newField(name, goforma.TypeTextarea) }

// Select starts a single-choice field.
func Select(name string) *Field { return newField(name, goforma.TypeSelect) }

// MultiSelect starts a multi-choice field.
func MultiSelect(name string) *Field { return newField(name, goforma.TypeMultiSelect) }

// Autocomplete starts a search-driven choice field.
func Autocomplete(name string) *Field { return newField(name, goforma.TypeAutocomplete) }

// Checkbox starts a checkbox field.
func Checkbox(name string) *Field { return newField(name, goforma.TypeCheckbox) }

// Radio starts a radio-group field.
func Radio(name string) *Field { return newField(name, goforma.TypeRadio) }

// Switch starts a toggle field.
func Switch(name string) *Field { return newField(name, goforma.TypeSwitch) }

// Date starts a date field.
func Date(name string) *Field { return newField(name, goforma.TypeDate) }

// DateTime starts a datetime field.
func DateTime(name string) *Field { return newField(name, goforma.TypeDateTime) }

// Time starts a time-of-day field.
func Time(name string) *Field { return newField(name, goforma.TypeTime) }

// File starts a file field.
func File(name string) *Field { return newField(name, goforma.TypeFile) }

// Hidden starts a hidden field.
func Hidden(name string) *Field { return newField(name, goforma.TypeHidden) }

// Object starts an object field over child fields.
func Object(name string, children ...*Field) *Field {
	f := newField(name, goforma.TypeObject)
	for _, c := range children {
		f.def.Fields = append(f.def.Fields, c.def)
	}
	return f
}

// Array starts an array of bare primitive items.
func Array(name string, itemType goforma.FieldType) *Field {
	f := newField(name, goforma.TypeArray)
	f.def.ItemType = itemType
	return f
}

// ArrayOf starts an array whose items share one full definition, rules
// and all.
func ArrayOf(name string, item *Field) *Field {
	f := newField(name, goforma.TypeArray)
	f.def.ItemType = item.def.Type
	d := item.def
	f.def.ItemDefinition = &d
	return f
}

// ArrayOfObject starts an array of object items.
func ArrayOfObject(name string, fields ...*Field) *Field {
	f := newField(name, goforma.TypeArray)
	f.def.ItemType = goforma.TypeObject
	for _, c := range fields {
		f.def.ItemFields = append(f.def.ItemFields, c.def)
	}
	return f
}

func (f *Field) validation() *goforma.Validation {
	if f.def.Validation == nil {
		f.def.Validation = &goforma.Validation{}
	}
	return f.def.Validation
}

// Label sets the display label.
func (f *Field) Label(s string) *Field { f.def.Label = s; return f }

// Placeholder sets the input placeholder.
func (f *Field) Placeholder(s string) *Field { f.def.Placeholder = s; return f }

// Description sets the helper text.
func (f *Field) Description(s string) *Field { f.def.Description = s; return f }

// Default sets the value seeded when the field first registers with no
// stored value.
func (f *Field) Default(v any) *Field { f.def.DefaultValue = v; return f }

// Disabled marks the field (and, folded, its subtree) non-interactive.
func (f *Field) Disabled() *Field { f.def.Disabled = true; return f }

// ReadOnly marks the field read-only.
func (f *Field) ReadOnly() *Field { f.def.ReadOnly = true; return f }

// Required marks the field required.
func (f *Field) Required() *Field { f.validation().Required = true; return f }

// Min sets the numeric lower bound.
func (f *Field) Min(v float64) *Field { f.validation().Min = &v; return f }

// Max sets the numeric upper bound.
func (f *Field) Max(v float64) *Field { f.validation().Max = &v; return f }

// MinLength sets the minimum rune count.
func (f *Field) MinLength(n int) *Field { f.validation().MinLength = &n; return f }

// MaxLength sets the maximum rune count.
func (f *Field) MaxLength(n int) *Field { f.validation().MaxLength = &n; return f }

// Pattern sets the regular expression the value must match.
func (f *Field) Pattern(re string) *Field { f.validation().Pattern = re; return f }

// Custom names the caller-supplied validation hook for this field.
func (f *Field) Custom(key string) *Field { f.validation().Custom = key; return f }

// Option appends one static option.
func (f *Field) Option(label string, value any) *Field {
	f.def.Options = append(f.def.Options, goforma.Option{Label: label, Value: value})
	return f
}

// Options replaces the static option list.
func (f *Field) Options(opts ...goforma.Option) *Field {
	f.def.Options = opts
	return f
}

// Source points the field at a named data source together with the
// dependency paths its fetches read. "./"-prefixed paths bind to the
// nearest enclosing array item.
func (f *Field) Source(key string, dependsOn ...string) *Field {
	f.def.DataSourceKey = key
	f.def.DependsOn = dependsOn
	return f
}

// When gates visibility on another field's value. Unary operators ignore
// value; pass nil.
func (f *Field) When(path string, op goforma.Operator, value any) *Field {
	f.def.Condition = &goforma.Condition{When: path, Operator: op, Value: value}
	return f
}

// MinItems sets the array's soft lower bound.
func (f *Field) MinItems(n int) *Field { f.def.MinItems = &n; return f }

// MaxItems sets the array's soft upper bound.
func (f *Field) MaxItems(n int) *Field { f.def.MaxItems = &n; return f }

// Definition returns a deep copy of the built definition.
func (f *Field) Definition() goforma.FieldDefinition { return f.def.Clone() }

// Build validates the fields into a schema.
func Build(fields ...*Field) (*goforma.Schema, error) {
	defs := make([]goforma.FieldDefinition, 0, len(fields))
	for _, f := range fields {
		defs = append(defs, f.def)
	}
	return goforma.NewSchema(defs...)
}

// MustBuild panics when the fields do not validate; for schemas fixed at
// compile time.
func MustBuild(fields ...*Field) *goforma.Schema {
	s, err := Build(fields...)
	if err != nil {
		panic(err)
	}
	return s
}
