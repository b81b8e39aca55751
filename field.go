package goforma

// FieldType identifies the widget family a field renders as. The set is
// closed; schema validation rejects anything else.
type FieldType string

const (
	TypeText         FieldType = "text"
	TypeEmail        FieldType = "email"
	TypePassword     FieldType = "password"
	TypeNumber       FieldType = "number"
	TypeTextarea     FieldType = "textarea"
	TypeSelect       FieldType = "select"
	TypeMultiSelect  FieldType = "multiselect"
	TypeAutocomplete FieldType = "autocomplete"
	TypeCheckbox     FieldType = "checkbox"
	TypeRadio        FieldType = "radio"
	TypeSwitch       FieldType = "switch"
	TypeDate         FieldType = "date"
	TypeDateTime     FieldType = "datetime"
	TypeTime         FieldType = "time"
	TypeFile         FieldType = "file"
	TypeObject       FieldType = "object"
	TypeArray        FieldType = "array"
	TypeHidden       FieldType = "hidden"
)

var fieldTypes = map[FieldType]struct{}{
	TypeText: {}, TypeEmail: {}, TypePassword: {}, TypeNumber: {},
	TypeTextarea: {}, TypeSelect: {}, TypeMultiSelect: {}, TypeAutocomplete: {},
	TypeCheckbox: {}, TypeRadio: {}, TypeSwitch: {}, TypeDate: {},
	TypeDateTime: {}, TypeTime: {}, TypeFile: {}, TypeObject: {}, TypeArray: {},
	TypeHidden: {},
}

// Valid reports whether t is a member of the closed type set.
func (t FieldType) Valid() bool {
	_, ok := fieldTypes[t]
	return ok
}

// OptionBased reports whether the type selects among options and therefore
// must declare either static options or a data source.
func (t FieldType) OptionBased() bool {
	switch t {
	case TypeSelect, TypeMultiSelect, TypeAutocomplete, TypeRadio:
		return true
	}
	return false
}

// ZeroValue returns the type-appropriate empty value used when synthesizing
// defaults for new array items.
func (t FieldType) ZeroValue() any {
	switch t {
	case TypeNumber:
		return float64(0)
	case TypeCheckbox, TypeSwitch:
		return false
	case TypeMultiSelect:
		return []any{}
	case TypeObject:
		return map[string]any{}
	case TypeArray:
		return []any{}
	default:
		return ""
	}
}

// Option is one selectable entry for option-based fields.
type Option struct {
	Label string `json:"label" yaml:"label" toml:"label"`
	Value any    `json:"value" yaml:"value" toml:"value"`
}

// Validation is the optional rule set attached to a field. Pointer members
// distinguish "absent" from an explicit zero.
type Validation struct {
	Required  bool     `json:"required,omitempty" yaml:"required,omitempty" toml:"required,omitempty"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty" toml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty" toml:"max,omitempty"`
	MinLength *int     `json:"minLength,omitempty" yaml:"minLength,omitempty" toml:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty" toml:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern,omitempty" toml:"pattern,omitempty"`
	// Custom names a validator in the caller-supplied custom-validator map.
	Custom string `json:"custom,omitempty" yaml:"custom,omitempty" toml:"custom,omitempty"`
}

// FieldDefinition is one node of the schema tree. Object fields nest via
// Fields; array fields describe their items via ItemType plus exactly one of
// ItemFields (object items) or ItemDefinition (single-field items); bare
// primitive arrays need only ItemType.
type FieldDefinition struct {
	Name         string    `json:"name" yaml:"name" toml:"name"`
	Type         FieldType `json:"type" yaml:"type" toml:"type"`
	Label        string    `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Placeholder  string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty" toml:"placeholder,omitempty"`
	Description  string    `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	DefaultValue any       `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty" toml:"defaultValue,omitempty"`
	Disabled     bool      `json:"disabled,omitempty" yaml:"disabled,omitempty" toml:"disabled,omitempty"`
	ReadOnly     bool      `json:"readOnly,omitempty" yaml:"readOnly,omitempty" toml:"readOnly,omitempty"`

	Validation *Validation `json:"validation,omitempty" yaml:"validation,omitempty" toml:"validation,omitempty"`

	// Options is the static option list. A configured data source wins when
	// both are present.
	Options       []Option `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty"`
	DataSourceKey string   `json:"dataSourceKey,omitempty" yaml:"dataSourceKey,omitempty" toml:"dataSourceKey,omitempty"`
	// DependsOn lists field paths whose values feed the data source fetch.
	// Entries are absolute unless prefixed with "./", which binds them to the
	// nearest enclosing array item.
	DependsOn []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty" toml:"dependsOn,omitempty"`

	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty" toml:"condition,omitempty"`

	Fields []FieldDefinition `json:"fields,omitempty" yaml:"fields,omitempty" toml:"fields,omitempty"`

	ItemType       FieldType         `json:"itemType,omitempty" yaml:"itemType,omitempty" toml:"itemType,omitempty"`
	ItemFields     []FieldDefinition `json:"itemFields,omitempty" yaml:"itemFields,omitempty" toml:"itemFields,omitempty"`
	ItemDefinition *FieldDefinition  `json:"itemDefinition,omitempty" yaml:"itemDefinition,omitempty" toml:"itemDefinition,omitempty"`
	MinItems       *int              `json:"minItems,omitempty" yaml:"minItems,omitempty" toml:"minItems,omitempty"`
	MaxItems       *int              `json:"maxItems,omitempty" yaml:"maxItems,omitempty" toml:"maxItems,omitempty"`
}

// Clone returns a deep copy of the definition. Array resolution clones item
// definitions before rebasing their names onto index segments.
func (fd FieldDefinition) Clone() FieldDefinition {
	out := fd
	if fd.Validation != nil {
		v := *fd.Validation
		if fd.Validation.Min != nil {
			m := *fd.Validation.Min
			v.Min = &m
		}
		if fd.Validation.Max != nil {
			m := *fd.Validation.Max
			v.Max = &m
		}
		if fd.Validation.MinLength != nil {
			m := *fd.Validation.MinLength
			v.MinLength = &m
		}
		if fd.Validation.MaxLength != nil {
			m := *fd.Validation.MaxLength
			v.MaxLength = &m
		}
		out.Validation = &v
	}
	if fd.Options != nil {
		out.Options = append([]Option(nil), fd.Options...)
	}
	if fd.DependsOn != nil {
		out.DependsOn = append([]string(nil), fd.DependsOn...)
	}
	if fd.Condition != nil {
		c := *fd.Condition
		out.Condition = &c
	}
	if fd.Fields != nil {
		out.Fields = make([]FieldDefinition, len(fd.Fields))
		for i := range fd.Fields {
			out.Fields[i] = fd.Fields[i].Clone()
		}
	}
	if fd.ItemFields != nil {
		out.ItemFields = make([]FieldDefinition, len(fd.ItemFields))
		for i := range fd.ItemFields {
			out.ItemFields[i] = fd.ItemFields[i].Clone()
		}
	}
	if fd.ItemDefinition != nil {
		d := fd.ItemDefinition.Clone()
		out.ItemDefinition = &d
	}
	if fd.MinItems != nil {
		m := *fd.MinItems
		out.MinItems = &m
	}
	if fd.MaxItems != nil {
		m := *fd.MaxItems
		out.MaxItems = &m
	}
	return out
}

// IsRequired reports whether the field carries a required rule.
func (fd FieldDefinition) IsRequired() bool {
	return fd.Validation != nil && fd.Validation.Required
}

// DefaultItemValue synthesizes the value a fresh item of the given array
// field starts with: object items collect each item field's DefaultValue
// (fields without defaults are omitted, not null-filled), single-definition
// items use their own default, bare primitives use the item type's zero
// value.
func DefaultItemValue(array FieldDefinition) any {
	switch {
	case len(array.ItemFields) > 0:
		obj := map[string]any{}
		for _, f := range array.ItemFields {
			if f.DefaultValue != nil {
				obj[f.Name] = f.DefaultValue
			}
		}
		return obj
	case array.ItemDefinition != nil:
		if array.ItemDefinition.DefaultValue != nil {
			return array.ItemDefinition.DefaultValue
		}
		return array.ItemDefinition.Type.ZeroValue()
	default:
		return array.ItemType.ZeroValue()
	}
}
