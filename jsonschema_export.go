package goforma

import (
	js "github.com/reoring/goforma/jsonschema"
)

// JSONSchema projects the field tree onto a JSON Schema document: objects
// and arrays structurally, required lists from validation, enums from static
// options. Conditional visibility and data sources are runtime concerns and
// do not narrow the projection.
func (s *Schema) JSONSchema() *js.Schema {
	root := &js.Schema{Type: "object", Title: s.title}
	root.Properties, root.Required = projectFields(s.fields)
	return root
}

func projectFields(defs []FieldDefinition) (map[string]*js.Schema, []string) {
	if len(defs) == 0 {
		return nil, nil
	}
	props := make(map[string]*js.Schema, len(defs))
	var required []string
	for i := range defs {
		props[defs[i].Name] = projectField(&defs[i])
		if defs[i].IsRequired() {
			required = append(required, defs[i].Name)
		}
	}
	return props, required
}

func projectField(def *FieldDefinition) *js.Schema {
	out := &js.Schema{
		Title:       def.Label,
		Description: def.Description,
		Default:     def.DefaultValue,
	}
	switch def.Type {
	case TypeObject:
		out.Type = "object"
		out.Properties, out.Required = projectFields(def.Fields)
	case TypeArray:
		out.Type = "array"
		out.Items = projectItems(def)
		out.MinItems = def.MinItems
		out.MaxItems = def.MaxItems
	case TypeNumber:
		out.Type = "number"
	case TypeCheckbox, TypeSwitch:
		out.Type = "boolean"
	case TypeMultiSelect:
		out.Type = "array"
		out.Items = &js.Schema{Type: "string", Enum: optionEnum(def.Options)}
	case TypeEmail:
		out.Type = "string"
		out.Format = "email"
	case TypeDate:
		out.Type = "string"
		out.Format = "date"
	case TypeDateTime:
		out.Type = "string"
		out.Format = "date-time"
	case TypeTime:
		out.Type = "string"
		out.Format = "time"
	default:
		out.Type = "string"
	}
	if def.Type.OptionBased() && def.Type != TypeMultiSelect {
		out.Enum = optionEnum(def.Options)
	}
	if v := def.Validation; v != nil {
		out.Pattern = v.Pattern
		switch out.Type {
		case "string":
			out.MinLength = v.MinLength
			out.MaxLength = v.MaxLength
		case "number":
			out.Minimum = v.Min
			out.Maximum = v.Max
		}
	}
	return out
}

func projectItems(def *FieldDefinition) *js.Schema {
	switch {
	case len(def.ItemFields) > 0:
		item := &js.Schema{Type: "object"}
		item.Properties, item.Required = projectFields(def.ItemFields)
		return item
	case def.ItemDefinition != nil:
		return projectField(def.ItemDefinition)
	case def.ItemType != "":
		synth := FieldDefinition{Type: def.ItemType}
		return projectField(&synth)
	default:
		return nil
	}
}

func optionEnum(opts []Option) []any {
	if len(opts) == 0 {
		return nil
	}
	out := make([]any, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}
