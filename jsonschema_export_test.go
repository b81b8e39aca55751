package goforma_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	goforma "github.com/reoring/goforma"
	js "github.com/reoring/goforma/jsonschema"
)

func TestJSONSchemaProjection(t *testing.T) {
	s, err := goforma.NewSchema(
		goforma.FieldDefinition{
			Name: "email", Type: goforma.TypeEmail, Label: "Email",
			Validation: &goforma.Validation{Required: true},
		},
		goforma.FieldDefinition{
			Name: "age", Type: goforma.TypeNumber,
			Validation: &goforma.Validation{Min: floatp(18), Max: floatp(130)},
		},
		goforma.FieldDefinition{
			Name: "plan", Type: goforma.TypeSelect,
			Options:      opts("free", "pro"),
			DefaultValue: "free",
		},
		goforma.FieldDefinition{Name: "newsletter", Type: goforma.TypeSwitch},
		goforma.FieldDefinition{
			Name: "handle", Type: goforma.TypeText,
			Validation: &goforma.Validation{MinLength: intp(3), MaxLength: intp(20), Pattern: "^[a-z]+$"},
		},
	)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}

	got := s.JSONSchema()
	want := &js.Schema{
		Type: "object",
		Properties: map[string]*js.Schema{
			"email":      {Type: "string", Format: "email", Title: "Email"},
			"age":        {Type: "number", Minimum: floatp(18), Maximum: floatp(130)},
			"plan":       {Type: "string", Enum: []any{"free", "pro"}, Default: "free"},
			"newsletter": {Type: "boolean"},
			"handle":     {Type: "string", MinLength: intp(3), MaxLength: intp(20), Pattern: "^[a-z]+$"},
		},
		Required: []string{"email"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("projection mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONSchemaNestedContainers(t *testing.T) {
	s, err := goforma.NewSchema(
		goforma.FieldDefinition{
			Name: "members", Type: goforma.TypeArray, ItemType: goforma.TypeObject,
			MinItems: intp(1), MaxItems: intp(5),
			ItemFields: []goforma.FieldDefinition{
				{Name: "name", Type: goforma.TypeText, Validation: &goforma.Validation{Required: true}},
				{Name: "age", Type: goforma.TypeNumber},
			},
		},
		goforma.FieldDefinition{Name: "tags", Type: goforma.TypeArray, ItemType: goforma.TypeText},
		goforma.FieldDefinition{
			Name: "languages", Type: goforma.TypeMultiSelect,
			Options: opts("go", "rust"),
		},
		goforma.FieldDefinition{
			Name: "address", Type: goforma.TypeObject,
			Fields: []goforma.FieldDefinition{
				{Name: "street", Type: goforma.TypeText},
			},
		},
	)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}

	got := s.JSONSchema()
	members := got.Properties["members"]
	if members.Type != "array" || *members.MinItems != 1 || *members.MaxItems != 5 {
		t.Fatalf("members = %+v", members)
	}
	if members.Items.Type != "object" {
		t.Fatalf("members items = %+v", members.Items)
	}
	if diff := cmp.Diff([]string{"name"}, members.Items.Required); diff != "" {
		t.Fatalf("members required mismatch (-want +got):\n%s", diff)
	}
	if got.Properties["tags"].Items.Type != "string" {
		t.Fatalf("tags items = %+v", got.Properties["tags"].Items)
	}
	langs := got.Properties["languages"]
	if langs.Type != "array" || langs.Items == nil {
		t.Fatalf("languages = %+v", langs)
	}
	if diff := cmp.Diff([]any{"go", "rust"}, langs.Items.Enum); diff != "" {
		t.Fatalf("languages enum mismatch (-want +got):\n%s", diff)
	}
	if got.Properties["address"].Properties["street"].Type != "string" {
		t.Fatalf("address = %+v", got.Properties["address"])
	}
}

// Runtime concerns stay out of the projection: a conditional field appears
// unconditionally and an async select carries no enum.
func TestJSONSchemaIgnoresRuntimeConcerns(t *testing.T) {
	s, err := goforma.NewSchema(
		goforma.FieldDefinition{Name: "plan", Type: goforma.TypeSelect, Options: opts("free", "pro")},
		goforma.FieldDefinition{
			Name: "company", Type: goforma.TypeText,
			Condition: &goforma.Condition{When: "plan", Operator: goforma.OpEq, Value: "pro"},
		},
		goforma.FieldDefinition{Name: "country", Type: goforma.TypeSelect, DataSourceKey: "countries"},
	)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	got := s.JSONSchema()
	if got.Properties["company"] == nil {
		t.Fatal("conditional field dropped from projection")
	}
	if got.Properties["country"].Enum != nil {
		t.Fatalf("async select should have no enum, got %v", got.Properties["country"].Enum)
	}
}
