package dsl_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	goforma "github.com/reoring/goforma"
	"github.com/reoring/goforma/dsl"
)

// A schema assembled in code must be indistinguishable from the same
// schema loaded from a document.
func TestBuilderMatchesDocument(t *testing.T) {
	doc := []byte(`{
	  "title": "Signup",
	  "fields": [
	    {"name": "email", "type": "email", "label": "Email", "validation": {"required": true}},
	    {"name": "plan", "type": "select", "defaultValue": "free",
	     "options": [{"label": "Free", "value": "free"}, {"label": "Pro", "value": "pro"}]},
	    {"name": "company", "type": "text",
	     "condition": {"when": "plan", "operator": "eq", "value": "pro"}},
	    {"name": "country", "type": "select", "dataSourceKey": "countries"},
	    {"name": "region", "type": "select", "dataSourceKey": "regions", "dependsOn": ["country"]},
	    {"name": "members", "type": "array", "itemType": "object", "minItems": 1, "maxItems": 5,
	     "itemFields": [
	       {"name": "name", "type": "text", "validation": {"required": true, "minLength": 2}},
	       {"name": "country", "type": "select", "options": [{"label": "Japan", "value": "JP"}]},
	       {"name": "city", "type": "select", "dataSourceKey": "cities", "dependsOn": ["./country"]}
	     ]},
	    {"name": "tags", "type": "array", "itemType": "text"},
	    {"name": "emails", "type": "array", "itemType": "email",
	     "itemDefinition": {"name": "email", "type": "email", "validation": {"required": true}}}
	  ]
	}`)
	fromDoc, err := goforma.ParseJSON(doc)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}

	fromCode, err := dsl.Build(
		dsl.Email("email").Label("Email").Required(),
		dsl.Select("plan").
			Option("Free", "free").
			Option("Pro", "pro").
			Default("free"),
		dsl.Text("company").When("plan", goforma.OpEq, "pro"),
		dsl.Select("country").Source("countries"),
		dsl.Select("region").Source("regions", "country"),
		dsl.ArrayOfObject("members",
			dsl.Text("name").Required().MinLength(2),
			dsl.Select("country").Option("Japan", "JP"),
			dsl.Select("city").Source("cities", "./country"),
		).MinItems(1).MaxItems(5),
		dsl.Array("tags", goforma.TypeText),
		dsl.ArrayOf("emails", dsl.Email("email").Required()),
	)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if diff := cmp.Diff(fromDoc.Fields(), fromCode.Fields()); diff != "" {
		t.Fatalf("definitions differ (-document +code):\n%s", diff)
	}
	if diff := cmp.Diff(fromDoc.Paths(), fromCode.Paths()); diff != "" {
		t.Fatalf("paths differ (-document +code):\n%s", diff)
	}
}

func TestBuildReportsStructuralIssues(t *testing.T) {
	_, err := dsl.Build(
		dsl.Select("plan"),
		dsl.Text("note"),
		dsl.Text("note"),
	)
	if err == nil {
		t.Fatal("expected build to fail")
	}
	iss, ok := goforma.AsIssues(err)
	if !ok {
		t.Fatalf("expected Issues, got %T: %v", err, err)
	}
	byPath := map[string][]string{}
	for _, is := range iss {
		byPath[is.Path] = append(byPath[is.Path], is.Code)
	}
	want := map[string][]string{
		"plan": {goforma.CodeSelectWithoutOptions},
		"note": {goforma.CodeDuplicateName},
	}
	if diff := cmp.Diff(want, byPath); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestMustBuildPanicsOnInvalidFields(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("panic value is %T, want error", r)
		}
		var iss goforma.Issues
		if !errors.As(err, &iss) {
			t.Fatalf("panic error is %T, want Issues", err)
		}
	}()
	dsl.MustBuild(dsl.Select("plan"))
}

func TestUnaryConditionNeedsNoValue(t *testing.T) {
	s := dsl.MustBuild(
		dsl.Text("flag"),
		dsl.Text("note").When("flag", goforma.OpExists, nil),
	)
	def, ok := s.FieldAt("note")
	if !ok {
		t.Fatal("note not found")
	}
	if def.Condition == nil || def.Condition.Operator != goforma.OpExists {
		t.Fatalf("condition = %+v", def.Condition)
	}
	if def.Condition.Value != nil {
		t.Fatalf("unary condition carries value %v", def.Condition.Value)
	}
}

func TestDefinitionReturnsIsolatedCopies(t *testing.T) {
	f := dsl.Text("bio").MinLength(2)
	d1 := f.Definition()
	d2 := f.Definition()
	*d1.Validation.MinLength = 99
	if got := *d2.Validation.MinLength; got != 2 {
		t.Fatalf("second copy saw mutation: minLength = %d", got)
	}
}

// Object and ArrayOfObject copy child definitions when called, so editing
// a child builder afterwards does not reach into the parent.
func TestNestingCapturesChildrenAtCallTime(t *testing.T) {
	street := dsl.Text("street")
	addr := dsl.Object("address", street)
	street.Label("Street")

	s := dsl.MustBuild(addr)
	def, ok := s.FieldAt("address.street")
	if !ok {
		t.Fatal("address.street not found")
	}
	if def.Label != "" {
		t.Fatalf("late label leaked into parent: %q", def.Label)
	}
}
