package goforma_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	goforma "github.com/reoring/goforma"
)

func TestFieldTypeTraits(t *testing.T) {
	if !goforma.TypeSelect.Valid() || goforma.FieldType("blob").Valid() {
		t.Fatal("Valid wrong")
	}
	optionBased := []goforma.FieldType{
		goforma.TypeSelect, goforma.TypeMultiSelect, goforma.TypeAutocomplete, goforma.TypeRadio,
	}
	for _, ft := range optionBased {
		if !ft.OptionBased() {
			t.Fatalf("%s should be option-based", ft)
		}
	}
	for _, ft := range []goforma.FieldType{goforma.TypeText, goforma.TypeCheckbox, goforma.TypeArray} {
		if ft.OptionBased() {
			t.Fatalf("%s should not be option-based", ft)
		}
	}
}

func TestZeroValues(t *testing.T) {
	cases := []struct {
		ft   goforma.FieldType
		want any
	}{
		{goforma.TypeText, ""},
		{goforma.TypeNumber, float64(0)},
		{goforma.TypeCheckbox, false},
		{goforma.TypeSwitch, false},
	}
	for _, tc := range cases {
		if got := tc.ft.ZeroValue(); got != tc.want {
			t.Fatalf("%s zero = %v, want %v", tc.ft, got, tc.want)
		}
	}
	if got := goforma.TypeMultiSelect.ZeroValue().([]any); len(got) != 0 {
		t.Fatalf("multiselect zero = %v", got)
	}
	if got := goforma.TypeObject.ZeroValue().(map[string]any); len(got) != 0 {
		t.Fatalf("object zero = %v", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	min := 2
	orig := goforma.FieldDefinition{
		Name: "members", Type: goforma.TypeArray, ItemType: goforma.TypeObject,
		MinItems: &min,
		ItemFields: []goforma.FieldDefinition{
			{
				Name: "city", Type: goforma.TypeSelect,
				Options:    []goforma.Option{{Label: "Tokyo", Value: "tokyo"}},
				DependsOn:  []string{"./country"},
				Condition:  &goforma.Condition{When: "./country", Operator: goforma.OpExists},
				Validation: &goforma.Validation{Required: true, MinLength: intp(1)},
			},
		},
	}

	cl := orig.Clone()
	if diff := cmp.Diff(orig, cl); diff != "" {
		t.Fatalf("clone differs (-orig +clone):\n%s", diff)
	}

	cl.ItemFields[0].Options[0].Label = "Osaka"
	cl.ItemFields[0].DependsOn[0] = "./region"
	cl.ItemFields[0].Condition.When = "./region"
	*cl.ItemFields[0].Validation.MinLength = 99
	*cl.MinItems = 99

	if orig.ItemFields[0].Options[0].Label != "Tokyo" ||
		orig.ItemFields[0].DependsOn[0] != "./country" ||
		orig.ItemFields[0].Condition.When != "./country" ||
		*orig.ItemFields[0].Validation.MinLength != 1 ||
		*orig.MinItems != 2 {
		t.Fatal("clone shares state with the original")
	}
}

func TestIsRequired(t *testing.T) {
	if (goforma.FieldDefinition{}).IsRequired() {
		t.Fatal("no validation should not be required")
	}
	fd := goforma.FieldDefinition{Validation: &goforma.Validation{}}
	if fd.IsRequired() {
		t.Fatal("required false should not be required")
	}
	fd.Validation.Required = true
	if !fd.IsRequired() {
		t.Fatal("required true ignored")
	}
}

func TestDefaultItemValue(t *testing.T) {
	objArray := goforma.FieldDefinition{
		Name: "members", Type: goforma.TypeArray, ItemType: goforma.TypeObject,
		ItemFields: []goforma.FieldDefinition{
			{Name: "name", Type: goforma.TypeText, DefaultValue: "anonymous"},
			{Name: "age", Type: goforma.TypeNumber},
		},
	}
	got := goforma.DefaultItemValue(objArray).(map[string]any)
	if diff := cmp.Diff(map[string]any{"name": "anonymous"}, got); diff != "" {
		t.Fatalf("object item default mismatch (-want +got):\n%s", diff)
	}

	defArray := goforma.FieldDefinition{
		Name: "scores", Type: goforma.TypeArray, ItemType: goforma.TypeNumber,
		ItemDefinition: &goforma.FieldDefinition{Name: "score", Type: goforma.TypeNumber, DefaultValue: float64(50)},
	}
	if got := goforma.DefaultItemValue(defArray); got != float64(50) {
		t.Fatalf("definition item default = %v", got)
	}

	bare := goforma.FieldDefinition{Name: "tags", Type: goforma.TypeArray, ItemType: goforma.TypeText}
	if got := goforma.DefaultItemValue(bare); got != "" {
		t.Fatalf("bare item default = %v", got)
	}
}
