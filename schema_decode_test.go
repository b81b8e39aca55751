package goforma_test

import (
	"testing"
	"time"

	goforma "github.com/reoring/goforma"
)

func TestParseJSONDocument(t *testing.T) {
	s, err := goforma.ParseJSON([]byte(`{
	  "title": "Checkout",
	  "fields": [
	    {"name": "country", "type": "select", "dataSourceKey": "countries"},
	    {"name": "region", "type": "select", "dataSourceKey": "regions",
	     "dependsOn": ["country"]}
	  ],
	  "sources": {
	    "regions": {"staleTime": "45s", "debounce": 150}
	  }
	}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if s.Title() != "Checkout" {
		t.Fatalf("title = %q", s.Title())
	}
	tune, ok := s.SourceTuning("regions")
	if !ok {
		t.Fatal("regions tuning missing")
	}
	if tune.StaleTime.Std() != 45*time.Second {
		t.Fatalf("staleTime = %v", tune.StaleTime.Std())
	}
	if tune.Debounce.Std() != 150*time.Millisecond {
		t.Fatalf("debounce = %v", tune.Debounce.Std())
	}
	if _, ok := s.SourceTuning("countries"); ok {
		t.Fatal("countries should have no tuning")
	}
}

func TestParseYAMLDocument(t *testing.T) {
	s, err := goforma.ParseYAML([]byte(`
title: Profile
fields:
  - name: handle
    type: text
    validation:
      required: true
      minLength: 3
  - name: languages
    type: multiselect
    options:
      - {label: Go, value: go}
      - {label: Rust, value: rust}
sources:
  search:
    debounce: 200ms
`))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	def, ok := s.FieldAt("handle")
	if !ok || def.Validation == nil || !def.Validation.Required || *def.Validation.MinLength != 3 {
		t.Fatalf("handle = %+v, %v", def, ok)
	}
	tune, _ := s.SourceTuning("search")
	if tune.Debounce.Std() != 200*time.Millisecond {
		t.Fatalf("debounce = %v", tune.Debounce.Std())
	}
}

func TestParseTOMLDocument(t *testing.T) {
	s, err := goforma.ParseTOML([]byte(`
title = "Survey"

[[fields]]
name = "satisfaction"
type = "radio"

  [[fields.options]]
  label = "Happy"
  value = "happy"

  [[fields.options]]
  label = "Meh"
  value = "meh"

[sources.answers]
staleTime = "1m"
`))
	if err != nil {
		t.Fatalf("ParseTOML: %v", err)
	}
	def, ok := s.FieldAt("satisfaction")
	if !ok || len(def.Options) != 2 || def.Options[1].Value != "meh" {
		t.Fatalf("satisfaction = %+v, %v", def, ok)
	}
	tune, _ := s.SourceTuning("answers")
	if tune.StaleTime.Std() != time.Minute {
		t.Fatalf("staleTime = %v", tune.StaleTime.Std())
	}
}

func TestMalformedDocumentsReportParseError(t *testing.T) {
	cases := map[string]func([]byte) (*goforma.Schema, error){
		"json": goforma.ParseJSON,
		"yaml": goforma.ParseYAML,
		"toml": goforma.ParseTOML,
	}
	bad := map[string][]byte{
		"json": []byte(`{"fields": [`),
		"yaml": []byte("fields:\n  - name: [broken"),
		"toml": []byte(`fields = {{`),
	}
	for format, parse := range cases {
		_, err := parse(bad[format])
		iss, ok := goforma.AsIssues(err)
		if !ok {
			t.Fatalf("%s: expected Issues, got %T: %v", format, err, err)
		}
		if len(iss) != 1 || iss[0].Code != goforma.CodeParseError || iss[0].Path != "" {
			t.Fatalf("%s: issues = %+v", format, iss)
		}
		if iss[0].Cause == nil {
			t.Fatalf("%s: parse issue lost its cause", format)
		}
	}
}

func TestDocumentsShareConstructionRules(t *testing.T) {
	_, err := goforma.ParseJSON([]byte(`{
	  "fields": [{"name": "plan", "type": "select"}]
	}`))
	iss, ok := goforma.AsIssues(err)
	if !ok {
		t.Fatalf("expected Issues, got %T: %v", err, err)
	}
	if !hasCode(iss, "plan", goforma.CodeSelectWithoutOptions) {
		t.Fatalf("issues = %+v", iss)
	}
}

func TestDurationForms(t *testing.T) {
	s, err := goforma.ParseJSON([]byte(`{
	  "fields": [{"name": "q", "type": "autocomplete", "dataSourceKey": "search"}],
	  "sources": {"search": {"staleTime": 30000, "debounce": "250ms"}}
	}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	tune, _ := s.SourceTuning("search")
	if tune.StaleTime.Std() != 30*time.Second {
		t.Fatalf("numeric staleTime = %v", tune.StaleTime.Std())
	}
	if tune.Debounce.Std() != 250*time.Millisecond {
		t.Fatalf("string debounce = %v", tune.Debounce.Std())
	}

	if _, err := goforma.ParseJSON([]byte(`{
	  "fields": [{"name": "q", "type": "text"}],
	  "sources": {"search": {"debounce": "fast"}}
	}`)); err == nil {
		t.Fatal("unparseable duration accepted")
	}
}
