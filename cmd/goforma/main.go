// Command goforma lints and inspects form schema documents.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	goforma "github.com/reoring/goforma"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "lint":
		lintCmd(os.Args[2:])
	case "inspect":
		inspectCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "goforma CLI\n\nUsage:\n  goforma lint <schema.{json,yaml,toml}>\n  goforma inspect <schema.{json,yaml,toml}>\n\nlint exits 1 when the document has issues; inspect prints every field\npath with its type and traits.")
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

func loadSchema(path string) (*goforma.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return goforma.ParseJSON(data)
	case ".yaml", ".yml":
		return goforma.ParseYAML(data)
	case ".toml":
		return goforma.ParseTOML(data)
	default:
		return nil, fmt.Errorf("unsupported schema format %q", filepath.Ext(path))
	}
}

func lintCmd(args []string) {
	fs := flag.NewFlagSet("lint", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	s, err := loadSchema(fs.Arg(0))
	if err != nil {
		iss, ok := goforma.AsIssues(err)
		if !ok {
			fatalf("lint: %v", err)
		}
		for _, it := range iss {
			p := it.Path
			if p == "" {
				p = "(root)"
			}
			line := p + ": " + it.Code
			if it.Message != "" {
				line += " " + it.Message
			}
			fmt.Println(line)
		}
		os.Exit(1)
	}
	fmt.Printf("ok: %d fields\n", len(s.Paths()))
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	s, err := loadSchema(fs.Arg(0))
	if err != nil {
		fatalf("inspect: %v", err)
	}

	if t := s.Title(); t != "" {
		fmt.Printf("title: %s\n", t)
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 8, 2, ' ', 0)
	for _, p := range s.Paths() {
		def, ok := s.FieldAt(p)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p, def.Type, strings.Join(traits(def), " "))
	}
	w.Flush()

	if keys := s.DataSourceKeys(); len(keys) > 0 {
		fmt.Printf("sources: %s\n", strings.Join(keys, ", "))
	}
	info := s.Info()
	var flags []string
	if info.HasAsyncFields {
		flags = append(flags, "async")
	}
	if info.HasConditionalFields {
		flags = append(flags, "conditional")
	}
	if info.HasArrayFields {
		flags = append(flags, "arrays")
	}
	if info.HasNestedObjects {
		flags = append(flags, "nested-objects")
	}
	if len(flags) > 0 {
		fmt.Printf("traits: %s\n", strings.Join(flags, ", "))
	}
}

func traits(def goforma.FieldDefinition) []string {
	var ts []string
	if def.IsRequired() {
		ts = append(ts, "required")
	}
	if def.DataSourceKey != "" {
		t := "async(" + def.DataSourceKey + ")"
		if len(def.DependsOn) > 0 {
			t += " deps=" + strings.Join(def.DependsOn, ",")
		}
		ts = append(ts, t)
	}
	if def.Condition != nil {
		ts = append(ts, "when("+def.Condition.When+")")
	}
	if def.Disabled {
		ts = append(ts, "disabled")
	}
	if def.ReadOnly {
		ts = append(ts, "readonly")
	}
	if def.MinItems != nil {
		ts = append(ts, fmt.Sprintf("min=%d", *def.MinItems))
	}
	if def.MaxItems != nil {
		ts = append(ts, fmt.Sprintf("max=%d", *def.MaxItems))
	}
	return ts
}
