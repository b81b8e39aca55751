// Package validate compiles a schema into a value-tree validator. Compile
// resolves custom hooks and builds every regex once; SafeParse then walks a
// value snapshot against the compiled form, reporting all violations as
// path-qualified issues.
package validate

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cast"

	goforma "github.com/reoring/goforma"
	"github.com/reoring/goforma/i18n"
)

// CustomFunc is a named validation hook. nil passes; the error text becomes
// the issue message.
type CustomFunc func(value any) error

type config struct {
	custom map[string]CustomFunc
}

// Option configures compilation.
type Option func(*config)

// WithCustom supplies the hooks referenced by validation.custom keys.
func WithCustom(m map[string]CustomFunc) Option {
	return func(c *config) { c.custom = m }
}

// Validator is a compiled schema.
type Validator struct {
	fields  []goforma.FieldDefinition
	custom  map[string]CustomFunc
	regexes map[string]*regexp.Regexp
}

// Result is one validation outcome. Issues are sorted by path, then code.
type Result struct {
	Valid  bool
	Issues goforma.Issues
}

// Compile builds a validator for a constructed schema. It fails when the
// schema names a custom validator the options do not supply, so the gap
// surfaces at form construction rather than at first submit.
func Compile(s *goforma.Schema, opts ...Option) (*Validator, error) {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	v := &Validator{
		fields:  s.Fields(),
		custom:  cfg.custom,
		regexes: map[string]*regexp.Regexp{},
	}
	var err error
	walkDefs(v.fields, func(def *goforma.FieldDefinition) {
		if def.Validation == nil {
			return
		}
		if p := def.Validation.Pattern; p != "" {
			if _, ok := v.regexes[p]; !ok {
				re, cerr := regexp.Compile(p)
				if cerr != nil && err == nil {
					err = cerr
				}
				if cerr == nil {
					v.regexes[p] = re
				}
			}
		}
		if key := def.Validation.Custom; key != "" {
			if _, ok := cfg.custom[key]; !ok && err == nil {
				err = fmt.Errorf("goforma: custom validator %q is not supplied", key)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func walkDefs(defs []goforma.FieldDefinition, fn func(*goforma.FieldDefinition)) {
	for i := range defs {
		def := &defs[i]
		fn(def)
		walkDefs(def.Fields, fn)
		walkDefs(def.ItemFields, fn)
		if def.ItemDefinition != nil {
			fn(def.ItemDefinition)
			walkDefs(def.ItemDefinition.Fields, fn)
			walkDefs(def.ItemDefinition.ItemFields, fn)
		}
	}
}

// SafeParse validates a value tree. Values are never mutated; hidden-but-
// populated fields validate like any other (visibility is a rendering
// concern, not a validation one).
func (v *Validator) SafeParse(ctx context.Context, values map[string]any) Result {
	w := &walk{v: v, root: values}
	w.siblings("", v.fields)
	sort.SliceStable(w.iss, func(i, j int) bool {
		if w.iss[i].Path != w.iss[j].Path {
			return w.iss[i].Path < w.iss[j].Path
		}
		return w.iss[i].Code < w.iss[j].Code
	})
	return Result{Valid: len(w.iss) == 0, Issues: w.iss}
}

type walk struct {
	v    *Validator
	root map[string]any
	iss  goforma.Issues
}

func (w *walk) issue(path, code string, params map[string]any) {
	w.iss = goforma.AppendIssues(w.iss, goforma.Issue{
		Path:    path,
		Code:    code,
		Message: i18n.T(code, nil),
		Params:  params,
	})
}

func (w *walk) siblings(base string, defs []goforma.FieldDefinition) {
	for i := range defs {
		w.field(goforma.JoinPath(base, defs[i].Name), &defs[i])
	}
}

func (w *walk) field(path string, def *goforma.FieldDefinition) {
	val, found := goforma.ValueAtPath(w.root, path)
	switch def.Type {
	case goforma.TypeObject:
		if !found || val == nil {
			if def.IsRequired() {
				w.issue(path, goforma.CodeRequired, nil)
			}
			return
		}
		if _, ok := val.(map[string]any); !ok {
			w.issue(path, goforma.CodeInvalidType, map[string]any{"expected": "object"})
			return
		}
		w.siblings(path, def.Fields)
	case goforma.TypeArray:
		w.array(path, def, val, found)
	default:
		w.value(path, def, val, found)
	}
}

func (w *walk) array(path string, def *goforma.FieldDefinition, val any, found bool) {
	if !found || val == nil {
		if def.IsRequired() || (def.MinItems != nil && *def.MinItems > 0) {
			w.issue(path, goforma.CodeRequired, nil)
		}
		return
	}
	arr, ok := val.([]any)
	if !ok {
		w.issue(path, goforma.CodeInvalidType, map[string]any{"expected": "array"})
		return
	}
	if def.MinItems != nil && len(arr) < *def.MinItems {
		w.issue(path, goforma.CodeTooShort, map[string]any{"minItems": *def.MinItems, "len": len(arr)})
	}
	if def.MaxItems != nil && len(arr) > *def.MaxItems {
		w.issue(path, goforma.CodeTooLong, map[string]any{"maxItems": *def.MaxItems, "len": len(arr)})
	}
	for idx := range arr {
		itemPath := path + "." + strconv.Itoa(idx)
		switch {
		case len(def.ItemFields) > 0:
			if arr[idx] != nil {
				if _, ok := arr[idx].(map[string]any); !ok {
					w.issue(itemPath, goforma.CodeInvalidType, map[string]any{"expected": "object"})
					continue
				}
			}
			w.siblings(itemPath, def.ItemFields)
		case def.ItemDefinition != nil:
			w.field(itemPath, def.ItemDefinition)
		default:
			synth := goforma.FieldDefinition{Type: def.ItemType}
			w.value(itemPath, &synth, arr[idx], true)
		}
	}
}

// value applies the scalar checks: required on empties, then type, bounds,
// length, pattern, format and enum, then the custom hook.
func (w *walk) value(path string, def *goforma.FieldDefinition, val any, found bool) {
	if isEmpty(val, found) {
		if def.IsRequired() {
			w.issue(path, goforma.CodeRequired, nil)
		}
		return
	}

	switch def.Type {
	case goforma.TypeNumber:
		n, ok := asNumber(val)
		if !ok {
			w.issue(path, goforma.CodeInvalidType, map[string]any{"expected": "number"})
			return
		}
		if v := def.Validation; v != nil {
			if v.Min != nil && n < *v.Min {
				w.issue(path, goforma.CodeTooSmall, map[string]any{"min": *v.Min})
			}
			if v.Max != nil && n > *v.Max {
				w.issue(path, goforma.CodeTooBig, map[string]any{"max": *v.Max})
			}
		}
	case goforma.TypeCheckbox, goforma.TypeSwitch:
		b, ok := val.(bool)
		if !ok {
			w.issue(path, goforma.CodeInvalidType, map[string]any{"expected": "boolean"})
			return
		}
		// a required toggle must be on, not merely set
		if def.IsRequired() && !b {
			w.issue(path, goforma.CodeRequired, nil)
		}
	case goforma.TypeMultiSelect:
		items, ok := val.([]any)
		if !ok {
			w.issue(path, goforma.CodeInvalidType, map[string]any{"expected": "array"})
			return
		}
		w.enumList(path, def, items)
	case goforma.TypeSelect, goforma.TypeRadio:
		w.enum(path, def, val)
	case goforma.TypeEmail:
		if s, ok := w.str(path, def, val); ok && !emailRe.MatchString(s) {
			w.issue(path, goforma.CodeInvalidFormat, map[string]any{"format": "email"})
		}
	case goforma.TypeDate:
		w.timeFormat(path, val, "date", "2006-01-02")
	case goforma.TypeTime:
		w.timeFormat(path, val, "time", "15:04:05", "15:04")
	case goforma.TypeDateTime:
		w.timeFormat(path, val, "datetime", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04")
	case goforma.TypeText, goforma.TypePassword, goforma.TypeTextarea, goforma.TypeAutocomplete:
		w.str(path, def, val)
	}

	if def.Validation != nil && def.Validation.Custom != "" {
		if fn := w.v.custom[def.Validation.Custom]; fn != nil {
			if err := fn(val); err != nil {
				w.iss = goforma.AppendIssues(w.iss, goforma.Issue{
					Path:    path,
					Code:    goforma.CodeCustom,
					Message: err.Error(),
					Params:  map[string]any{"validator": def.Validation.Custom},
				})
			}
		}
	}
}

// str applies the checks shared by text-like types. Lengths count runes, so
// multibyte input is bounded by characters, not bytes.
func (w *walk) str(path string, def *goforma.FieldDefinition, val any) (string, bool) {
	s, ok := val.(string)
	if !ok {
		w.issue(path, goforma.CodeInvalidType, map[string]any{"expected": "string"})
		return "", false
	}
	v := def.Validation
	if v == nil {
		return s, true
	}
	n := len([]rune(s))
	if v.MinLength != nil && n < *v.MinLength {
		w.issue(path, goforma.CodeTooShort, map[string]any{"minLength": *v.MinLength})
	}
	if v.MaxLength != nil && n > *v.MaxLength {
		w.issue(path, goforma.CodeTooLong, map[string]any{"maxLength": *v.MaxLength})
	}
	if v.Pattern != "" {
		if re := w.v.regexes[v.Pattern]; re != nil && !re.MatchString(s) {
			w.issue(path, goforma.CodePattern, map[string]any{"pattern": v.Pattern})
		}
	}
	return s, true
}

// enum checks membership in the static options. Source-backed fields skip
// it: their option set is not knowable without fetching.
func (w *walk) enum(path string, def *goforma.FieldDefinition, val any) {
	if def.DataSourceKey != "" || len(def.Options) == 0 {
		return
	}
	for _, o := range def.Options {
		if equal(o.Value, val) {
			return
		}
	}
	w.issue(path, goforma.CodeInvalidEnum, map[string]any{"value": val})
}

func (w *walk) enumList(path string, def *goforma.FieldDefinition, items []any) {
	if def.DataSourceKey != "" || len(def.Options) == 0 {
		return
	}
	for i, it := range items {
		hit := false
		for _, o := range def.Options {
			if equal(o.Value, it) {
				hit = true
				break
			}
		}
		if !hit {
			w.issue(path+"."+strconv.Itoa(i), goforma.CodeInvalidEnum, map[string]any{"value": it})
		}
	}
}

func (w *walk) timeFormat(path string, val any, format string, layouts ...string) {
	s, ok := val.(string)
	if !ok {
		w.issue(path, goforma.CodeInvalidType, map[string]any{"expected": "string"})
		return
	}
	for _, layout := range layouts {
		if _, err := time.Parse(layout, s); err == nil {
			return
		}
	}
	w.issue(path, goforma.CodeInvalidFormat, map[string]any{"format": format})
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func isEmpty(val any, found bool) bool {
	if !found || val == nil {
		return true
	}
	switch x := val.(type) {
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	}
	return false
}

func asNumber(v any) (float64, bool) {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return cast.ToFloat64(v), true
	}
	return 0, false
}

// equal compares numerically when both sides are numbers, else deeply.
func equal(a, b any) bool {
	if af, aok := asNumber(a); aok {
		bf, bok := asNumber(b)
		return bok && af == bf
	}
	return reflect.DeepEqual(a, b)
}
