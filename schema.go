package goforma

import (
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/reoring/goforma/i18n"
)

// Schema is a validated, immutable form definition. Construction walks the
// whole tree once: structural invariants are checked, every field is indexed
// by its template path, and the dependency edges used for targeted
// invalidation (condition when-paths and data-source dependsOn paths) are
// collected up front. A *Schema that came back without issues never fails
// later for structural reasons.
type Schema struct {
	fields []FieldDefinition
	title  string
	tuning map[string]SourceTuning

	byTemplate map[string]FieldDefinition
	templates  []string
	typesUsed  map[FieldType]struct{}

	// conditionEdges: when-pattern -> templates of fields gated by it.
	// dataEdges: dependency-pattern -> templates of fetching fields fed by it.
	// Patterns are templates ("members[].role") or literal paths ("country").
	conditionEdges map[string][]string
	dataEdges      map[string][]string

	info SchemaInfo
}

// SchemaInfo summarizes structural traits, used by hosts to pre-validate a
// renderer registry before rendering.
type SchemaInfo struct {
	HasAsyncFields       bool
	HasConditionalFields bool
	HasArrayFields       bool
	HasNestedObjects     bool
}

// NewSchema validates field definitions and builds the runtime model.
// Violations are returned as Issues with template-qualified paths; the
// schema is unusable in that case.
func NewSchema(fields ...FieldDefinition) (*Schema, error) {
	s := &Schema{
		fields:         make([]FieldDefinition, len(fields)),
		byTemplate:     map[string]FieldDefinition{},
		typesUsed:      map[FieldType]struct{}{},
		conditionEdges: map[string][]string{},
		dataEdges:      map[string][]string{},
	}
	for i := range fields {
		s.fields[i] = fields[i].Clone()
	}
	w := &schemaWalk{s: s}
	w.siblings("", nil, s.fields)
	w.checkDeps()
	if len(w.iss) > 0 {
		return nil, w.iss
	}
	for k := range s.conditionEdges {
		s.conditionEdges[k] = dedupSorted(s.conditionEdges[k])
	}
	for k := range s.dataEdges {
		s.dataEdges[k] = dedupSorted(s.dataEdges[k])
	}
	return s, nil
}

// Fields returns the top-level definitions in schema order. The slice is a
// deep copy; mutating it does not affect the schema.
func (s *Schema) Fields() []FieldDefinition {
	out := make([]FieldDefinition, len(s.fields))
	for i := range s.fields {
		out[i] = s.fields[i].Clone()
	}
	return out
}

// FieldAt looks a definition up by template path ("members[].email").
func (s *Schema) FieldAt(template string) (FieldDefinition, bool) {
	def, ok := s.byTemplate[template]
	if !ok {
		return FieldDefinition{}, false
	}
	return def.Clone(), true
}

// Paths lists every field template in depth-first schema order.
func (s *Schema) Paths() []string {
	return append([]string(nil), s.templates...)
}

// Info reports the structural trait flags.
func (s *Schema) Info() SchemaInfo { return s.info }

// Title returns the document title, empty for schemas built in code.
func (s *Schema) Title() string { return s.title }

// SourceTuning returns the document-level timing overrides for a source key.
func (s *Schema) SourceTuning(key string) (SourceTuning, bool) {
	t, ok := s.tuning[key]
	return t, ok
}

// FieldTypes returns the sorted set of field types the schema uses,
// including primitive array item types.
func (s *Schema) FieldTypes() []FieldType {
	out := make([]FieldType, 0, len(s.typesUsed))
	for t := range s.typesUsed {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DataSourceKeys returns the sorted set of data source keys the schema
// references.
func (s *Schema) DataSourceKeys() []string {
	seen := map[string]struct{}{}
	for _, t := range s.templates {
		if def := s.byTemplate[t]; def.DataSourceKey != "" {
			seen[def.DataSourceKey] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Edges returns copies of the dependency edges: condition when-patterns and
// data-source dependency patterns, each mapped to the dependent field
// templates. The form engine snapshots these once per session.
func (s *Schema) Edges() (conditions, data map[string][]string) {
	return copyEdges(s.conditionEdges), copyEdges(s.dataEdges)
}

// TemplateFor maps a concrete value path ("members.2.email") onto its
// schema template ("members[].email"). It fails when the path does not
// follow the schema shape.
func (s *Schema) TemplateFor(path string) (string, bool) {
	segs := SplitPath(path)
	if len(segs) == 0 {
		return "", false
	}
	defs := s.fields
	b := &strings.Builder{}
	i := 0
	for i < len(segs) {
		var def *FieldDefinition
		for j := range defs {
			if defs[j].Name == segs[i] {
				def = &defs[j]
				break
			}
		}
		if def == nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(segs[i])
		i++
		var ok bool
		defs, ok = descend(def, segs, &i, b)
		if !ok {
			return "", false
		}
	}
	return b.String(), true
}

// descend consumes index segments for arrays and positions the walk at the
// children of def, writing template markers as it goes.
func descend(def *FieldDefinition, segs []string, i *int, b *strings.Builder) ([]FieldDefinition, bool) {
	switch def.Type {
	case TypeObject:
		return def.Fields, true
	case TypeArray:
		if *i >= len(segs) {
			return nil, true
		}
		if _, numeric := tryParseIndex(segs[*i]); !numeric {
			return nil, false
		}
		b.WriteString(itemMarker)
		*i++
		if def.ItemFields != nil {
			return def.ItemFields, true
		}
		if def.ItemDefinition != nil {
			return descend(def.ItemDefinition, segs, i, b)
		}
		// bare primitive items have no children
		return nil, true
	default:
		return nil, true
	}
}

// ---- construction walk ----

type schemaWalk struct {
	s   *Schema
	iss Issues
	// deferred dependency existence checks, run after the whole tree is
	// indexed so forward references work
	deps []depCheck
}

type depCheck struct {
	fieldPath string
	declared  string
	pattern   string
	relative  bool
}

func (w *schemaWalk) issue(path, code, hint string, params map[string]any) {
	w.iss = AppendIssues(w.iss, Issue{
		Path:    path,
		Code:    code,
		Message: i18n.T(code, nil),
		Hint:    hint,
		Params:  params,
	})
}

func (w *schemaWalk) siblings(base string, scopes []string, defs []FieldDefinition) {
	seen := map[string]struct{}{}
	for i := range defs {
		def := &defs[i]
		path := JoinPath(base, def.Name)
		if def.Name == "" {
			path = JoinPath(base, "#"+strconv.Itoa(i))
			w.issue(path, CodeMissingName, "every field needs a name", nil)
		} else if !validFieldName(def.Name) {
			w.issue(path, CodeInvalidName, "names must not contain path syntax or be numeric", map[string]any{"name": def.Name})
		} else if _, dup := seen[def.Name]; dup {
			w.issue(path, CodeDuplicateName, "sibling names must be unique", map[string]any{"name": def.Name})
		} else {
			seen[def.Name] = struct{}{}
		}
		w.field(path, def, scopes)
	}
}

// field validates one definition and recurses. Item definitions reuse it at
// the array's [] scope; their names are synthesized from indices later.
func (w *schemaWalk) field(path string, def *FieldDefinition, scopes []string) {
	w.s.byTemplate[path] = *def
	w.s.templates = append(w.s.templates, path)

	if !def.Type.Valid() {
		w.issue(path, CodeInvalidType, "", map[string]any{"type": string(def.Type)})
		return
	}
	w.s.typesUsed[def.Type] = struct{}{}

	switch def.Type {
	case TypeObject:
		w.s.info.HasNestedObjects = true
		if len(def.Fields) == 0 {
			w.issue(path, CodeObjectWithoutFields, "", nil)
		}
	case TypeArray:
		w.s.info.HasArrayFields = true
		w.arrayShape(path, def, scopes)
	default:
		if len(def.Fields) > 0 {
			w.issue(path, CodeInvalidShape, "fields requires type object", nil)
		}
		if def.ItemType != "" || def.ItemFields != nil || def.ItemDefinition != nil ||
			def.MinItems != nil || def.MaxItems != nil {
			w.issue(path, CodeInvalidShape, "item settings require type array", nil)
		}
	}

	if def.Type.OptionBased() && def.Type != TypeAutocomplete &&
		len(def.Options) == 0 && def.DataSourceKey == "" {
		w.issue(path, CodeSelectWithoutOptions, "", map[string]any{"type": string(def.Type)})
	}

	w.validation(path, def)
	w.condition(path, def, scopes)
	w.dependencies(path, def, scopes)

	if def.DataSourceKey != "" {
		w.s.info.HasAsyncFields = true
	}

	switch def.Type {
	case TypeObject:
		w.siblings(path, scopes, def.Fields)
	case TypeArray:
		itemT := path + itemMarker
		itemScopes := append(append([]string(nil), scopes...), itemT)
		switch {
		case len(def.ItemFields) > 0:
			w.s.byTemplate[itemT] = FieldDefinition{Name: def.Name, Type: TypeObject, Fields: def.ItemFields}
			w.s.templates = append(w.s.templates, itemT)
			w.siblings(itemT, itemScopes, def.ItemFields)
		case def.ItemDefinition != nil:
			w.field(itemT, def.ItemDefinition, itemScopes)
		case def.ItemType != "":
			w.s.byTemplate[itemT] = FieldDefinition{Name: def.Name, Type: def.ItemType}
			w.s.templates = append(w.s.templates, itemT)
			w.s.typesUsed[def.ItemType] = struct{}{}
		}
	}
}

func (w *schemaWalk) arrayShape(path string, def *FieldDefinition, scopes []string) {
	switch {
	case def.ItemType == "":
		w.issue(path, CodeArrayWithoutItemType, "", nil)
	case !def.ItemType.Valid():
		w.issue(path, CodeInvalidType, "", map[string]any{"itemType": string(def.ItemType)})
	}
	if def.ItemFields != nil && def.ItemDefinition != nil {
		w.issue(path, CodeInvalidShape, "itemFields and itemDefinition are mutually exclusive", nil)
	}
	if def.ItemType == TypeObject && len(def.ItemFields) == 0 && def.ItemDefinition == nil {
		w.issue(path+itemMarker, CodeObjectWithoutFields, "object items need itemFields", nil)
	}
	if def.MinItems != nil && *def.MinItems < 0 {
		w.issue(path, CodeInvalidBounds, "minItems must be >= 0", map[string]any{"minItems": *def.MinItems})
	}
	if def.MaxItems != nil && *def.MaxItems < 0 {
		w.issue(path, CodeInvalidBounds, "maxItems must be >= 0", map[string]any{"maxItems": *def.MaxItems})
	}
	if def.MinItems != nil && def.MaxItems != nil && *def.MaxItems < *def.MinItems {
		w.issue(path, CodeInvalidBounds, "maxItems must be >= minItems",
			map[string]any{"minItems": *def.MinItems, "maxItems": *def.MaxItems})
	}
}

func (w *schemaWalk) validation(path string, def *FieldDefinition) {
	v := def.Validation
	if v == nil {
		return
	}
	if v.Pattern != "" {
		if _, err := regexp.Compile(v.Pattern); err != nil {
			w.iss = AppendIssues(w.iss, Issue{
				Path:    path,
				Code:    CodeInvalidPattern,
				Message: i18n.T(CodeInvalidPattern, nil),
				Cause:   err,
				Params:  map[string]any{"pattern": v.Pattern},
			})
		}
	}
	if v.MinLength != nil && *v.MinLength < 0 {
		w.issue(path, CodeInvalidBounds, "minLength must be >= 0", map[string]any{"minLength": *v.MinLength})
	}
	if v.MaxLength != nil && *v.MaxLength < 0 {
		w.issue(path, CodeInvalidBounds, "maxLength must be >= 0", map[string]any{"maxLength": *v.MaxLength})
	}
	if v.MinLength != nil && v.MaxLength != nil && *v.MaxLength < *v.MinLength {
		w.issue(path, CodeInvalidBounds, "maxLength must be >= minLength",
			map[string]any{"minLength": *v.MinLength, "maxLength": *v.MaxLength})
	}
	if v.Min != nil && v.Max != nil && *v.Max < *v.Min {
		w.issue(path, CodeInvalidBounds, "max must be >= min",
			map[string]any{"min": *v.Min, "max": *v.Max})
	}
}

func (w *schemaWalk) condition(path string, def *FieldDefinition, scopes []string) {
	c := def.Condition
	if c == nil {
		return
	}
	w.s.info.HasConditionalFields = true
	if c.When == "" {
		w.issue(path, CodeInvalidCondition, "when is required", nil)
		return
	}
	if strings.HasPrefix(c.When, "../") {
		w.issue(path, CodeInvalidCondition, "parent-relative paths are not supported", map[string]any{"when": c.When})
		return
	}
	if !c.Operator.Valid() {
		w.issue(path, CodeInvalidCondition, "unknown operator", map[string]any{"operator": string(c.Operator)})
		return
	}
	if c.Operator.NeedsList() && !isList(c.Value) {
		w.issue(path, CodeInvalidCondition, "operator requires an array value", map[string]any{"operator": string(c.Operator)})
		return
	}
	pattern := c.When
	if IsItemRelative(c.When) {
		if len(scopes) == 0 {
			w.issue(path, CodeInvalidCondition, "item-relative when outside an array item", map[string]any{"when": c.When})
			return
		}
		pattern = scopes[len(scopes)-1] + "." + TrimItemRelative(c.When)
	} else if strings.Contains(c.When, itemMarker) {
		w.issue(path, CodeInvalidCondition, "when must not contain []; use ./ inside array items", map[string]any{"when": c.When})
		return
	}
	w.s.conditionEdges[pattern] = append(w.s.conditionEdges[pattern], path)
}

func (w *schemaWalk) dependencies(path string, def *FieldDefinition, scopes []string) {
	for _, dep := range def.DependsOn {
		switch {
		case dep == "":
			w.issue(path, CodeInvalidDependency, "empty dependency path", nil)
			continue
		case strings.HasPrefix(dep, "../"):
			w.issue(path, CodeInvalidDependency, "parent-relative paths are not supported", map[string]any{"dependsOn": dep})
			continue
		}
		if IsItemRelative(dep) {
			if len(scopes) == 0 {
				w.issue(path, CodeInvalidDependency, "item-relative dependency outside an array item", map[string]any{"dependsOn": dep})
				continue
			}
			pattern := scopes[len(scopes)-1] + "." + TrimItemRelative(dep)
			w.deps = append(w.deps, depCheck{fieldPath: path, declared: dep, pattern: pattern, relative: true})
			continue
		}
		if strings.Contains(dep, itemMarker) {
			w.issue(path, CodeInvalidDependency, "dependency must not contain []; use ./ inside array items", map[string]any{"dependsOn": dep})
			continue
		}
		w.deps = append(w.deps, depCheck{fieldPath: path, declared: dep, pattern: dep})
	}
}

// checkDeps runs after the walk so dependencies may reference fields declared
// later in the document.
func (w *schemaWalk) checkDeps() {
	for _, dc := range w.deps {
		if dc.relative {
			if _, ok := w.s.byTemplate[dc.pattern]; !ok {
				w.issue(dc.fieldPath, CodeInvalidDependency, "unknown sibling field", map[string]any{"dependsOn": dc.declared})
				continue
			}
		} else if _, ok := w.s.TemplateFor(dc.pattern); !ok {
			w.issue(dc.fieldPath, CodeInvalidDependency, "unknown field path", map[string]any{"dependsOn": dc.declared})
			continue
		}
		if dc.pattern == dc.fieldPath {
			w.issue(dc.fieldPath, CodeInvalidDependency, "field cannot depend on itself", map[string]any{"dependsOn": dc.declared})
			continue
		}
		def := w.s.byTemplate[dc.fieldPath]
		if def.DataSourceKey != "" {
			w.s.dataEdges[dc.pattern] = append(w.s.dataEdges[dc.pattern], dc.fieldPath)
		}
	}
}

// ---- helpers ----

func validFieldName(name string) bool {
	if name == "" || strings.ContainsAny(name, ".[]/ \t\r\n") {
		return false
	}
	if _, numeric := tryParseIndex(name); numeric {
		return false
	}
	return true
}

func isList(v any) bool {
	if _, ok := v.([]any); ok {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array)
}

func dedupSorted(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	for i, v := range in {
		if i == 0 || in[i-1] != v {
			out = append(out, v)
		}
	}
	return out
}

func copyEdges(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}
