package form

import (
	"fmt"
	"strconv"

	goforma "github.com/reoring/goforma"
)

// resolveIn carries the ancestor context of one resolution step.
type resolveIn struct {
	// base is the concrete parent path; bindBase the identity parent path,
	// with array item ids where base has indices.
	base     string
	bindBase string
	// bindName overrides the identity name for array items, whose concrete
	// name is their index.
	bindName string
	// itemScopes holds the concrete base paths of the enclosing array
	// items, innermost last; item-relative paths resolve against the last.
	itemScopes []string

	disabled bool
	readOnly bool
	// hidden marks a subtree whose ancestor's condition already failed.
	hidden bool
}

// pass is one synchronous resolution over a fixed value snapshot.
type pass struct {
	f      *Form
	values map[string]any
	seen   map[string]struct{}
}

func (f *Form) newPass() *pass {
	return &pass{f: f, values: f.ctrl.Values(), seen: map[string]struct{}{}}
}

// resolve builds the descriptor for one field instance. Hidden fields come
// back minimal: no value accessors, no children, no fetch; their binding,
// if any, is closed so pending work dies with the visibility.
func (p *pass) resolve(def *goforma.FieldDefinition, in resolveIn) goforma.FieldDescriptor {
	path := goforma.JoinPath(in.base, def.Name)
	bindKey := goforma.JoinPath(in.bindBase, bindNameOf(in, def))

	d := goforma.FieldDescriptor{
		Path:        path,
		Name:        def.Name,
		Type:        def.Type,
		Label:       def.Label,
		Placeholder: def.Placeholder,
		Description: def.Description,
	}
	d.Renderer, d.HasRenderer = p.renderer(def.Type)

	if in.hidden || !p.visible(def, in) {
		p.f.closeBinding(bindKey)
		return d
	}
	d.ShouldRender = true

	st := goforma.FieldState{
		IsDisabled: in.disabled || def.Disabled,
		IsReadOnly: in.readOnly || def.ReadOnly,
		IsRequired: def.IsRequired(),
	}

	switch def.Type {
	case goforma.TypeObject:
		d.State = st
		child := in
		child.base = path
		child.bindBase = bindKey
		child.bindName = ""
		child.disabled = st.IsDisabled
		child.readOnly = st.IsReadOnly
		for i := range def.Fields {
			d.Children = append(d.Children, p.resolve(&def.Fields[i], child))
		}
		return d
	case goforma.TypeArray:
		d.State = st
		itemIn := in
		itemIn.disabled = st.IsDisabled
		itemIn.readOnly = st.IsReadOnly
		d.Array = p.array(def, path, bindKey, itemIn)
		return d
	}

	reg := p.f.ctrl.RegisterField(path, def.DefaultValue)
	d.Value = reg.Value
	d.OnChange = reg.OnChange
	d.OnBlur = reg.OnBlur
	d.Error = reg.Error
	st.IsTouched = reg.Touched
	st.IsDirty = reg.Dirty

	d.Options = append([]goforma.Option(nil), def.Options...)
	if def.DataSourceKey != "" {
		p.async(def, in, path, bindKey, st.IsDisabled, &d, &st)
	}
	d.State = st
	return d
}

// visible evaluates the field's condition against the pass snapshot,
// rebasing item-relative when-paths onto the nearest enclosing item.
func (p *pass) visible(def *goforma.FieldDefinition, in resolveIn) bool {
	c := def.Condition
	if c == nil {
		return true
	}
	if goforma.IsItemRelative(c.When) && len(in.itemScopes) > 0 {
		rebased := *c
		rebased.When = in.itemScopes[len(in.itemScopes)-1] + "." + goforma.TrimItemRelative(c.When)
		return rebased.Evaluate(p.values)
	}
	return c.Evaluate(p.values)
}

// renderer reports the registry selection. Without a registry every type
// renders; with one, a missing component is a soft failure the host skips.
func (p *pass) renderer(t goforma.FieldType) (string, bool) {
	if p.f.registry == nil {
		return string(t), true
	}
	return string(t), p.f.registry.HasRenderer(t)
}

// async wires the field instance's data-source binding: dependency values
// are read from the snapshot (item-relative ones against the nearest
// enclosing item, keyed by their marker-stripped declared path), the
// binding resolves, and its state lands on the descriptor. Fresh cache hits
// land synchronously with no loading flash. Disabled fields keep whatever
// the binding last held but initiate nothing.
func (p *pass) async(def *goforma.FieldDefinition, in resolveIn, path, bindKey string, disabled bool, d *goforma.FieldDescriptor, st *goforma.FieldState) {
	if !p.f.engine.HasSource(def.DataSourceKey) {
		return
	}
	p.seen[bindKey] = struct{}{}
	b := p.f.bindingFor(bindKey, def.DataSourceKey, path)
	if b == nil {
		return
	}
	if !disabled {
		b.Resolve(p.deps(def, in))
	}
	opts, loading, err := b.Snapshot()
	d.Options = opts
	d.Search = b.Search
	d.Refetch = b.Refetch
	st.IsLoading = loading
	if err != nil && d.Error == "" {
		d.Error = err.Error()
	}
}

func (p *pass) deps(def *goforma.FieldDefinition, in resolveIn) map[string]any {
	if len(def.DependsOn) == 0 {
		return nil
	}
	out := make(map[string]any, len(def.DependsOn))
	for _, dep := range def.DependsOn {
		name, target := dep, dep
		if goforma.IsItemRelative(dep) {
			name = goforma.TrimItemRelative(dep)
			target = name
			if len(in.itemScopes) > 0 {
				target = in.itemScopes[len(in.itemScopes)-1] + "." + name
			}
		}
		v, _ := goforma.ValueAtPath(p.values, target)
		out[name] = v
	}
	return out
}

// at resolves one concrete path.
func (p *pass) at(path string) (goforma.FieldDescriptor, error) {
	segs := goforma.SplitPath(path)
	if len(segs) == 0 {
		return goforma.FieldDescriptor{}, goforma.ErrUnknownPath
	}
	return p.walk(p.f.schema.Fields(), resolveIn{}, segs, 0, path)
}

// walk positions the descent at the sibling named segs[i].
func (p *pass) walk(defs []goforma.FieldDefinition, in resolveIn, segs []string, i int, full string) (goforma.FieldDescriptor, error) {
	for j := range defs {
		if defs[j].Name == segs[i] {
			return p.step(&defs[j], in, segs, i, full)
		}
	}
	return goforma.FieldDescriptor{}, fmt.Errorf("%w: %s", goforma.ErrUnknownPath, full)
}

// step resolves def when it is the leaf, otherwise folds it as an ancestor
// (flags, condition) and descends. Array descent consumes the index segment
// and restarts at the synthesized item definition, which also covers nested
// arrays.
func (p *pass) step(def *goforma.FieldDefinition, in resolveIn, segs []string, i int, full string) (goforma.FieldDescriptor, error) {
	if i == len(segs)-1 {
		return p.resolve(def, in), nil
	}
	anc := goforma.JoinPath(in.base, def.Name)
	if !in.hidden && !p.visible(def, in) {
		in.hidden = true
	}
	in.disabled = in.disabled || def.Disabled
	in.readOnly = in.readOnly || def.ReadOnly

	switch def.Type {
	case goforma.TypeObject:
		next := in
		next.base = anc
		next.bindBase = goforma.JoinPath(in.bindBase, bindNameOf(in, def))
		next.bindName = ""
		return p.walk(def.Fields, next, segs, i+1, full)
	case goforma.TypeArray:
		idxSeg := segs[i+1]
		idx, err := strconv.Atoi(idxSeg)
		if err != nil || idx < 0 {
			return goforma.FieldDescriptor{}, fmt.Errorf("%w: %s", goforma.ErrUnknownPath, full)
		}
		items := p.f.ctrl.FieldArray(anc).Items()
		if idx >= len(items) {
			return goforma.FieldDescriptor{}, fmt.Errorf("%w: %s", goforma.ErrUnknownPath, full)
		}
		next := in
		next.base = anc
		next.bindBase = goforma.JoinPath(in.bindBase, bindNameOf(in, def))
		next.bindName = items[idx].ID
		next.itemScopes = append(append([]string(nil), in.itemScopes...), anc+"."+idxSeg)
		item := itemDef(def, idxSeg)
		return p.step(&item, next, segs, i+1, full)
	default:
		return goforma.FieldDescriptor{}, fmt.Errorf("%w: %s", goforma.ErrUnknownPath, full)
	}
}

func bindNameOf(in resolveIn, def *goforma.FieldDefinition) string {
	if in.bindName != "" {
		return in.bindName
	}
	return def.Name
}

// itemDef synthesizes the definition of one array item: an object over
// itemFields, a clone of itemDefinition, or a bare primitive of itemType,
// named by its index.
func itemDef(def *goforma.FieldDefinition, name string) goforma.FieldDefinition {
	switch {
	case len(def.ItemFields) > 0:
		return goforma.FieldDefinition{Name: name, Type: goforma.TypeObject, Fields: def.ItemFields}
	case def.ItemDefinition != nil:
		d := def.ItemDefinition.Clone()
		d.Name = name
		return d
	default:
		return goforma.FieldDefinition{Name: name, Type: def.ItemType}
	}
}
