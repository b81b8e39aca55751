package form

import (
	"context"
	"strconv"

	goforma "github.com/reoring/goforma"
	"github.com/reoring/goforma/events"
)

// array builds the descriptor for one array instance: live items with their
// stable ids, bounds verdicts for the current length, and mutation handlers
// that re-check bounds at call time, since descriptors can outlive the
// pass. Bounds are soft: violating operations are no-ops reporting false.
func (p *pass) array(def *goforma.FieldDefinition, path, bindKey string, in resolveIn) *goforma.ArrayDescriptor {
	items := p.f.ctrl.FieldArray(path).Items()

	min := 0
	if def.MinItems != nil {
		min = *def.MinItems
	}
	max := -1
	if def.MaxItems != nil {
		max = *def.MaxItems
	}

	ad := &goforma.ArrayDescriptor{
		Path:      path,
		MinItems:  min,
		MaxItems:  max,
		CanAppend: max < 0 || len(items) < max,
		CanRemove: len(items) > min,
	}

	f := p.f
	arrDef := def.Clone()
	ad.Append = func(value any) bool { return f.appendItem(arrDef, path, value, max) }
	ad.Remove = func(index int) bool { return f.removeItem(path, index, min) }
	ad.Move = func(from, to int) bool { return f.moveItem(path, from, to) }

	for idx, it := range items {
		idxSeg := strconv.Itoa(idx)
		itemPath := path + "." + idxSeg
		scopes := append(append([]string(nil), in.itemScopes...), itemPath)
		item := goforma.ArrayItemDescriptor{ID: it.ID, Index: idx, Path: itemPath}

		if len(def.ItemFields) > 0 {
			cin := resolveIn{
				base:       itemPath,
				bindBase:   goforma.JoinPath(bindKey, it.ID),
				itemScopes: scopes,
				disabled:   in.disabled,
				readOnly:   in.readOnly,
			}
			for i := range def.ItemFields {
				item.Fields = append(item.Fields, p.resolve(&def.ItemFields[i], cin))
			}
		} else {
			idef := itemDef(def, idxSeg)
			cin := resolveIn{
				base:       path,
				bindBase:   bindKey,
				bindName:   it.ID,
				itemScopes: scopes,
				disabled:   in.disabled,
				readOnly:   in.readOnly,
			}
			item.Fields = []goforma.FieldDescriptor{p.resolve(&idef, cin)}
		}
		ad.Items = append(ad.Items, item)
	}
	return ad
}

func (f *Form) appendItem(def goforma.FieldDefinition, path string, value any, max int) bool {
	if f.isClosed() {
		return false
	}
	fa := f.ctrl.FieldArray(path)
	n := len(fa.Items())
	if max >= 0 && n >= max {
		return false
	}
	if value == nil {
		value = goforma.DefaultItemValue(def)
	}
	fa.Append(value)
	events.Publish(context.Background(), f.bus, events.ArrayChanged{Path: path, Op: "append", To: n, Len: n + 1})
	return true
}

func (f *Form) removeItem(path string, index, min int) bool {
	if f.isClosed() {
		return false
	}
	fa := f.ctrl.FieldArray(path)
	n := len(fa.Items())
	if index < 0 || index >= n || n-1 < min {
		return false
	}
	fa.Remove(index)
	events.Publish(context.Background(), f.bus, events.ArrayChanged{Path: path, Op: "remove", From: index, Len: n - 1})
	return true
}

func (f *Form) moveItem(path string, from, to int) bool {
	if f.isClosed() {
		return false
	}
	fa := f.ctrl.FieldArray(path)
	n := len(fa.Items())
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return false
	}
	fa.Move(from, to)
	events.Publish(context.Background(), f.bus, events.ArrayChanged{Path: path, Op: "move", From: from, To: to, Len: n})
	return true
}
