package controller

import (
	"github.com/google/uuid"

	goforma "github.com/reoring/goforma"
)

// fieldArray is the index-addressed view over one array value. Item ids are
// minted lazily, ride along with every structural operation, and are only
// forgotten when the array shrinks underneath them (a whole-array SetValue
// resets identity past the new length).
type fieldArray struct {
	c    *Controller
	path string
}

func (a *fieldArray) Items() []goforma.ArrayItem {
	a.c.mu.Lock()
	defer a.c.mu.Unlock()
	arr := a.sliceLocked()
	ids := a.c.ensureIDsLocked(a.path, len(arr))
	out := make([]goforma.ArrayItem, len(arr))
	for i, v := range arr {
		out[i] = goforma.ArrayItem{ID: ids[i], Value: cloneAny(v)}
	}
	return out
}

func (a *fieldArray) Append(value any) {
	a.c.mu.Lock()
	arr := a.sliceLocked()
	ids := a.c.ensureIDsLocked(a.path, len(arr))
	a.c.ids[a.path] = append(ids, uuid.NewString())
	a.writeLocked(append(arr, cloneAny(value)))
	subs := a.c.subsSnapshot()
	a.c.mu.Unlock()
	fanOut(subs, a.path)
}

func (a *fieldArray) Remove(index int) {
	a.c.mu.Lock()
	arr := a.sliceLocked()
	if index < 0 || index >= len(arr) {
		a.c.mu.Unlock()
		return
	}
	ids := a.c.ensureIDsLocked(a.path, len(arr))
	a.c.ids[a.path] = append(ids[:index], ids[index+1:]...)
	a.writeLocked(append(arr[:index], arr[index+1:]...))
	subs := a.c.subsSnapshot()
	a.c.mu.Unlock()
	fanOut(subs, a.path)
}

func (a *fieldArray) Move(from, to int) {
	a.c.mu.Lock()
	arr := a.sliceLocked()
	n := len(arr)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		a.c.mu.Unlock()
		return
	}
	ids := a.c.ensureIDsLocked(a.path, n)
	shift(arr, from, to)
	shift(ids, from, to)
	a.writeLocked(arr)
	subs := a.c.subsSnapshot()
	a.c.mu.Unlock()
	fanOut(subs, a.path)
}

func (a *fieldArray) sliceLocked() []any {
	v, ok := goforma.ValueAtPath(a.c.values, a.path)
	if !ok {
		return nil
	}
	arr, _ := v.([]any)
	return arr
}

func (a *fieldArray) writeLocked(arr []any) {
	if arr == nil {
		arr = []any{}
	}
	a.c.writeLocked(a.path, arr)
}

func (c *Controller) ensureIDsLocked(path string, n int) []string {
	ids := c.ids[path]
	for len(ids) < n {
		ids = append(ids, uuid.NewString())
	}
	if len(ids) > n {
		ids = ids[:n]
	}
	c.ids[path] = ids
	return ids
}

// shift moves s[from] to position to, sliding the elements in between.
func shift[T any](s []T, from, to int) {
	v := s[from]
	if from < to {
		copy(s[from:], s[from+1:to+1])
	} else {
		copy(s[to+1:], s[to:from])
	}
	s[to] = v
}
