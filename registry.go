package goforma

import "sort"

// RendererLookup is the part of a renderer registry the engine consults:
// presence only. The engine's sole obligation to renderers is the descriptor
// contract; it never inspects renderer internals.
type RendererLookup interface {
	HasRenderer(t FieldType) bool
	HasArrayWrapper() bool
	HasObjectWrapper() bool
}

// Registry maps field types to host renderer components of any kind (HTML
// template funcs, widget constructors, ...). Partial registries are
// deliberate: a type without a component resolves to no output instead of
// an error.
type Registry[R any] struct {
	byType        map[FieldType]R
	arrayWrapper  *R
	objectWrapper *R
	formWrapper   *R
}

// NewRegistry returns an empty registry.
func NewRegistry[R any]() *Registry[R] {
	return &Registry[R]{byType: map[FieldType]R{}}
}

// Register binds a component to a field type. Chainable.
func (r *Registry[R]) Register(t FieldType, comp R) *Registry[R] {
	r.byType[t] = comp
	return r
}

// WithArrayWrapper sets the component that frames array items.
func (r *Registry[R]) WithArrayWrapper(comp R) *Registry[R] {
	r.arrayWrapper = &comp
	return r
}

// WithObjectWrapper sets the component that frames object children. Without
// one, object children pass through unwrapped.
func (r *Registry[R]) WithObjectWrapper(comp R) *Registry[R] {
	r.objectWrapper = &comp
	return r
}

// WithFormWrapper sets the component that frames the whole form.
func (r *Registry[R]) WithFormWrapper(comp R) *Registry[R] {
	r.formWrapper = &comp
	return r
}

// Renderer looks up the component for a field type.
func (r *Registry[R]) Renderer(t FieldType) (R, bool) {
	comp, ok := r.byType[t]
	return comp, ok
}

// ArrayWrapper returns the array framing component, if registered.
func (r *Registry[R]) ArrayWrapper() (R, bool) {
	if r.arrayWrapper == nil {
		var zero R
		return zero, false
	}
	return *r.arrayWrapper, true
}

// ObjectWrapper returns the object framing component, if registered.
func (r *Registry[R]) ObjectWrapper() (R, bool) {
	if r.objectWrapper == nil {
		var zero R
		return zero, false
	}
	return *r.objectWrapper, true
}

// FormWrapper returns the form framing component, if registered.
func (r *Registry[R]) FormWrapper() (R, bool) {
	if r.formWrapper == nil {
		var zero R
		return zero, false
	}
	return *r.formWrapper, true
}

// HasRenderer implements RendererLookup.
func (r *Registry[R]) HasRenderer(t FieldType) bool {
	_, ok := r.byType[t]
	return ok
}

// HasArrayWrapper implements RendererLookup.
func (r *Registry[R]) HasArrayWrapper() bool { return r.arrayWrapper != nil }

// HasObjectWrapper implements RendererLookup.
func (r *Registry[R]) HasObjectWrapper() bool { return r.objectWrapper != nil }

// ValidateRegistryForSchema reports the capabilities the schema needs that
// the registry lacks: field type strings plus "arrayWrapper" and
// "objectWrapper" when the schema uses arrays or nested objects. A nil
// result means the registry covers the schema. It never errors; callers use
// it to fail fast before rendering.
func ValidateRegistryForSchema(reg RendererLookup, s *Schema) []string {
	var missing []string
	for _, t := range s.FieldTypes() {
		if t == TypeObject || t == TypeArray {
			continue
		}
		if !reg.HasRenderer(t) {
			missing = append(missing, string(t))
		}
	}
	info := s.Info()
	if info.HasArrayFields && !reg.HasArrayWrapper() {
		missing = append(missing, "arrayWrapper")
	}
	if info.HasNestedObjects && !reg.HasObjectWrapper() {
		missing = append(missing, "objectWrapper")
	}
	sort.Strings(missing)
	return missing
}
