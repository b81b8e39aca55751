package goforma

// FieldState carries the derived flags recomputed on every resolution pass.
// Never mutated in place; a new value is built each pass.
type FieldState struct {
	IsLoading  bool
	IsDisabled bool
	IsRequired bool
	IsTouched  bool
	IsDirty    bool
	IsReadOnly bool
}

// FieldDescriptor is the renderer-ready prop bundle for one field instance.
// Descriptors are plain data plus handlers: resolving the same path twice
// against unchanged values and cache state yields equal descriptors
// (handlers compared by presence).
type FieldDescriptor struct {
	Path        string
	Name        string
	Type        FieldType
	Label       string
	Placeholder string
	Description string

	// ShouldRender is the condition verdict. Hidden fields keep their
	// stored value; they just produce no output and stop fetching.
	ShouldRender bool
	// Renderer is the registry selection key (the type string).
	// HasRenderer is false when the registry has no component for it, a
	// soft failure: hosts skip the field instead of erroring.
	Renderer    string
	HasRenderer bool

	Value    any
	OnChange func(value any)
	OnBlur   func()

	// Options merges the field's sources: data-source results when a source
	// is configured, else the static option list.
	Options []Option

	State FieldState
	// Error carries the per-field validation or fetch failure message;
	// empty when healthy.
	Error string

	// Search and Refetch are present only on fields backed by a data
	// source. Search debounces; Refetch bypasses cache freshness.
	Search  func(query string)
	Refetch func()

	// Children holds resolved child descriptors for object fields.
	Children []FieldDescriptor
	// Array holds the item list and mutation handlers for array fields.
	Array *ArrayDescriptor
}

// ArrayDescriptor is the renderer contract for one array field.
type ArrayDescriptor struct {
	Path  string
	Items []ArrayItemDescriptor

	// MinItems is 0 when unset; MaxItems is -1 when unbounded.
	MinItems int
	MaxItems int
	// CanAppend/CanRemove pre-compute the bounds verdicts for the current
	// length so renderers can disable controls.
	CanAppend bool
	CanRemove bool

	// Append, Remove and Move report whether they applied; bounds
	// violations are silent no-ops.
	Append func(value any) bool
	Remove func(index int) bool
	Move   func(from, to int) bool
}

// ArrayItemDescriptor is one resolved array item. ID is the stable synthetic
// identity independent of Index.
type ArrayItemDescriptor struct {
	ID    string
	Index int
	Path  string
	// Fields holds the item's resolved fields: the item-field descriptors
	// for object items, or a single descriptor for primitive items.
	Fields []FieldDescriptor
}
