package goforma

// FormController is the injected form-state collaborator. The engine never
// stores field values itself: it reads, writes and watches them through this
// interface. The controller package ships an in-memory implementation; hosts
// backed by their own state containers implement it instead.
type FormController interface {
	// GetValue reads the value at a dotted path. found is false when the
	// path does not resolve.
	GetValue(path string) (value any, found bool)
	// SetValue writes a value at a dotted path, creating intermediate
	// containers as needed, and notifies subscribers.
	SetValue(path string, value any)
	// Values returns a snapshot of the whole value tree. Callers must treat
	// it as read-only.
	Values() map[string]any
	// RegisterField binds a field instance at a path, seeding the default
	// when no value is present yet.
	RegisterField(path string, defaultValue any) FieldBinding
	// FieldArray exposes index-addressed access to an array value with
	// stable per-item identity.
	FieldArray(path string) FieldArray
	// Subscribe registers a change listener invoked with each written path.
	// The returned func removes the listener.
	Subscribe(fn func(path string)) (unsubscribe func())
	// SetError attaches a per-field message; ClearErrors drops all of them.
	// Used to distribute validator results.
	SetError(path, message string)
	ClearErrors()
}

// FieldBinding is the controller's per-field view handed to descriptors.
type FieldBinding struct {
	Value    any
	OnChange func(value any)
	OnBlur   func()
	Touched  bool
	Dirty    bool
	Error    string
}

// ArrayItem pairs a stable synthetic id with the item's current value. The
// id survives reordering; only index-derived paths shift.
type ArrayItem struct {
	ID    string
	Value any
}

// FieldArray is the controller's raw view of one array value. Bounds from
// the schema are enforced a level up, by array resolution; implementations
// only guard against out-of-range indices (no-op).
type FieldArray interface {
	Items() []ArrayItem
	Append(value any)
	Remove(index int)
	Move(from, to int)
}
