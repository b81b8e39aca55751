package goforma

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	// Schema construction (emitted by NewSchema)
	CodeMissingName          = "missing_name"
	CodeInvalidName          = "invalid_name"
	CodeDuplicateName        = "duplicate_name"
	CodeInvalidType          = "invalid_type"
	CodeInvalidShape         = "invalid_shape"
	CodeObjectWithoutFields  = "object_without_fields"
	CodeArrayWithoutItemType = "array_without_item_type"
	CodeSelectWithoutOptions = "select_without_options"
	CodeInvalidCondition     = "invalid_condition"
	CodeInvalidDependency    = "invalid_dependency"
	CodeInvalidPattern       = "invalid_pattern"
	CodeInvalidBounds        = "invalid_bounds"
	CodeParseError           = "parse_error"
	// Value validation (emitted by the validate package)
	CodeRequired      = "required"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidFormat = "invalid_format"
	CodeCustom        = "custom"
)

// Issue represents a single schema or value validation entry.
type Issue struct {
	Path    string // Dotted field path (for example: members.2.email).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, expected shapes, etc.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for i18n and observability.
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. select_without_options at city
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ErrFormClosed is returned by form operations invoked after Close.
var ErrFormClosed = errors.New("goforma: form is closed")

// ErrUnknownPath is returned when a concrete value path does not follow the
// schema shape or addresses an array item that does not exist.
var ErrUnknownPath = errors.New("goforma: unknown field path")

// ErrUntransformable indicates a data source returned raw data the engine
// cannot coerce into options and no Transform was configured for it.
var ErrUntransformable = errors.New("goforma: raw data is not an option list; configure Transform")
