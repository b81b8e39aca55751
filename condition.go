package goforma

import (
	"reflect"

	"github.com/spf13/cast"
)

// Operator is the comparison applied by a visibility condition.
type Operator string

const (
	OpEq        Operator = "eq"
	OpNeq       Operator = "neq"
	OpGt        Operator = "gt"
	OpGte       Operator = "gte"
	OpLt        Operator = "lt"
	OpLte       Operator = "lte"
	OpIn        Operator = "in"
	OpNotIn     Operator = "notIn"
	OpExists    Operator = "exists"
	OpNotExists Operator = "notExists"
)

var operators = map[Operator]struct{}{
	OpEq: {}, OpNeq: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {},
	OpIn: {}, OpNotIn: {}, OpExists: {}, OpNotExists: {},
}

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	_, ok := operators[op]
	return ok
}

// NeedsList reports whether the operator requires an array comparison value.
func (op Operator) NeedsList() bool {
	return op == OpIn || op == OpNotIn
}

// Unary reports whether the operator ignores the comparison value.
func (op Operator) Unary() bool {
	return op == OpExists || op == OpNotExists
}

// Condition gates a field's visibility on another field's current value.
type Condition struct {
	When     string   `json:"when" yaml:"when" toml:"when"`
	Operator Operator `json:"operator" yaml:"operator" toml:"operator"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
}

// Evaluate resolves the watched path against a full value snapshot and
// applies the operator. A nil condition is always true. Stateless; safe to
// call from any resolution pass.
func (c *Condition) Evaluate(values any) bool {
	if c == nil {
		return true
	}
	cur, found := ValueAtPath(values, c.When)
	switch c.Operator {
	case OpEq:
		return equalValues(cur, c.Value)
	case OpNeq:
		return !equalValues(cur, c.Value)
	case OpGt:
		return compareNumeric(cur, c.Value, func(a, b float64) bool { return a > b })
	case OpGte:
		return compareNumeric(cur, c.Value, func(a, b float64) bool { return a >= b })
	case OpLt:
		return compareNumeric(cur, c.Value, func(a, b float64) bool { return a < b })
	case OpLte:
		return compareNumeric(cur, c.Value, func(a, b float64) bool { return a <= b })
	case OpIn:
		return listContains(c.Value, cur)
	case OpNotIn:
		return !listContains(c.Value, cur)
	case OpExists:
		return existsValue(cur, found)
	case OpNotExists:
		return !existsValue(cur, found)
	default:
		return false
	}
}

// equalValues compares numerically when both sides are numbers (decoded
// documents mix int and float64 for the same logical value), otherwise by
// deep equality. nil equals only nil.
func equalValues(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	af, aok := toNumber(a)
	bf, bok := toNumber(b)
	if aok && bok {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

// compareNumeric is false unless both sides are numbers.
func compareNumeric(a, b any, cmp func(float64, float64) bool) bool {
	af, aok := toNumber(a)
	bf, bok := toNumber(b)
	if !aok || !bok {
		return false
	}
	return cmp(af, bf)
}

// toNumber coerces genuine numeric types only; numeric strings stay strings.
func toNumber(v any) (float64, bool) {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return cast.ToFloat64(v), true
	}
	return 0, false
}

// listContains reports membership of v in list, which must be a slice; any
// other shape yields false.
func listContains(list any, v any) bool {
	if items, ok := list.([]any); ok {
		for _, it := range items {
			if equalValues(it, v) {
				return true
			}
		}
		return false
	}
	rv := reflect.ValueOf(list)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if equalValues(rv.Index(i).Interface(), v) {
			return true
		}
	}
	return false
}

// existsValue: present, non-nil, and not the empty string.
func existsValue(v any, found bool) bool {
	if !found || v == nil {
		return false
	}
	if s, ok := v.(string); ok && s == "" {
		return false
	}
	return true
}
