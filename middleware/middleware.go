// Package middleware holds the framework-neutral half of HTTP submission
// validation: decode a JSON body into form values, run a compiled
// validator, and shape the outcome for adapters. Framework bindings live
// in submodules so their dependencies stay out of the core module.
package middleware

import (
	"context"
	"io"

	j "github.com/goccy/go-json"

	goforma "github.com/reoring/goforma"
	"github.com/reoring/goforma/i18n"
	"github.com/reoring/goforma/validate"
)

// ctxKeySubmission is a typed context key for validated form values.
type ctxKeySubmission struct{}

// ContextWithSubmission attaches validated form values to the context.
func ContextWithSubmission(ctx context.Context, values map[string]any) context.Context {
	return context.WithValue(ctx, ctxKeySubmission{}, values)
}

// SubmissionFromContext retrieves validated form values from context.
func SubmissionFromContext(ctx context.Context) (map[string]any, bool) {
	v, ok := ctx.Value(ctxKeySubmission{}).(map[string]any)
	return v, ok
}

// DecodeSubmission reads a JSON object body into form values. Malformed
// input comes back as Issues with a parse_error code, the same shape
// document loading produces.
func DecodeSubmission(r io.Reader) (map[string]any, error) {
	var values map[string]any
	if err := j.NewDecoder(r).Decode(&values); err != nil {
		return nil, goforma.Issues{goforma.Issue{
			Code:    goforma.CodeParseError,
			Message: i18n.T(goforma.CodeParseError, nil),
			Cause:   err,
		}}
	}
	return values, nil
}

// ParseSubmission decodes the body and validates it with v. On success it
// returns the decoded values; every failure is reported as Issues.
func ParseSubmission(ctx context.Context, v *validate.Validator, r io.Reader) (map[string]any, error) {
	values, err := DecodeSubmission(r)
	if err != nil {
		return nil, err
	}
	if res := v.SafeParse(ctx, values); !res.Valid {
		return nil, res.Issues
	}
	return values, nil
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues goforma.Issues) map[string]any {
	return map[string]any{"issues": issues}
}
