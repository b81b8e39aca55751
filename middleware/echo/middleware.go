package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"
	goforma "github.com/reoring/goforma"
	"github.com/reoring/goforma/middleware"
	"github.com/reoring/goforma/validate"
)

// ValidateForm decodes the incoming JSON submission, validates it with v,
// stores the values in the request context on success, or returns 400
// with an Issues payload when validation fails.
func ValidateForm(v *validate.Validator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			values, err := middleware.ParseSubmission(c.Request().Context(), v, c.Request().Body)
			if err != nil {
				if iss, ok := goforma.AsIssues(err); ok {
					return c.JSON(http.StatusBadRequest, middleware.ErrorPayload(iss))
				}
				return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
			}
			ctx := middleware.ContextWithSubmission(c.Request().Context(), values)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetSubmission fetches validated form values from echo.Context.
func GetSubmission(c echo.Context) (map[string]any, bool) {
	return middleware.SubmissionFromContext(c.Request().Context())
}
