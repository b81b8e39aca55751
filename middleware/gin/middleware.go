package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"
	goforma "github.com/reoring/goforma"
	"github.com/reoring/goforma/middleware"
	"github.com/reoring/goforma/validate"
)

// ValidateForm decodes the incoming JSON submission, validates it with v,
// stores the values in the request context, and on failure returns 400
// with an Issues payload.
func ValidateForm(v *validate.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		values, err := middleware.ParseSubmission(c.Request.Context(), v, c.Request.Body)
		if err != nil {
			if iss, ok := goforma.AsIssues(err); ok {
				c.JSON(http.StatusBadRequest, middleware.ErrorPayload(iss))
				c.Abort()
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		// store validated values in request context
		c.Request = c.Request.WithContext(middleware.ContextWithSubmission(c.Request.Context(), values))
		c.Next()
	}
}

// GetSubmission fetches validated form values from gin.Context.
func GetSubmission(c *gin.Context) (map[string]any, bool) {
	return middleware.SubmissionFromContext(c.Request.Context())
}
