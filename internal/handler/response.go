package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mijwel-dev/chatter-backend/internal/apperr"
	"github.com/mijwel-dev/chatter-backend/internal/dto"
)

// respond writes a success envelope
func respond(c *gin.Context, code int, message string, data any) {
	c.JSON(code, dto.NewResponse(code, message, data))
}

// respondErr converts a service error into the envelope, defaulting unknown
// errors to an opaque 500
func respondErr(c *gin.Context, err error) {
	apiErr := apperr.From(err)
	if apiErr.Code >= http.StatusInternalServerError && apiErr.Err != nil {
		_ = c.Error(apiErr.Err)
	}
	c.JSON(apiErr.Code, dto.NewErrorResponse(apiErr.Code, apiErr.Message, nil))
}

// respondBindErr maps gin binding failures to per-field errors
func respondBindErr(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]dto.FieldError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, dto.FieldError{
				Path:    fe.Field(),
				Message: fieldMessage(fe),
			})
		}
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Validation failed!", fields))
		return
	}

	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, "Invalid request body!", nil))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Must be at least " + fe.Param() + " characters long"
	case "len":
		return "Must be exactly " + fe.Param() + " characters long"
	case "oneof":
		return "Must be one of: " + fe.Param()
	default:
		return "Invalid value"
	}
}
