package utils

import (
	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

// CreateError writes the failure envelope every endpoint uses:
// {"success": false, "message": ...}.
func CreateError(statusCode int, message string, ctx iris.Context) {
	ctx.StatusCode(statusCode)
	ctx.JSON(iris.Map{"success": false, "message": message})
}

func CreateInternalServerError(ctx iris.Context) {
	CreateError(iris.StatusInternalServerError, "Internal server error", ctx)
}

func CreateNotFound(ctx iris.Context, what string) {
	CreateError(iris.StatusNotFound, what+" not found", ctx)
}

func CreateAccessDenied(ctx iris.Context) {
	CreateError(iris.StatusForbidden, "Access denied", ctx)
}

// HandleValidationErrors turns validator failures from ReadJSON into a 400
// with field-level messages; anything else becomes a 500.
func HandleValidationErrors(err error, ctx iris.Context) {
	if errs, ok := err.(validator.ValidationErrors); ok {
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  wrapValidationErrors(errs),
		})
		return
	}

	CreateError(iris.StatusBadRequest, "Invalid request body", ctx)
}

type validationError struct {
	Field string      `json:"field"`
	Tag   string      `json:"tag"`
	Param string      `json:"param,omitempty"`
	Value interface{} `json:"value,omitempty"`
}

func wrapValidationErrors(errs validator.ValidationErrors) []validationError {
	wrapped := make([]validationError, 0, len(errs))
	for _, fieldErr := range errs {
		wrapped = append(wrapped, validationError{
			Field: fieldErr.Field(),
			Tag:   fieldErr.ActualTag(),
			Param: fieldErr.Param(),
			Value: fieldErr.Value(),
		})
	}
	return wrapped
}
