// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"github.com/go-playground/validator/v10"
)

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	default:
		return err.Field() + " is invalid"
	}
}
