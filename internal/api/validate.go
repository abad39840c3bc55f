package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

func formatValidationErrors(err error) map[string]string {
	fields := make(map[string]string)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fields
	}
	for _, e := range ve {
		fields[e.Field()] = formatFieldError(e)
	}
	return fields
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Minimum length is %s", e.Param())
	case "max":
		return fmt.Sprintf("Maximum length is %s", e.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", e.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", e.Param())
	case "eth_addr":
		return "Must be an account address (0x followed by 40 hex digits)"
	case "latitude":
		return "Must be a latitude in decimal degrees"
	case "longitude":
		return "Must be a longitude in decimal degrees"
	default:
		return fmt.Sprintf("Validation failed on '%s'", e.Tag())
	}
}

// decodeRequest decodes the JSON body into T and validates it. On failure it
// writes the error response and returns false.
func decodeRequest[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	var req T
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if err := validate.Struct(&req); err != nil {
		jsonResponse(w, http.StatusUnprocessableEntity, errorBody{
			Error:  "validation failed",
			Fields: formatValidationErrors(err),
		})
		return nil, false
	}
	return &req, true
}
