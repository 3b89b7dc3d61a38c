package apperror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func formatFieldName(s string) string {
	// full_name -> Full Name
	s = strings.ReplaceAll(s, "_", " ")
	return cases.Title(language.English).String(s)
}

// MapValidationError turns a binding error into a 400 AppError naming the
// first offending field. The full list of failures goes into Details.
func MapValidationError(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		details := make(map[string]string, len(errs))
		for _, fe := range errs {
			details[fe.Field()] = fe.Tag()
		}

		e := errs[0]
		field := formatFieldName(e.Field())
		switch e.Tag() {
		case "required", "notblank":
			return RequiredField(field).WithDetails(details)
		default:
			return InvalidField(field).WithDetails(details)
		}
	}

	return Wrap(err, CodeValidation, "Invalid input", http.StatusBadRequest)
}
