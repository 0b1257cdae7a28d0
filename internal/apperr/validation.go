package apperr

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FromValidation converts ozzo-validation errors into a VALIDATION_ERROR with
// one detail entry per field. Other errors are returned unchanged.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		flatten("", verrs, details)
		return Validation(CodeValidation, "Validation failed", details)
	}
	var ierr validation.InternalError
	if errors.As(err, &ierr) {
		return err
	}
	var verr validation.Error
	if errors.As(err, &verr) {
		return Validation(CodeValidation, verr.Error(), nil)
	}
	return err
}

func flatten(prefix string, errs validation.Errors, out map[string]string) {
	for field, err := range errs {
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			flatten(key, nested, out)
			continue
		}
		out[key] = err.Error()
	}
}
