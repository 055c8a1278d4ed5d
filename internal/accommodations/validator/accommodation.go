package validator

import (
	"errors"
	"fmt"
	"strings"

	"ebooking/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type AccommodationValidator struct {
	validate *validator.Validate
}

func NewAccommodationValidator() *AccommodationValidator {
	return &AccommodationValidator{validate: validator.New()}
}

// ValidateNew also requires at least one bookable unit; existing
// accommodations may be closed by lowering availability to zero.
func (v *AccommodationValidator) ValidateNew(acc *model.Accommodation) error {
	if err := v.Validate(acc); err != nil {
		return err
	}
	if acc.Availability < 1 {
		return ValidationErrors{{Field: "Availability", Message: "Availability must be at least 1"}}
	}
	return nil
}

func (v *AccommodationValidator) Validate(acc *model.Accommodation) error {
	return v.checkStruct(acc)
}

func (v *AccommodationValidator) ValidateUpdate(update *model.AccommodationUpdate) error {
	return v.checkStruct(update)
}

func (v *AccommodationValidator) checkStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *AccommodationValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
