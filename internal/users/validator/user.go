package validator

import (
	"errors"
	"fmt"
	"strings"

	"ebooking/pkg/model"

	"github.com/go-playground/validator/v10"
)

type UserValidator struct {
	validate *validator.Validate
}

func NewUserValidator() *UserValidator {
	return &UserValidator{validate: validator.New()}
}

func (v *UserValidator) ValidateRegistration(req *model.UserRegistration) error {
	return v.check(req)
}

func (v *UserValidator) ValidateLogin(req *model.LoginRequest) error {
	return v.check(req)
}

func (v *UserValidator) ValidateUpdate(update *model.UserUpdate) error {
	return v.check(update)
}

func (v *UserValidator) ValidatePassword(update *model.PasswordUpdate) error {
	return v.check(update)
}

func (v *UserValidator) ValidateRole(update *model.RoleUpdate) error {
	return v.check(update)
}

func (v *UserValidator) check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		messages = append(messages, message(fe))
	}
	return errors.New(strings.Join(messages, "; "))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
	}
}
