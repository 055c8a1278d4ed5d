package validator

import (
	"errors"
	"fmt"

	"ebooking/pkg/model"

	"github.com/go-playground/validator/v10"
)

type PaymentValidator struct {
	validate *validator.Validate
}

func NewPaymentValidator() *PaymentValidator {
	return &PaymentValidator{validate: validator.New()}
}

func (v *PaymentValidator) ValidateRequest(req *model.PaymentRequest) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	fe := validationErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "mongodb":
		return fmt.Errorf("%s must be a valid object id", fe.Field())
	default:
		return fmt.Errorf("%s failed on %s", fe.Field(), fe.Tag())
	}
}
