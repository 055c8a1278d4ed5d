package validator

import (
	"testing"

	"ebooking/pkg/model"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name        string
		bookingID   string
		expectValid bool
		message     string
	}{
		{"valid", "65f0c0ffee000000000000b1", true, ""},
		{"missing", "", false, "BookingID is required"},
		{"not an object id", "booking-1", false, "BookingID must be a valid object id"},
	}

	v := NewPaymentValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateRequest(&model.PaymentRequest{BookingID: tt.bookingID})
			if tt.expectValid {
				if err != nil {
					t.Errorf("expected valid, got %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.message {
				t.Errorf("error = %v, want %q", err, tt.message)
			}
		})
	}
}
