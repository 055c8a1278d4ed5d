package model

import (
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCanceled  BookingStatus = "CANCELED"
	BookingExpired   BookingStatus = "EXPIRED"
)

// ActiveBookingStatuses holds the statuses that still occupy a unit of capacity.
var ActiveBookingStatuses = []BookingStatus{BookingPending, BookingConfirmed}

func (s BookingStatus) IsActive() bool {
	return s == BookingPending || s == BookingConfirmed
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCanceled, BookingExpired:
		return true
	}
	return false
}

type Booking struct {
	ID              string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	AccommodationID string        `json:"accommodation_id" bson:"accommodation_id" validate:"required,mongodb"`
	UserID          string        `json:"user_id" bson:"user_id" validate:"required,min=1,max=64"`
	CheckIn         time.Time     `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut        time.Time     `json:"check_out" bson:"check_out" validate:"required,gtfield=CheckIn"`
	Status          BookingStatus `json:"status" bson:"status" validate:"required,oneof=PENDING CONFIRMED CANCELED EXPIRED"`
	CreatedAt       time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt       time.Time     `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

type BookingRequest struct {
	AccommodationID string    `json:"accommodation_id" validate:"required,mongodb"`
	CheckIn         time.Time `json:"check_in" validate:"required"`
	CheckOut        time.Time `json:"check_out" validate:"required,gtfield=CheckIn"`
}

type BookingUpdate struct {
	CheckIn  *time.Time `json:"check_in,omitempty" validate:"omitempty"`
	CheckOut *time.Time `json:"check_out,omitempty" validate:"omitempty"`
}

type BookingStatusUpdate struct {
	Status BookingStatus `json:"status" validate:"required,oneof=PENDING CONFIRMED CANCELED EXPIRED"`
}

// BookingFilter narrows admin searches. Empty slices match everything.
type BookingFilter struct {
	UserIDs  []string
	Statuses []BookingStatus
}
