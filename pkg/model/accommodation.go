package model

import "time"

type AccommodationType string

const (
	AccommodationHouse        AccommodationType = "HOUSE"
	AccommodationApartment    AccommodationType = "APARTMENT"
	AccommodationCondo        AccommodationType = "CONDO"
	AccommodationVacationHome AccommodationType = "VACATION_HOME"
)

// Accommodation is a bookable property. Availability is the number of units
// that can be booked at the same time.
type Accommodation struct {
	ID           string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Type         AccommodationType `json:"type" bson:"type" validate:"required,oneof=HOUSE APARTMENT CONDO VACATION_HOME"`
	Location     string            `json:"location" bson:"location" validate:"required,min=2,max=200"`
	Size         string            `json:"size" bson:"size" validate:"required,min=1,max=50"`
	Amenities    []string          `json:"amenities" bson:"amenities" validate:"omitempty,max=50,dive,required,max=50"`
	DailyRate    int64             `json:"daily_rate" bson:"daily_rate" validate:"required,min=1"`
	Availability int               `json:"availability" bson:"availability" validate:"min=0,max=10000"`
	CreatedAt    time.Time         `json:"created_at" bson:"created_at" validate:"omitempty"`
	// ReservationSeq counts reservations made on the accommodation.
	ReservationSeq int64 `json:"-" bson:"reservation_seq,omitempty"`
}

type AccommodationUpdate struct {
	Type         AccommodationType `json:"type,omitempty" validate:"omitempty,oneof=HOUSE APARTMENT CONDO VACATION_HOME"`
	Location     string            `json:"location,omitempty" validate:"omitempty,min=2,max=200"`
	Size         string            `json:"size,omitempty" validate:"omitempty,min=1,max=50"`
	Amenities    *[]string         `json:"amenities,omitempty" validate:"omitempty,max=50,dive,required,max=50"`
	DailyRate    *int64            `json:"daily_rate,omitempty" validate:"omitempty,min=1"`
	Availability *int              `json:"availability,omitempty" validate:"omitempty,min=0,max=10000"`
}

// ReleaseSummary describes capacity freed on one accommodation by an
// expiration sweep.
type ReleaseSummary struct {
	Accommodation Accommodation `json:"accommodation"`
	ExpiredCount  int           `json:"expired_count"`
	AvailableNow  int           `json:"available_now"`
}
