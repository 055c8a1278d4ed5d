package notifications

import (
	"time"

	"ebooking/pkg/model"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBookingCreated         EventType = "BOOKING_CREATED"
	EventBookingCanceled        EventType = "BOOKING_CANCELED"
	EventAccommodationCreated   EventType = "ACCOMMODATION_CREATED"
	EventAccommodationsReleased EventType = "ACCOMMODATIONS_RELEASED"
	EventPaymentSucceeded       EventType = "PAYMENT_SUCCEEDED"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventBookingCreated, EventBookingCanceled, EventAccommodationCreated,
		EventAccommodationsReleased, EventPaymentSucceeded:
		return true
	}
	return false
}

// Event is a one-way, best-effort notification to operators. Only the fields
// relevant to Type are set.
type Event struct {
	ID            string                 `json:"id"`
	Type          EventType              `json:"type"`
	OccurredAt    time.Time              `json:"occurred_at"`
	Booking       *model.Booking         `json:"booking,omitempty"`
	Accommodation *model.Accommodation   `json:"accommodation,omitempty"`
	Payment       *model.Payment         `json:"payment,omitempty"`
	Principal     *model.Principal       `json:"principal,omitempty"`
	Releases      []model.ReleaseSummary `json:"releases,omitempty"`
}

func newEvent(t EventType, at time.Time) Event {
	return Event{ID: uuid.NewString(), Type: t, OccurredAt: at.UTC()}
}

func BookingCreated(at time.Time, b *model.Booking, acc *model.Accommodation, owner model.Principal) Event {
	e := newEvent(EventBookingCreated, at)
	e.Booking, e.Accommodation, e.Principal = b, acc, &owner
	return e
}

func BookingCanceled(at time.Time, b *model.Booking, acc *model.Accommodation, owner model.Principal) Event {
	e := newEvent(EventBookingCanceled, at)
	e.Booking, e.Accommodation, e.Principal = b, acc, &owner
	return e
}

func AccommodationCreated(at time.Time, acc *model.Accommodation) Event {
	e := newEvent(EventAccommodationCreated, at)
	e.Accommodation = acc
	return e
}

// AccommodationsReleased is emitted once per sweep, at is the hour the
// released bookings ended.
func AccommodationsReleased(at time.Time, releases []model.ReleaseSummary) Event {
	e := newEvent(EventAccommodationsReleased, at)
	e.Releases = releases
	return e
}

func PaymentSucceeded(at time.Time, p *model.Payment) Event {
	e := newEvent(EventPaymentSucceeded, at)
	e.Payment = p
	return e
}

// Key groups events of the same accommodation on one Kafka partition.
func (e Event) Key() string {
	switch {
	case e.Accommodation != nil && e.Accommodation.ID != "":
		return e.Accommodation.ID
	case e.Booking != nil && e.Booking.AccommodationID != "":
		return e.Booking.AccommodationID
	case e.Payment != nil && e.Payment.BookingID != "":
		return e.Payment.BookingID
	default:
		return e.ID
	}
}
