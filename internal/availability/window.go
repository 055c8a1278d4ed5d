package availability

import (
	"fmt"
	"time"

	"ebooking/pkg/model"
)

const WindowLayout = "2006-01-02 15:04:05"

// Window is a check-in/check-out span used for overlap comparisons.
type Window struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

func NewWindow(checkIn, checkOut time.Time) Window {
	return Window{CheckIn: checkIn, CheckOut: checkOut}
}

func (w Window) Validate() error {
	if !w.CheckIn.Before(w.CheckOut) {
		return fmt.Errorf("%w: %s >= %s", ErrInvalidWindow,
			w.CheckIn.Format(WindowLayout), w.CheckOut.Format(WindowLayout))
	}
	return nil
}

func (w Window) String() string {
	return fmt.Sprintf("booked from %s to %s", w.CheckIn.Format(WindowLayout), w.CheckOut.Format(WindowLayout))
}

// Reservation is an existing booking as seen by the checker.
type Reservation struct {
	ID     string
	Window Window
	Status model.BookingStatus
}

func ReservationFromBooking(b *model.Booking) Reservation {
	return Reservation{
		ID:     b.ID,
		Window: NewWindow(b.CheckIn, b.CheckOut),
		Status: b.Status,
	}
}

func ReservationsFromBookings(bookings []*model.Booking) []Reservation {
	out := make([]Reservation, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, ReservationFromBooking(b))
	}
	return out
}
