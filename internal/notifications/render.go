package notifications

import (
	"fmt"
	"strings"

	"ebooking/pkg/model"
)

const timeLayout = "2006-01-02 15:04:05"

const indent = "           "

// Render returns the text of e as one or more chat messages. Release
// events produce a header followed by one message per accommodation.
func Render(e Event) []string {
	switch e.Type {
	case EventBookingCreated, EventBookingCanceled:
		return []string{renderBooking(e)}
	case EventAccommodationCreated:
		return []string{renderAccommodationCreated(e)}
	case EventAccommodationsReleased:
		return renderReleases(e)
	case EventPaymentSucceeded:
		return []string{renderPayment(e)}
	default:
		return []string{fmt.Sprintf("Type notification: #%s\nCreation time: %s\n", e.Type, e.OccurredAt.Format(timeLayout))}
	}
}

func renderBooking(e Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Type notification: #%s\n", e.Type)
	fmt.Fprintf(&b, "Creation time: %s\n", e.OccurredAt.Format(timeLayout))
	b.WriteString("Booking detail: \n")
	b.WriteString(bookingDetail(e.Booking, e.Accommodation))
	b.WriteString("Reservation owner: \n")
	var owner model.Principal
	if e.Principal != nil {
		owner = *e.Principal
	}
	fmt.Fprintf(&b, "%sid:  %s\n", indent, owner.UserID)
	fmt.Fprintf(&b, "%sname: %s\n", indent, owner.Name)
	return b.String()
}

func bookingDetail(bk *model.Booking, acc *model.Accommodation) string {
	if bk == nil {
		return ""
	}
	accID, accType := bk.AccommodationID, ""
	if acc != nil {
		accID, accType = acc.ID, string(acc.Type)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Booking create with id: %s\n", bk.ID)
	fmt.Fprintf(&b, "%sCheck in date: %s\n", indent, bk.CheckIn.Format(timeLayout))
	fmt.Fprintf(&b, "%sCheck out date: %s\n", indent, bk.CheckOut.Format(timeLayout))
	fmt.Fprintf(&b, "%sAccommodation: %s, %s\n", indent, accID, accType)
	fmt.Fprintf(&b, "%sStatus: %s\n", indent, bk.Status)
	return b.String()
}

func accommodationDetail(acc *model.Accommodation) string {
	if acc == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("Accommodation detail: \n")
	fmt.Fprintf(&b, "%sid:  %s\n", indent, acc.ID)
	fmt.Fprintf(&b, "%stype: %s\n", indent, acc.Type)
	fmt.Fprintf(&b, "%slocation: %s\n", indent, acc.Location)
	fmt.Fprintf(&b, "%ssize: %s\n", indent, acc.Size)
	fmt.Fprintf(&b, "%sdaily rate: %s\n", indent, FormatCents(acc.DailyRate))
	fmt.Fprintf(&b, "%savalaibility: %d\n", indent, acc.Availability)
	return b.String()
}

func renderAccommodationCreated(e Event) string {
	return fmt.Sprintf("Type notification: #%s\nCreation time: %s\n%s",
		e.Type, e.OccurredAt.Format(timeLayout), accommodationDetail(e.Accommodation))
}

func renderReleases(e Event) []string {
	out := make([]string, 0, len(e.Releases)+1)
	out = append(out, "#hourly_check\n Bookings will end at "+e.OccurredAt.Format("15:04:05"))
	for _, r := range e.Releases {
		acc := r.Accommodation
		out = append(out, fmt.Sprintf("%sThe number that becomes free at that hour: %d\nAvailable to book now: %d\n",
			accommodationDetail(&acc), r.ExpiredCount, r.AvailableNow))
	}
	return out
}

func renderPayment(e Event) string {
	var p model.Payment
	if e.Payment != nil {
		p = *e.Payment
	}
	var b strings.Builder
	b.WriteString("Type notification: #PAYMENT_CREATED\n")
	b.WriteString("The payment was successful!\n")
	b.WriteString("Payment detail: \n")
	fmt.Fprintf(&b, "%sid:  %s\n", indent, p.ID)
	fmt.Fprintf(&b, "%sbookingId:  %s\n", indent, p.BookingID)
	fmt.Fprintf(&b, "%sstatus: %s\n", indent, p.Status)
	fmt.Fprintf(&b, "%samount: %s\n", indent, FormatCents(p.AmountCents))
	return b.String()
}

// FormatCents renders an amount in minor units as "123.45".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
