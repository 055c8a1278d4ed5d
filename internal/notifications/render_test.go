package notifications

import (
	"strings"
	"testing"
	"time"

	"ebooking/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var occurred = time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC)

func sampleAccommodation() *model.Accommodation {
	return &model.Accommodation{
		ID:           "65f0c0ffee0000000000a001",
		Type:         model.AccommodationCondo,
		Location:     "Kyiv, Khreshchatyk 1",
		Size:         "2 bedrooms",
		DailyRate:    12550,
		Availability: 3,
	}
}

func TestRender_BookingCreated(t *testing.T) {
	acc := sampleAccommodation()
	b := &model.Booking{
		ID:              "65f0c0ffee0000000000b001",
		AccommodationID: acc.ID,
		CheckIn:         occurred.Add(24 * time.Hour),
		CheckOut:        occurred.Add(72 * time.Hour),
		Status:          model.BookingPending,
	}
	e := BookingCreated(occurred, b, acc, model.Principal{UserID: "u-1", Name: "Olena"})

	parts := Render(e)
	require.Len(t, parts, 1)
	text := parts[0]
	assert.Contains(t, text, "Type notification: #BOOKING_CREATED")
	assert.Contains(t, text, "Creation time: 2026-03-04 11:00:00")
	assert.Contains(t, text, "Booking create with id: 65f0c0ffee0000000000b001")
	assert.Contains(t, text, "Check in date: 2026-03-05 11:00:00")
	assert.Contains(t, text, "Accommodation: 65f0c0ffee0000000000a001, CONDO")
	assert.Contains(t, text, "name: Olena")
}

func TestRender_Releases(t *testing.T) {
	acc := sampleAccommodation()
	e := AccommodationsReleased(occurred, []model.ReleaseSummary{
		{Accommodation: *acc, ExpiredCount: 2, AvailableNow: 3},
	})

	parts := Render(e)
	require.Len(t, parts, 2)
	assert.Equal(t, "#hourly_check\n Bookings will end at 11:00:00", parts[0])
	assert.True(t, strings.HasSuffix(parts[1], "The number that becomes free at that hour: 2\nAvailable to book now: 3\n"))
	assert.Contains(t, parts[1], "daily rate: 125.50")
}

func TestRender_Payment(t *testing.T) {
	e := PaymentSucceeded(occurred, &model.Payment{ID: "p-1", BookingID: "b-1", Status: model.PaymentPaid, AmountCents: 50000})
	parts := Render(e)
	require.Len(t, parts, 1)
	assert.Contains(t, parts[0], "#PAYMENT_CREATED")
	assert.Contains(t, parts[0], "amount: 500.00")
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "123.45", FormatCents(12345))
	assert.Equal(t, "-1.00", FormatCents(-100))
}

func TestEvent_Key(t *testing.T) {
	acc := sampleAccommodation()
	assert.Equal(t, acc.ID, AccommodationCreated(occurred, acc).Key())

	b := &model.Booking{AccommodationID: "acc-2"}
	assert.Equal(t, "acc-2", BookingCanceled(occurred, b, nil, model.Principal{}).Key())

	p := PaymentSucceeded(occurred, &model.Payment{BookingID: "b-9"})
	assert.Equal(t, "b-9", p.Key())

	r := AccommodationsReleased(occurred, nil)
	assert.Equal(t, r.ID, r.Key())
}
