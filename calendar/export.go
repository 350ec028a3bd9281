package calendar

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	bk "github.com/hanksha/garage-booking-backend/booking"
)

const DefaultProductID = "-//garage-booking-backend//bookings//EN"

// Export renders bookings as an iCalendar feed. Requested bookings are
// published as tentative, confirmed ones as confirmed.
func Export(bookings []bk.Booking, productID string, stamp time.Time) string {
	if len(productID) == 0 {
		productID = DefaultProductID
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	for _, b := range bookings {
		if b.Status == bk.StatusCancelled {
			continue
		}

		event := cal.AddEvent(b.ID)
		event.SetDtStampTime(stamp)
		event.SetSummary(b.Title)
		event.SetDescription(description(b.Contact))

		if b.AllDay {
			event.SetAllDayStartAt(b.Start)
			event.SetAllDayEndAt(b.End)
		} else {
			event.SetStartAt(b.Start)
			event.SetEndAt(b.End)
		}

		if b.Status == bk.StatusConfirmed {
			event.SetStatus(ics.ObjectStatusConfirmed)
		} else {
			event.SetStatus(ics.ObjectStatusTentative)
		}
	}

	return cal.Serialize()
}

func description(c bk.Contact) string {
	lines := []string{"Name: " + c.Name, "Phone: " + c.Phone}

	if len(c.Email) != 0 {
		lines = append(lines, "Email: "+c.Email)
	}

	if len(c.Notes) != 0 {
		lines = append(lines, "Notes: "+c.Notes)
	}

	return strings.Join(lines, "\n")
}
