// Package export renders bookings for download: an iCalendar entry, a
// plaintext e-ticket and a QR code of the confirmation code.
package export

import (
	"fmt"
	"regexp"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/iliyamo/discover-nairobi/internal/model"
)

const (
	productID = "-//Discover Nairobi//Event Booking//EN"
	// EventLength is assumed when computing DTEND.
	EventLength = 3 * time.Hour
	reminder    = "-PT2H"
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Calendar returns an iCalendar document with one event.  A confirmed
// booking gets a display alarm two hours before the start; a cancelled one
// is exported with STATUS:CANCELLED and no alarm.
func Calendar(b model.Booking, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)

	ev := cal.AddEvent(b.ID + "@discovernairobi.ke")
	ev.SetDtStampTime(stamp)
	ev.SetStartAt(b.EventDate)
	ev.SetEndAt(b.EventDate.Add(EventLength))
	ev.SetSummary(b.EventTitle)
	ev.SetDescription(fmt.Sprintf(
		"Confirmation Code: %s\nTickets: %dx General Admission\n\nPresent your confirmation code at the entrance.",
		b.ConfirmationCode, b.TicketQuantity))
	ev.SetLocation(b.Location)
	if b.IsCancelled() {
		ev.SetProperty(ics.ComponentPropertyStatus, "CANCELLED")
		return cal.Serialize()
	}
	ev.SetProperty(ics.ComponentPropertyStatus, "CONFIRMED")

	alarm := ev.AddAlarm()
	alarm.SetTrigger(reminder)
	alarm.SetAction(ics.ActionDisplay)
	alarm.SetProperty(ics.ComponentPropertyDescription,
		fmt.Sprintf("Event reminder - %s starts in 2 hours!", b.EventTitle))

	return cal.Serialize()
}

// CalendarFileName derives the download name from the event title.
func CalendarFileName(title string) string {
	return unsafeName.ReplaceAllString(title, "-") + ".ics"
}
