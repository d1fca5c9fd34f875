package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasttemplate"

	"github.com/iliyamo/discover-nairobi/internal/model"
)

const ticketTemplate = `╔════════════════════════════════════════════════╗
║          DISCOVER NAIROBI - E-TICKET          ║
╚════════════════════════════════════════════════╝

EVENT: {{title}}

📅 DATE:     {{date}}
⏰ TIME:     {{time}}
📍 VENUE:    {{venue}}

════════════════════════════════════════════════

BOOKING DETAILS
────────────────────────────────────────────────
Confirmation Code:  {{code}}
Tickets:           {{quantity}}x General Admission
Total Paid:        KSh {{total}}
Payment Method:    {{method}}
Status:            {{status}}

CONTACT INFORMATION
────────────────────────────────────────────────
Email:  {{email}}
Phone:  {{phone}}

════════════════════════════════════════════════

⚠️  IMPORTANT INSTRUCTIONS:
• Present this confirmation code at the entrance
• Arrive 30 minutes before the event start time
• Valid ID required for entry

🎉 Thank you for booking with Discover Nairobi!

════════════════════════════════════════════════`

// Contact is printed on the ticket.
type Contact struct {
	Email string
	Phone string
}

// Ticket renders the plaintext e-ticket for a booking.  Dates are shown in
// loc.
func Ticket(b model.Booking, c Contact, loc *time.Location) string {
	return fasttemplate.ExecuteString(ticketTemplate, "{{", "}}", map[string]interface{}{
		"title":    b.EventTitle,
		"date":     b.EventDate.In(loc).Format("Mon, Jan 2"),
		"time":     b.EventTime,
		"venue":    b.Location,
		"code":     b.ConfirmationCode,
		"quantity": strconv.Itoa(b.TicketQuantity),
		"total":    FormatAmount(b.TotalAmount),
		"method":   b.PaymentMethod,
		"status":   strings.ToUpper(b.Status),
		"email":    c.Email,
		"phone":    c.Phone,
	})
}

// TicketFileName is the download name for a confirmation code.
func TicketFileName(code string) string {
	return "DiscoverNairobi-Ticket-" + code + ".txt"
}

// FormatAmount prints a shilling amount with thousands separators and no
// decimals unless there are cents.
func FormatAmount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		frac = frac[:2]
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
