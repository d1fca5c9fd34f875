package payment

import "strings"

const (
	// MaxPhoneDigits is the length of a full 254XXXXXXXXX number.
	MaxPhoneDigits = 12
	// MinPhoneDigits is the shortest number that may be submitted.
	MinPhoneDigits = 10
	// PINLength is the number of digits in an M-PESA PIN.
	PINLength = 4

	countryCode = "254"
)

// Keypad keys other than digits.
const (
	KeyBackspace = "⌫"
	KeyDot       = "."
)

// NormalizePhone strips everything but digits and rewrites a leading 0 to
// the 254 country code.  Length is not checked here.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		return countryCode + digits[1:]
	}
	return digits
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
