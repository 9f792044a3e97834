package notify

import "strings"

// NormalizePhone strips everything but digits and accepts 10 or 11 digit
// national numbers (area code + 8 or 9 digit subscriber), prefixing the
// country calling code. ok is false for anything else.
func NormalizePhone(raw, countryCode string) (phone string, ok bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 10 && len(digits) != 11 {
		return "", false
	}
	return countryCode + digits, true
}
