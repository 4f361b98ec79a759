// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "GB"

// NormalizeE164 formats a phone number to E.164 so that formatting
// differences across channels (spaces, dashes, national "0" prefix) do not
// cause directory lookup misses. If parsing fails, it falls back to a
// digits-only best effort rather than rejecting the message.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err == nil && phonenumbers.IsValidNumber(number) {
		return phonenumbers.Format(number, phonenumbers.E164)
	}

	return fallbackNormalize(trimmed)
}

// fallbackNormalize strips non-digits, maps a leading national "0" to the
// default country code and prefixes "+". Used when the number does not parse
// as a valid phone number but we still need a stable lookup key.
func fallbackNormalize(input string) string {
	var digits strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	s := digits.String()
	if s == "" {
		return strings.TrimSpace(input)
	}

	countryCode := strconv.Itoa(phonenumbers.GetCountryCodeForRegion(defaultRegion))
	if strings.HasPrefix(s, "0") {
		return "+" + countryCode + s[1:]
	}
	return "+" + s
}
