// Package phone normalizes phone numbers to E.164 format.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

// NormalizeE164 parses a phone number and returns it in E.164 format.
// Numbers without a country prefix are parsed against the default region.
// Returns the empty string when the input cannot be parsed as a valid number.
func NormalizeE164(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return ""
	}

	return phonenumbers.Format(parsed, phonenumbers.E164)
}
