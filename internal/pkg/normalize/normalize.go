// Package normalize converts free-typed French contact and vehicle inputs
// into their canonical forms.
package normalize

import (
	"regexp"
	"strings"
)

var (
	phonePattern        = regexp.MustCompile(`^0[1-9][0-9]{8}$`)
	registrationPattern = regexp.MustCompile(`^[A-Z]{2}-[0-9]{3}-[A-Z]{2}$`)
)

// VINLength is the length of a vehicle identification number.
const VINLength = 17

// Phone rewrites a French phone number to the local 0XXXXXXXXX form.
// It never fails; the result may still be rejected by IsValidPhone.
func Phone(input string) string {
	cleaned := keep(input, func(r rune) bool { return isDigit(r) || r == '+' })

	switch {
	case strings.HasPrefix(cleaned, "+33"):
		cleaned = "0" + cleaned[3:]
	case strings.HasPrefix(cleaned, "33") && len(cleaned) > 10:
		cleaned = "0" + cleaned[2:]
	}

	digits := keep(cleaned, isDigit)
	if len(digits) > 10 {
		digits = digits[:10]
	}
	return digits
}

// IsValidPhone reports whether s is a 10 digit French number with a non-zero second digit.
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// Registration uppercases a plate and formats it as LL-NNN-LL once at least
// seven alphanumerics are present. Shorter input is returned undashed.
func Registration(input string) string {
	cleaned := strings.ToUpper(keep(input, isASCIIAlnum))
	if len(cleaned) < 7 {
		return cleaned
	}
	return cleaned[:2] + "-" + cleaned[2:5] + "-" + cleaned[5:7]
}

// IsValidRegistration reports whether s matches LL-NNN-LL exactly.
func IsValidRegistration(s string) bool {
	return registrationPattern.MatchString(s)
}

// RegistrationInput filters a plate while it is being typed: uppercase
// letters, digits and dashes only.
func RegistrationInput(input string) string {
	return keep(strings.ToUpper(input), func(r rune) bool {
		return (r >= 'A' && r <= 'Z') || isDigit(r) || r == '-'
	})
}

// VIN keeps uppercase alphanumerics and truncates to 17 characters.
func VIN(input string) string {
	cleaned := strings.ToUpper(keep(input, isASCIIAlnum))
	if len(cleaned) > VINLength {
		cleaned = cleaned[:VINLength]
	}
	return cleaned
}

func keep(s string, ok func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if ok(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isASCIIAlnum(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
