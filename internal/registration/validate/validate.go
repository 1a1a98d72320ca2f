// Package validate holds the format predicates for registration fields.
// Predicates are pure and know nothing about field names or error display.
package validate

import (
	"regexp"
	"unicode/utf8"
)

var (
	// f<year 2016-2024><4 digits>@<campus>.bits-pilani.ac.in
	emailPattern = regexp.MustCompile(`^f(201[6-9]|202[0-4])\d{4}@(pilani|goa|hyderabad)\.bits-pilani\.ac\.in$`)

	// <admission year 2016-2024><campus/degree code><PS|TS><4 digit sequence>
	institutionIDPattern = regexp.MustCompile(`^20(1[6-9]|2[0-4])(A[1-8]|AA)(PS|TS)\d{4}$`)

	// Ten digits, no country code, leading 6-9.
	phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
)

const (
	NameMinLength = 5
	NameMaxLength = 50
)

// Email reports whether s is an institutional email address. Case-sensitive.
func Email(s string) bool {
	return emailPattern.MatchString(s)
}

// InstitutionID reports whether s is a well-formed institution ID.
func InstitutionID(s string) bool {
	return institutionIDPattern.MatchString(s)
}

// Phone reports whether s is a ten digit mobile number.
func Phone(s string) bool {
	return phonePattern.MatchString(s)
}

// NameLength reports whether s has between NameMinLength and NameMaxLength
// characters inclusive. Characters are Unicode code points, so a character
// outside the Basic Multilingual Plane counts once, not as two UTF-16 units.
func NameLength(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= NameMinLength && n <= NameMaxLength
}
