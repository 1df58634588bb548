// Package validate holds the pure format predicates shared by every
// form stage.
package validate

import (
	"regexp"
	"strings"
	"time"
)

var (
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobileRe = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	phoneRe  = regexp.MustCompile(`^[0-9]{6,12}$`)
)

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailRe.MatchString(s)
}

// Mobile reports whether s is a valid 10-digit mobile number.
func Mobile(s string) bool {
	return mobileRe.MatchString(s)
}

// Phone reports whether s is a valid landline number. Phone numbers are
// optional throughout, so callers check this only on non-empty input.
func Phone(s string) bool {
	return phoneRe.MatchString(s)
}

// Date reports whether s is a real calendar date in DD/MM/YYYY form.
// A dash separator is accepted because date pickers emit DD-MM-YYYY;
// the wizard normalizes it to slashes at submission.
func Date(s string) bool {
	normalized := strings.ReplaceAll(s, "-", "/")
	_, err := time.Parse("02/01/2006", normalized)
	return err == nil
}

// NormalizeDate replaces dash separators with slashes, matching the
// display format the profile API expects.
func NormalizeDate(s string) string {
	return strings.ReplaceAll(s, "-", "/")
}
