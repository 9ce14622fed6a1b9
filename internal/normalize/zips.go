package normalize

import (
	"regexp"
	"strings"
)

var (
	zip3Pattern = regexp.MustCompile(`^\d{3}$`)
	nonDigit    = regexp.MustCompile(`\D`)
)

// ZeroPad left-pads s with zeros to width. Longer values are returned as-is.
func ZeroPad(s string, width int) string {
	s = strings.TrimSpace(s)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// IsValidZip3 reports whether s is exactly three digits.
func IsValidZip3(s *string) bool {
	return s != nil && zip3Pattern.MatchString(*s)
}

// Zip3 extracts a three-digit postal prefix from a raw value. "12345" and
// "123-45" give "123". Four digits are a zip5 that lost its leading zero
// ("1234" gives "012"); one or two digits are a prefix that lost leading
// zeros ("7" gives "007"). Returns nil when no digits remain.
func Zip3(raw *string) *string {
	if raw == nil {
		return nil
	}
	d := nonDigit.ReplaceAllString(*raw, "")
	if d == "" {
		return nil
	}
	if len(d) == 4 {
		d = "0" + d
	}
	if len(d) > 3 {
		d = d[:3]
	}
	d = ZeroPad(d, 3)
	return &d
}

// Zip5 zero-pads a five-digit zip ("501" gives "00501"). Returns "" for blanks.
func Zip5(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	// Numeric exports sometimes carry a trailing ".0".
	raw = strings.TrimSuffix(raw, ".0")
	return ZeroPad(raw, 5)
}

// CountyFIPS zero-pads a county FIPS code to five digits.
func CountyFIPS(raw string) string {
	return Zip5(raw)
}
