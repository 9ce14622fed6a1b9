package normalize

import (
	"strconv"
	"strings"
)

// missingTokens are the spellings of an absent value seen in extracts and
// in dataframe output.
var missingTokens = map[string]bool{
	"":     true,
	".":    true,
	"NaN":  true,
	"nan":  true,
	"NA":   true,
	"<NA>": true,
	"None": true,
}

// IsMissing reports whether s spells a missing value.
func IsMissing(s string) bool {
	return missingTokens[strings.TrimSpace(s)]
}

// OptStr trims s and returns nil if it spells a missing value.
func OptStr(s string) *string {
	s = strings.TrimSpace(s)
	if missingTokens[s] {
		return nil
	}
	return &s
}

// DerefStr returns the pointed-to string or "".
func DerefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// OptInt parses an integer, accepting float spellings such as "1985.0".
// Returns nil for missing or unparseable values.
func OptInt(s string) *int {
	p := OptStr(s)
	if p == nil {
		return nil
	}
	if v, err := strconv.Atoi(*p); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(*p, 64)
	if err != nil || f != float64(int(f)) {
		return nil
	}
	v := int(f)
	return &v
}

// OptInt64 is OptInt for counts.
func OptInt64(s string) *int64 {
	v := OptInt(s)
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

// OptFloat parses a float, returning nil for missing or unparseable values.
func OptFloat(s string) *float64 {
	p := OptStr(s)
	if p == nil {
		return nil
	}
	f, err := strconv.ParseFloat(*p, 64)
	if err != nil {
		return nil
	}
	return &f
}

// State upper-cases a state abbreviation; nil for missing values.
func State(s string) *string {
	p := OptStr(s)
	if p == nil {
		return nil
	}
	v := strings.ToUpper(*p)
	return &v
}
