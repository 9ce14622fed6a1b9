// Package rural classifies counties as urban or rural from tract-level
// RUCA descriptions.
package rural

import (
	"strconv"
	"strings"

	"github.com/gyeh/glpstats/internal/normalize"
)

// Class is a rural/urban classification.
type Class string

const (
	Urban   Class = "Urban"
	Rural   Class = "Rural"
	Unknown Class = "Unknown"
)

var (
	urbanKeywords = []string{
		"metropolitan core",
		"metropolitan high commuting",
		"metropolitan low commuting",
		"micropolitan core",
		"micropolitan high commuting",
		"micropolitan low commuting",
	}
	ruralKeywords = []string{
		"rural area",
		"small town core",
		"small town high commuting",
		"small town low commuting",
	}
)

// Classify maps a RUCA description, or a bare numeric RUCA code, to a Class.
// Urban keywords are checked before rural ones. Codes 1-3 are urban and 4-10
// rural.
func Classify(desc *string) Class {
	if desc == nil {
		return Unknown
	}
	d := strings.ToLower(strings.TrimSpace(*desc))
	if d == "" || d == "not coded" {
		return Unknown
	}
	for _, k := range urbanKeywords {
		if strings.Contains(d, k) {
			return Urban
		}
	}
	for _, k := range ruralKeywords {
		if strings.Contains(d, k) {
			return Rural
		}
	}
	if code, err := strconv.Atoi(d); err == nil {
		switch {
		case code >= 1 && code <= 3:
			return Urban
		case code >= 4 && code <= 10:
			return Rural
		}
	}
	return Unknown
}

// Tract is one row of the tract-level RUCA table.
type Tract struct {
	CountyFIPS  string
	Description string
}

// CountyModes returns the most common description per county, with county
// FIPS padded to 5. Ties go to the lexicographically smallest description.
func CountyModes(tracts []Tract) map[string]string {
	counts := make(map[string]map[string]int)
	for _, t := range tracts {
		county := normalize.CountyFIPS(t.CountyFIPS)
		desc := strings.TrimSpace(t.Description)
		if county == "" || desc == "" {
			continue
		}
		c, ok := counts[county]
		if !ok {
			c = make(map[string]int)
			counts[county] = c
		}
		c[desc]++
	}

	modes := make(map[string]string, len(counts))
	for county, c := range counts {
		best, bestN := "", 0
		for desc, n := range c {
			if n > bestN || (n == bestN && desc < best) {
				best, bestN = desc, n
			}
		}
		modes[county] = best
	}
	return modes
}
