package model

import "github.com/gyeh/glpstats/internal/normalize"

// CodeSet is a set of normalized diagnosis or drug codes. Membership is the
// only operation.
type CodeSet map[string]struct{}

// NewCodeSet normalizes codes into a set; blank codes are ignored.
func NewCodeSet(codes ...string) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		if n, ok := normalize.NormalizeCode(c); ok {
			s[n] = struct{}{}
		}
	}
	return s
}

// Contains reports whether code, after normalization, is in the set.
func (s CodeSet) Contains(code string) bool {
	n, ok := normalize.NormalizeCode(code)
	if !ok {
		return false
	}
	_, hit := s[n]
	return hit
}

// ContainsAny reports whether any of codes is in the set.
func (s CodeSet) ContainsAny(codes []string) bool {
	for _, c := range codes {
		if s.Contains(c) {
			return true
		}
	}
	return false
}
