// Package fill merges a working patient-year table against reference
// candidates, filling only fields that are missing or invalid.
package fill

import "github.com/gyeh/glpstats/internal/model"

// Policy decides which side of a merge wins.
type Policy int

const (
	// KeepLeftIfValid keeps the existing value when it is valid and takes
	// the candidate otherwise.
	KeepLeftIfValid Policy = iota
	// PreferRight takes a valid candidate over the existing value.
	PreferRight
)

func (p Policy) String() string {
	switch p {
	case KeepLeftIfValid:
		return "keep-left-if-valid"
	case PreferRight:
		return "prefer-right"
	}
	return "unknown"
}

// Reconcile merges an existing value (left) with a candidate (right). It
// returns the winning value and whether it differs from left. An invalid
// candidate never replaces anything.
func Reconcile[T comparable](left, right *T, valid func(*T) bool, p Policy) (*T, bool) {
	if !valid(right) {
		return left, false
	}
	switch p {
	case PreferRight:
		if left != nil && *left == *right {
			return left, false
		}
		v := *right
		return &v, true
	default:
		if valid(left) {
			return left, false
		}
		v := *right
		return &v, true
	}
}

// NonNil is the validity test for fields where any present value is valid.
func NonNil[T any](v *T) bool {
	return v != nil
}

// Field describes one fillable column of a patient-year row.
type Field struct {
	Name string
	// Missing reports whether the row's value is absent or invalid.
	Missing func(r *model.PatientYear) bool
	// Merge reconciles the row's value with the candidate's and reports
	// whether the row changed.
	Merge func(dst, cand *model.PatientYear) bool
}

// NewField builds a Field whose value lives at the pointer returned by get.
func NewField[T comparable](name string, get func(r *model.PatientYear) **T, valid func(*T) bool, p Policy) Field {
	return Field{
		Name: name,
		Missing: func(r *model.PatientYear) bool {
			return !valid(*get(r))
		},
		Merge: func(dst, cand *model.PatientYear) bool {
			v, changed := Reconcile(*get(dst), *get(cand), valid, p)
			if changed {
				*get(dst) = v
			}
			return changed
		},
	}
}
