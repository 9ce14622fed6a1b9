package model

// Condition is the cohort category of a claim or patient-year.
type Condition string

const (
	ConditionNone    Condition = ""
	ConditionObesity Condition = "Obesity"
	ConditionT2D     Condition = "T2D"
	ConditionBoth    Condition = "Both"
)

// Valid reports whether c is one of the labelled cohort categories.
func (c Condition) Valid() bool {
	switch c {
	case ConditionObesity, ConditionT2D, ConditionBoth:
		return true
	}
	return false
}
