package model

// Demographic is a per-patient enrollment snapshot.
type Demographic struct {
	PatientID       string
	Sex             *string
	BirthYear       *int
	Region          *string
	State           *string
	Zip3            *string
	GroupIndividual *string
}

// Specificity counts the populated attributes; the joiner keeps the most
// specific record when a patient appears more than once.
func (d *Demographic) Specificity() int {
	n := 0
	for _, p := range []*string{d.Sex, d.Region, d.State, d.Zip3, d.GroupIndividual} {
		if p != nil {
			n++
		}
	}
	if d.BirthYear != nil {
		n++
	}
	return n
}

// PayerEnrollment is one monthly payer enrollment record.
type PayerEnrollment struct {
	PatientID string
	PayType   *string
	MonthID   string // YYYYMM
}
