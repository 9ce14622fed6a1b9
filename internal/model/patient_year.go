package model

import "strconv"

// PatientYear is one row of the analytical table, unique per (patient, year).
// Fields start nil and are filled by later stages; a filled field is only
// replaced when it is missing or invalid.
type PatientYear struct {
	PatientID  string
	Year       int
	Age        *int
	Sex        *string
	State      *string
	Zip3       *string
	PayType    *string
	Condition  *string
	Prescribed bool

	WeightedZip  *string
	CountyFIPS   *string
	Neighborhood Neighborhood
}

// Key returns the row's (patient, year) key.
func (r *PatientYear) Key() PatientYearKey {
	return PatientYearKey{PatientID: r.PatientID, Year: r.Year}
}

// Clone returns a copy that shares no pointers with r.
func (r *PatientYear) Clone() PatientYear {
	c := *r
	c.Age = cloneInt(r.Age)
	c.Sex = cloneStr(r.Sex)
	c.State = cloneStr(r.State)
	c.Zip3 = cloneStr(r.Zip3)
	c.PayType = cloneStr(r.PayType)
	c.Condition = cloneStr(r.Condition)
	c.WeightedZip = cloneStr(r.WeightedZip)
	c.CountyFIPS = cloneStr(r.CountyFIPS)
	for _, f := range NeighborhoodFields {
		src := *f.Ptr(&r.Neighborhood)
		if src != nil {
			v := *src
			*f.Ptr(&c.Neighborhood) = &v
		}
	}
	return c
}

// PatientYearColumns returns the ordered column names of a patient-year table,
// used for both CSV artifacts and COPY into analytics.patient_years.
func PatientYearColumns() []string {
	cols := []string{
		"pat_id",
		"year",
		"age",
		"der_sex",
		"pat_state",
		"pat_zip3",
		"pay_type",
		"condition",
		"glp1ra",
		"weighted_zip",
		"county_fips",
	}
	return append(cols, NeighborhoodColumns()...)
}

// CopyValues returns the row values in PatientYearColumns order, suitable for
// pgx CopyFromSource.
func (r *PatientYear) CopyValues() []any {
	vals := []any{
		r.PatientID,
		int32(r.Year),
		optInt32(r.Age),
		r.Sex,
		r.State,
		r.Zip3,
		r.PayType,
		r.Condition,
		r.Prescribed,
		r.WeightedZip,
		r.CountyFIPS,
	}
	for _, f := range NeighborhoodFields {
		vals = append(vals, *f.Ptr(&r.Neighborhood))
	}
	return vals
}

// Record returns the row as CSV fields in PatientYearColumns order; nil
// values are written as empty fields.
func (r *PatientYear) Record() []string {
	rec := []string{
		r.PatientID,
		strconv.Itoa(r.Year),
		fmtInt(r.Age),
		deref(r.Sex),
		deref(r.State),
		deref(r.Zip3),
		deref(r.PayType),
		deref(r.Condition),
		fmtBool(r.Prescribed),
		deref(r.WeightedZip),
		deref(r.CountyFIPS),
	}
	for _, f := range NeighborhoodFields {
		rec = append(rec, fmtFloat(*f.Ptr(&r.Neighborhood)))
	}
	return rec
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func optInt32(p *int) *int32 {
	if p == nil {
		return nil
	}
	v := int32(*p)
	return &v
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func fmtInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func fmtFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func fmtBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
