// Package parquetio exports and re-reads the final patient-year table as
// Parquet.
package parquetio

import "github.com/gyeh/glpstats/internal/model"

// Row is the Parquet layout of one patient-year.
type Row struct {
	PatientID   string  `parquet:"pat_id"`
	Year        int32   `parquet:"year"`
	Age         *int32  `parquet:"age,optional"`
	Sex         *string `parquet:"der_sex,optional"`
	State       *string `parquet:"pat_state,optional"`
	Zip3        *string `parquet:"pat_zip3,optional"`
	PayType     *string `parquet:"pay_type,optional"`
	Condition   *string `parquet:"condition,optional"`
	Prescribed  bool    `parquet:"glp1ra"`
	WeightedZip *string `parquet:"weighted_zip,optional"`
	CountyFIPS  *string `parquet:"county_fips,optional"`

	Population              *float64 `parquet:"population,optional"`
	AgeMedian               *float64 `parquet:"age_median,optional"`
	Age40s                  *float64 `parquet:"age_40s,optional"`
	Age50s                  *float64 `parquet:"age_50s,optional"`
	Age60s                  *float64 `parquet:"age_60s,optional"`
	IncomeHouseholdMedian   *float64 `parquet:"income_household_median,optional"`
	IncomeIndividualMedian  *float64 `parquet:"income_individual_median,optional"`
	Poverty                 *float64 `parquet:"poverty,optional"`
	UnemploymentRate        *float64 `parquet:"unemployment_rate,optional"`
	EducationLessHighschool *float64 `parquet:"education_less_highschool,optional"`
	EducationHighschool     *float64 `parquet:"education_highschool,optional"`
	EducationSomeCollege    *float64 `parquet:"education_some_college,optional"`
	EducationBachelors      *float64 `parquet:"education_bachelors,optional"`
	EducationGraduate       *float64 `parquet:"education_graduate,optional"`
	RaceWhite               *float64 `parquet:"race_white,optional"`
	RaceBlack               *float64 `parquet:"race_black,optional"`
	RaceAsian               *float64 `parquet:"race_asian,optional"`
	Hispanic                *float64 `parquet:"hispanic,optional"`
	HealthUninsured         *float64 `parquet:"health_uninsured,optional"`
	FamilySize              *float64 `parquet:"family_size,optional"`
	FamilyDualIncome        *float64 `parquet:"family_dual_income,optional"`
}

// FromPatientYear converts a patient-year to its Parquet row.
func FromPatientYear(p *model.PatientYear) Row {
	n := &p.Neighborhood
	r := Row{
		PatientID:   p.PatientID,
		Year:        int32(p.Year),
		Sex:         p.Sex,
		State:       p.State,
		Zip3:        p.Zip3,
		PayType:     p.PayType,
		Condition:   p.Condition,
		Prescribed:  p.Prescribed,
		WeightedZip: p.WeightedZip,
		CountyFIPS:  p.CountyFIPS,

		Population:              n.Population,
		AgeMedian:               n.AgeMedian,
		Age40s:                  n.Age40s,
		Age50s:                  n.Age50s,
		Age60s:                  n.Age60s,
		IncomeHouseholdMedian:   n.IncomeHouseholdMedian,
		IncomeIndividualMedian:  n.IncomeIndividualMedian,
		Poverty:                 n.Poverty,
		UnemploymentRate:        n.UnemploymentRate,
		EducationLessHighschool: n.EducationLessHighschool,
		EducationHighschool:     n.EducationHighschool,
		EducationSomeCollege:    n.EducationSomeCollege,
		EducationBachelors:      n.EducationBachelors,
		EducationGraduate:       n.EducationGraduate,
		RaceWhite:               n.RaceWhite,
		RaceBlack:               n.RaceBlack,
		RaceAsian:               n.RaceAsian,
		Hispanic:                n.Hispanic,
		HealthUninsured:         n.HealthUninsured,
		FamilySize:              n.FamilySize,
		FamilyDualIncome:        n.FamilyDualIncome,
	}
	if p.Age != nil {
		a := int32(*p.Age)
		r.Age = &a
	}
	return r
}

// PatientYear converts the row back to the domain type.
func (r *Row) PatientYear() model.PatientYear {
	p := model.PatientYear{
		PatientID:   r.PatientID,
		Year:        int(r.Year),
		Sex:         r.Sex,
		State:       r.State,
		Zip3:        r.Zip3,
		PayType:     r.PayType,
		Condition:   r.Condition,
		Prescribed:  r.Prescribed,
		WeightedZip: r.WeightedZip,
		CountyFIPS:  r.CountyFIPS,
		Neighborhood: model.Neighborhood{
			Population:              r.Population,
			AgeMedian:               r.AgeMedian,
			Age40s:                  r.Age40s,
			Age50s:                  r.Age50s,
			Age60s:                  r.Age60s,
			IncomeHouseholdMedian:   r.IncomeHouseholdMedian,
			IncomeIndividualMedian:  r.IncomeIndividualMedian,
			Poverty:                 r.Poverty,
			UnemploymentRate:        r.UnemploymentRate,
			EducationLessHighschool: r.EducationLessHighschool,
			EducationHighschool:     r.EducationHighschool,
			EducationSomeCollege:    r.EducationSomeCollege,
			EducationBachelors:      r.EducationBachelors,
			EducationGraduate:       r.EducationGraduate,
			RaceWhite:               r.RaceWhite,
			RaceBlack:               r.RaceBlack,
			RaceAsian:               r.RaceAsian,
			Hispanic:                r.Hispanic,
			HealthUninsured:         r.HealthUninsured,
			FamilySize:              r.FamilySize,
			FamilyDualIncome:        r.FamilyDualIncome,
		},
	}
	if r.Age != nil {
		a := int(*r.Age)
		p.Age = &a
	}
	return p
}
