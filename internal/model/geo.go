package model

// Neighborhood holds the zip-level socioeconomic attributes attached to a
// patient-year through its weighted zip.
type Neighborhood struct {
	Population              *float64
	AgeMedian               *float64
	Age40s                  *float64
	Age50s                  *float64
	Age60s                  *float64
	IncomeHouseholdMedian   *float64
	IncomeIndividualMedian  *float64
	Poverty                 *float64
	UnemploymentRate        *float64
	EducationLessHighschool *float64
	EducationHighschool     *float64
	EducationSomeCollege    *float64
	EducationBachelors      *float64
	EducationGraduate       *float64
	RaceWhite               *float64
	RaceBlack               *float64
	RaceAsian               *float64
	Hispanic                *float64
	HealthUninsured         *float64
	FamilySize              *float64
	FamilyDualIncome        *float64
}

// NeighborhoodField binds a zip-demographics column to its Neighborhood field.
type NeighborhoodField struct {
	Column string
	Ptr    func(n *Neighborhood) **float64
}

// NeighborhoodFields lists the attributes in output column order.
var NeighborhoodFields = []NeighborhoodField{
	{Column: "population", Ptr: func(n *Neighborhood) **float64 { return &n.Population }},
	{Column: "age_median", Ptr: func(n *Neighborhood) **float64 { return &n.AgeMedian }},
	{Column: "age_40s", Ptr: func(n *Neighborhood) **float64 { return &n.Age40s }},
	{Column: "age_50s", Ptr: func(n *Neighborhood) **float64 { return &n.Age50s }},
	{Column: "age_60s", Ptr: func(n *Neighborhood) **float64 { return &n.Age60s }},
	{Column: "income_household_median", Ptr: func(n *Neighborhood) **float64 { return &n.IncomeHouseholdMedian }},
	{Column: "income_individual_median", Ptr: func(n *Neighborhood) **float64 { return &n.IncomeIndividualMedian }},
	{Column: "poverty", Ptr: func(n *Neighborhood) **float64 { return &n.Poverty }},
	{Column: "unemployment_rate", Ptr: func(n *Neighborhood) **float64 { return &n.UnemploymentRate }},
	{Column: "education_less_highschool", Ptr: func(n *Neighborhood) **float64 { return &n.EducationLessHighschool }},
	{Column: "education_highschool", Ptr: func(n *Neighborhood) **float64 { return &n.EducationHighschool }},
	{Column: "education_some_college", Ptr: func(n *Neighborhood) **float64 { return &n.EducationSomeCollege }},
	{Column: "education_bachelors", Ptr: func(n *Neighborhood) **float64 { return &n.EducationBachelors }},
	{Column: "education_graduate", Ptr: func(n *Neighborhood) **float64 { return &n.EducationGraduate }},
	{Column: "race_white", Ptr: func(n *Neighborhood) **float64 { return &n.RaceWhite }},
	{Column: "race_black", Ptr: func(n *Neighborhood) **float64 { return &n.RaceBlack }},
	{Column: "race_asian", Ptr: func(n *Neighborhood) **float64 { return &n.RaceAsian }},
	{Column: "hispanic", Ptr: func(n *Neighborhood) **float64 { return &n.Hispanic }},
	{Column: "health_uninsured", Ptr: func(n *Neighborhood) **float64 { return &n.HealthUninsured }},
	{Column: "family_size", Ptr: func(n *Neighborhood) **float64 { return &n.FamilySize }},
	{Column: "family_dual_income", Ptr: func(n *Neighborhood) **float64 { return &n.FamilyDualIncome }},
}

// NeighborhoodColumns returns just the column names of NeighborhoodFields.
func NeighborhoodColumns() []string {
	cols := make([]string, len(NeighborhoodFields))
	for i, f := range NeighborhoodFields {
		cols[i] = f.Column
	}
	return cols
}

// Complete reports whether every attribute is present.
func (n *Neighborhood) Complete() bool {
	for _, f := range NeighborhoodFields {
		if *f.Ptr(n) == nil {
			return false
		}
	}
	return true
}

// ZipRecord is one row of the zip-demographics reference table.
type ZipRecord struct {
	Zip          string // zero-padded to 5
	State        *string
	CountyFIPS   *string
	Neighborhood Neighborhood
}
