package rural

import "testing"

func ptr(s string) *string { return &s }

func TestClassify(t *testing.T) {
	tests := []struct {
		desc *string
		want Class
	}{
		{ptr("Metropolitan area core: primary flow within an urbanized area of 50,000 and greater"), Unknown},
		{ptr("Metropolitan core"), Urban},
		{ptr("Micropolitan high commuting: primary flow 30% or more to a micropolitan area"), Urban},
		{ptr("Small town core"), Rural},
		{ptr("Rural areas: primary flow to a tract outside a UA or UC"), Rural},
		{ptr("Not coded"), Unknown},
		{ptr("2"), Urban},
		{ptr("7"), Rural},
		{ptr("99"), Unknown},
		{ptr(""), Unknown},
		{nil, Unknown},
	}
	for _, tt := range tests {
		name := "<nil>"
		if tt.desc != nil {
			name = *tt.desc
		}
		t.Run(name, func(t *testing.T) {
			if got := Classify(tt.desc); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", name, got, tt.want)
			}
		})
	}
}

func TestCountyModes(t *testing.T) {
	tracts := []Tract{
		{CountyFIPS: "6037", Description: "Metropolitan core"},
		{CountyFIPS: "06037", Description: "Metropolitan core"},
		{CountyFIPS: "06037", Description: "Rural area"},
		{CountyFIPS: "1001", Description: "Small town core"},
		{CountyFIPS: "1001", Description: "Micropolitan core"},
		{CountyFIPS: "", Description: "Rural area"},
	}
	got := CountyModes(tracts)
	if len(got) != 2 {
		t.Fatalf("got %d counties, want 2: %v", len(got), got)
	}
	if got["06037"] != "Metropolitan core" {
		t.Errorf("06037: got %q", got["06037"])
	}
	if got["01001"] != "Micropolitan core" {
		t.Errorf("tie should pick smallest description, got %q", got["01001"])
	}
}
