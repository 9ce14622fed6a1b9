package normalize

import "testing"

func TestZip3(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12345", "123"},
		{"123-45", "123"},
		{"1234", "012"},
		{"501", "501"},
		{"7", "007"},
		{"123456789", "123"},
	}
	for _, tt := range tests {
		got := Zip3(&tt.in)
		if got == nil || *got != tt.want {
			t.Errorf("Zip3(%q): got %v, want %q", tt.in, got, tt.want)
		}
	}
	blank := "-"
	if got := Zip3(&blank); got != nil {
		t.Errorf("Zip3(%q): got %q, want nil", blank, *got)
	}
	if Zip3(nil) != nil {
		t.Error("Zip3(nil) should be nil")
	}
}
