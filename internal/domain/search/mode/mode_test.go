package mode

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Mode{Hierarchical, Flat}
	for _, m := range valid {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}

	invalid := []Mode{"", "hybrid", "semantic", "FLAT"}
	for _, m := range invalid {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}

func TestConstants(t *testing.T) {
	if Hierarchical != "hierarchical" {
		t.Errorf("Hierarchical = %q", Hierarchical)
	}
	if Flat != "flat" {
		t.Errorf("Flat = %q", Flat)
	}
}
