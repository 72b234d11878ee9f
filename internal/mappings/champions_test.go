package mappings

import "testing"

func TestChampionRegistry_UnloadedReturnsUnknown(t *testing.T) {
	r := NewChampionRegistry()

	if r.Loaded() {
		t.Error("Expected fresh registry to report not loaded")
	}
	if got := r.Name(103); got != Unknown {
		t.Errorf("Expected %q before load, got %q", Unknown, got)
	}
	if r.Version() != "" {
		t.Errorf("Expected empty version before load, got %q", r.Version())
	}
}
