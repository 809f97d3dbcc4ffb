package fingerprint

import (
	"errors"
	"strings"
	"testing"
)

func TestCompute_Deterministic(t *testing.T) {
	a, err := Compute("ai trends in 2024", []string{"src_001", "src_002", "src_003"}, 500)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	b, err := Compute("ai trends in 2024", []string{"src_001", "src_002", "src_003"}, 500)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if a != b {
		t.Errorf("Compute() not deterministic: %q != %q", a, b)
	}
	if len(a) != Size {
		t.Errorf("fingerprint length = %d, want %d", len(a), Size)
	}
}

func TestCompute_SourceOrderInvariant(t *testing.T) {
	a, _ := Compute("ai trends in 2024", []string{"src_003", "src_001", "src_002"}, 500)
	b, _ := Compute("ai trends in 2024", []string{"src_002", "src_003", "src_001"}, 500)
	if a != b {
		t.Errorf("source ordering changed fingerprint: %q != %q", a, b)
	}
}

func TestCompute_QueryNormalization(t *testing.T) {
	a, _ := Compute("  AI Trends In 2024 ", []string{"src_001"}, 500)
	b, _ := Compute("ai trends in 2024", []string{"src_001"}, 500)
	if a != b {
		t.Errorf("normalization failed: %q != %q", a, b)
	}
}

func TestCompute_Sensitivity(t *testing.T) {
	base, _ := Compute("ai trends in 2024", []string{"src_001", "src_002"}, 500)

	mutations := []struct {
		name      string
		query     string
		sourceIDs []string
		price     int64
	}{
		{"query changed", "ai trends in 2025", []string{"src_001", "src_002"}, 500},
		{"source added", "ai trends in 2024", []string{"src_001", "src_002", "src_003"}, 500},
		{"source removed", "ai trends in 2024", []string{"src_001"}, 500},
		{"source swapped", "ai trends in 2024", []string{"src_001", "src_004"}, 500},
		{"price changed", "ai trends in 2024", []string{"src_001", "src_002"}, 700},
	}

	for _, m := range mutations {
		got, err := Compute(m.query, m.sourceIDs, m.price)
		if err != nil {
			t.Fatalf("%s: Compute() error = %v", m.name, err)
		}
		if got == base {
			t.Errorf("%s: fingerprint did not change", m.name)
		}
	}
}

func TestCompute_EmptySourceSet(t *testing.T) {
	_, err := Compute("ai trends in 2024", nil, 500)
	if !errors.Is(err, ErrEmptySourceSet) {
		t.Errorf("Compute() error = %v, want ErrEmptySourceSet", err)
	}
}

func TestCompute_TooManySources(t *testing.T) {
	ids := make([]string, MaxSources+1)
	for i := range ids {
		ids[i] = strings.Repeat("s", 3)
	}
	_, err := Compute("q", ids, 100)
	if !errors.Is(err, ErrTooManySources) {
		t.Errorf("Compute() error = %v, want ErrTooManySources", err)
	}
}

func TestCompute_NegativePrice(t *testing.T) {
	_, err := Compute("q", []string{"src_001"}, -1)
	if !errors.Is(err, ErrNegativePrice) {
		t.Errorf("Compute() error = %v, want ErrNegativePrice", err)
	}
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	ids := []string{"src_003", "src_001", "src_002"}
	Compute("q", ids, 100)
	if ids[0] != "src_003" || ids[1] != "src_001" || ids[2] != "src_002" {
		t.Errorf("input slice was reordered: %v", ids)
	}
}
