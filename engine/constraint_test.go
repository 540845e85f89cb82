package engine

import "testing"

func mustVersion(t *testing.T, s string) Version {
	t.Helper()
	v, err := NewVersion(s)
	if err != nil {
		t.Fatalf("NewVersion(%q): %v", s, err)
	}
	return v
}

func TestConstraintAdmits(t *testing.T) {
	lower := mustVersion(t, "1.0.0")
	upper := mustVersion(t, "2.0.0")
	c := Range(lower, true, upper, false)

	cases := []struct {
		v    string
		want bool
	}{
		{"1.0.0", true},
		{"1.5.0", true},
		{"2.0.0", false},
		{"0.9.0", false},
	}
	for _, tc := range cases {
		if got := c.Admits(mustVersion(t, tc.v)); got != tc.want {
			t.Errorf("Admits(%s) = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestExactIsExact(t *testing.T) {
	v := mustVersion(t, "1.0.0")
	c := Exact(v)
	if !c.IsExact() {
		t.Errorf("Exact(%s).IsExact() = false, want true", v)
	}
	if !c.Admits(v) {
		t.Errorf("Exact(%s) should admit itself", v)
	}
	if c.Admits(mustVersion(t, "1.0.1")) {
		t.Errorf("Exact(%s) should admit nothing else", v)
	}
}

func TestRangeIsNotExact(t *testing.T) {
	c := Range(mustVersion(t, "1.0.0"), true, mustVersion(t, "2.0.0"), false)
	if c.IsExact() {
		t.Errorf("a half-open range should not be exact")
	}
}
