package engine

import "fmt"

// Constraint is a lower/upper bound over Version (spec §3). Elm-style
// constraints are always of the form "lower <= v < upper" or
// "lower <= v <= upper"; both bounds are inclusive-configurable so a
// single exact version can be expressed as Lower==Upper with both
// bounds inclusive.
type Constraint struct {
	Lower          Version
	LowerInclusive bool
	Upper          Version
	UpperInclusive bool
}

// Exact builds a Constraint that admits exactly one version.
func Exact(v Version) Constraint {
	return Constraint{Lower: v, LowerInclusive: true, Upper: v, UpperInclusive: true}
}

// Range builds a general lower/upper bound constraint.
func Range(lower Version, lowerIncl bool, upper Version, upperIncl bool) Constraint {
	return Constraint{Lower: lower, LowerInclusive: lowerIncl, Upper: upper, UpperInclusive: upperIncl}
}

// Admits reports whether v satisfies the constraint.
func (c Constraint) Admits(v Version) bool {
	lc := v.Compare(c.Lower)
	if lc < 0 || (lc == 0 && !c.LowerInclusive) {
		return false
	}
	uc := v.Compare(c.Upper)
	if uc > 0 || (uc == 0 && !c.UpperInclusive) {
		return false
	}
	return true
}

// IsExact reports whether the constraint admits exactly one version.
func (c Constraint) IsExact() bool {
	return c.LowerInclusive && c.UpperInclusive && c.Lower == c.Upper
}

// Equal reports whether two constraints admit precisely the same set of versions.
func (c Constraint) Equal(o Constraint) bool {
	return c == o
}

func (c Constraint) String() string {
	lb, ub := "<=", "<"
	if !c.LowerInclusive {
		lb = "<"
	}
	if c.UpperInclusive {
		ub = "<="
	}
	return fmt.Sprintf("%s %s v %s %s", c.Lower, lb, ub, c.Upper)
}
