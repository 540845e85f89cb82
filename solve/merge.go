package solve

import (
	"github.com/elm-tooling/elm-details/engine"
)

// MergeAppInput combines an application outline's dependency maps into the
// constraint set Solve is actually seeded with, applying the
// duplicate-checking rules of spec §4.C:
//
//   - indirect ∪ testDirect must be pairwise unique
//   - direct ∪ testIndirect must be pairwise unique
//   - direct ∪ testDirect may repeat a package only if both sides pin the
//     identical exact version; otherwise HandEditedDependencies
//
// Per spec §4.C the solver is seeded with direct ∪ testDirect only.
// indirect and testIndirect are deliberately left out of this merge: they
// are lock-file-style pins the solution must already satisfy, not input
// to search, and folding them in here would make a cross-category
// duplicate (the same package pinned once as direct and once as
// indirect) invisible the moment the two maps collapsed into one entry.
// CheckAppSolutionComplete verifies them against the resulting solution
// instead.
func MergeAppInput(direct, indirect, testDirect, testIndirect map[engine.PkgName]engine.Version) (map[engine.PkgName]engine.Constraint, error) {
	if err := pairwiseUnique(indirect, testDirect); err != nil {
		return nil, err
	}
	if err := pairwiseUnique(direct, testIndirect); err != nil {
		return nil, err
	}

	out := make(map[engine.PkgName]engine.Constraint, len(direct)+len(testDirect))
	add := func(m map[engine.PkgName]engine.Version) error {
		for p, v := range m {
			if have, ok := out[p]; ok {
				if !have.IsExact() || have.Lower != v {
					return engine.HandEditedDependencies()
				}
				continue
			}
			out[p] = engine.Exact(v)
		}
		return nil
	}
	for _, m := range []map[engine.PkgName]engine.Version{direct, testDirect} {
		if err := add(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// pairwiseUnique fails with HandEditedDependencies if any package name
// appears in both a and b.
func pairwiseUnique(a, b map[engine.PkgName]engine.Version) error {
	for p := range a {
		if _, ok := b[p]; ok {
			return engine.HandEditedDependencies()
		}
	}
	return nil
}

// CheckAppSolutionComplete verifies a solution reached from direct ∪
// testDirect (see MergeAppInput) against all four declared maps (spec
// §4.C "size equality check"): the solved package count must equal the
// sum of every declared map's size, not the size of any already-deduped
// merge of them — a package hand-edited into both direct and indirect
// with the identical version would otherwise collapse into one entry on
// either side of the comparison and the duplicate would go unnoticed.
// indirect and testIndirect are also checked against the solution
// directly, since they never reached the solver as input at all.
func CheckAppSolutionComplete(direct, indirect, testDirect, testIndirect map[engine.PkgName]engine.Version, solved Solution) error {
	total := len(direct) + len(indirect) + len(testDirect) + len(testIndirect)
	if total != len(solved) {
		return engine.HandEditedDependencies()
	}
	for p, v := range indirect {
		if entry, ok := solved[p]; !ok || entry.Version != v {
			return engine.HandEditedDependencies()
		}
	}
	for p, v := range testIndirect {
		if entry, ok := solved[p]; !ok || entry.Version != v {
			return engine.HandEditedDependencies()
		}
	}
	return nil
}

// MergePkgInput combines a package outline's deps and testDeps into the
// constraint set handed to Solve, applying spec §4.C's noDups rule: direct
// ∪ testDeps must have no duplicate package names at all.
func MergePkgInput(deps, testDeps map[engine.PkgName]engine.Constraint) (map[engine.PkgName]engine.Constraint, error) {
	out := make(map[engine.PkgName]engine.Constraint, len(deps)+len(testDeps))
	for p, c := range deps {
		out[p] = c
	}
	for p, c := range testDeps {
		if _, ok := out[p]; ok {
			return nil, engine.HandEditedDependencies()
		}
		out[p] = c
	}
	return out, nil
}
