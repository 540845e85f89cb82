package solve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elm-tooling/elm-details/engine"
)

// fakeRegistry is a minimal CandidateSource/DepsSource backed by in-memory
// maps, enough to drive the backtracking search without a real registry.
type fakeRegistry struct {
	versions map[engine.PkgName][]engine.Version
	deps     map[engine.PkgName]map[engine.Version]map[engine.PkgName]engine.Constraint
}

func (f *fakeRegistry) Versions(pkg engine.PkgName) []engine.Version {
	return f.versions[pkg]
}

func (f *fakeRegistry) DependenciesOf(_ context.Context, pkg engine.PkgName, v engine.Version) (map[engine.PkgName]engine.Constraint, error) {
	return f.deps[pkg][v], nil
}

func pkg(name string) engine.PkgName {
	return engine.PkgName{Author: "elm", Project: name}
}

func ver(t *testing.T, s string) engine.Version {
	t.Helper()
	v, err := engine.NewVersion(s)
	require.NoError(t, err)
	return v
}

func exact(t *testing.T, s string) engine.Constraint {
	return engine.Exact(ver(t, s))
}

func TestSolveSimpleDirect(t *testing.T) {
	core := pkg("core")
	reg := &fakeRegistry{
		versions: map[engine.PkgName][]engine.Version{
			core: {ver(t, "1.0.0"), ver(t, "1.0.1")},
		},
		deps: map[engine.PkgName]map[engine.Version]map[engine.PkgName]engine.Constraint{
			core: {ver(t, "1.0.0"): {}, ver(t, "1.0.1"): {}},
		},
	}
	s := &Solver{Registry: reg, Deps: reg}

	lo, hi := ver(t, "1.0.0"), ver(t, "2.0.0")
	sol, err := s.Solve(context.Background(), map[engine.PkgName]engine.Constraint{
		core: engine.Range(lo, true, hi, false),
	})
	require.NoError(t, err)

	got, ok := sol[core]
	require.True(t, ok, "expected %s in solution, got %v", core, sol)
	assert.Equal(t, "1.0.1", got.Version.String(), "want the newest admitted version")
}

func TestSolvePrefersDescendingVersions(t *testing.T) {
	core := pkg("core")
	reg := &fakeRegistry{
		versions: map[engine.PkgName][]engine.Version{
			core: {ver(t, "1.0.0"), ver(t, "1.1.0"), ver(t, "1.2.0")},
		},
		deps: map[engine.PkgName]map[engine.Version]map[engine.PkgName]engine.Constraint{
			core: {
				ver(t, "1.0.0"): {},
				ver(t, "1.1.0"): {},
				ver(t, "1.2.0"): {},
			},
		},
	}
	s := &Solver{Registry: reg, Deps: reg}

	lo, hi := ver(t, "1.0.0"), ver(t, "2.0.0")
	sol, err := s.Solve(context.Background(), map[engine.PkgName]engine.Constraint{
		core: engine.Range(lo, true, hi, false),
	})
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", sol[core].Version.String(), "expected the newest admitted candidate to be tried and accepted first")
}

func TestSolveBacktracksOnTransitiveConflict(t *testing.T) {
	a, b := pkg("a"), pkg("b")
	v1, v2 := ver(t, "1.0.0"), ver(t, "2.0.0")

	reg := &fakeRegistry{
		versions: map[engine.PkgName][]engine.Version{
			a: {v1, v2},
			b: {v1},
		},
		deps: map[engine.PkgName]map[engine.Version]map[engine.PkgName]engine.Constraint{
			// a@2.0.0 requires b@2.0.0, which doesn't exist; a@1.0.0 needs
			// b@1.0.0, which does, so the solver must backtrack to it.
			a: {
				v2: {b: engine.Exact(v2)},
				v1: {b: engine.Exact(v1)},
			},
			b: {v1: {}},
		},
	}
	s := &Solver{Registry: reg, Deps: reg}

	lo, hi := ver(t, "1.0.0"), ver(t, "3.0.0")
	sol, err := s.Solve(context.Background(), map[engine.PkgName]engine.Constraint{
		a: engine.Range(lo, true, hi, false),
	})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", sol[a].Version.String(), "expected backtracking to settle on a@1.0.0 after b@2.0.0 proved unsatisfiable")
	assert.Equal(t, "1.0.0", sol[b].Version.String())
}

func TestSolveNoSolution(t *testing.T) {
	core := pkg("core")
	reg := &fakeRegistry{
		versions: map[engine.PkgName][]engine.Version{
			core: {ver(t, "1.0.0")},
		},
		deps: map[engine.PkgName]map[engine.Version]map[engine.PkgName]engine.Constraint{
			core: {ver(t, "1.0.0"): {}},
		},
	}
	s := &Solver{Registry: reg, Deps: reg}

	lo, hi := ver(t, "2.0.0"), ver(t, "3.0.0")
	_, err := s.Solve(context.Background(), map[engine.PkgName]engine.Constraint{
		core: engine.Range(lo, true, hi, false),
	})
	eerr, ok := err.(*engine.Error)
	require.True(t, ok, "expected an *engine.Error, got %T", err)
	assert.Equal(t, engine.KindNoSolution, eerr.Kind)
}

func TestMergeAppInputHandEditedOnOverlap(t *testing.T) {
	core := pkg("core")
	direct := map[engine.PkgName]engine.Version{core: ver(t, "1.0.0")}
	testIndirect := map[engine.PkgName]engine.Version{core: ver(t, "1.0.0")}

	_, err := MergeAppInput(direct, nil, nil, testIndirect)
	eerr, ok := err.(*engine.Error)
	require.True(t, ok)
	assert.Equal(t, engine.KindHandEditedDependencies, eerr.Kind, "a package declared in both direct and test-indirect is hand-edited")
}

func TestMergeAppInputAllowsIdenticalDup(t *testing.T) {
	core := pkg("core")
	direct := map[engine.PkgName]engine.Version{core: ver(t, "1.0.0")}
	testDirect := map[engine.PkgName]engine.Version{core: ver(t, "1.0.0")}

	out, err := MergeAppInput(direct, nil, testDirect, nil)
	require.NoError(t, err, "identical pins across direct/testDirect should not be hand-edited")
	assert.True(t, out[core].IsExact())
}

func TestMergeAppInputConflictingPinsHandEdited(t *testing.T) {
	core := pkg("core")
	direct := map[engine.PkgName]engine.Version{core: ver(t, "1.0.0")}
	testDirect := map[engine.PkgName]engine.Version{core: ver(t, "1.0.1")}

	_, err := MergeAppInput(direct, nil, testDirect, nil)
	eerr, ok := err.(*engine.Error)
	require.True(t, ok)
	assert.Equal(t, engine.KindHandEditedDependencies, eerr.Kind)
}

func TestMergeAppInputDoesNotFoldInIndirect(t *testing.T) {
	core := pkg("core")
	direct := map[engine.PkgName]engine.Version{core: ver(t, "1.0.0")}
	// indirect disagrees with direct on core's version; MergeAppInput must
	// not notice, since indirect is never folded into the solver input
	// (scenario 4 is caught downstream by CheckAppSolutionComplete instead).
	indirect := map[engine.PkgName]engine.Version{core: ver(t, "9.9.9")}

	out, err := MergeAppInput(direct, indirect, nil, nil)
	require.NoError(t, err)
	assert.Len(t, out, 1, "only direct/testDirect should reach the solver input")
}

func TestCheckAppSolutionCompleteSizeMismatch(t *testing.T) {
	core, json := pkg("core"), pkg("json")
	direct := map[engine.PkgName]engine.Version{
		core: ver(t, "1.0.0"),
		json: ver(t, "1.0.0"),
	}
	solved := Solution{core: engine.SolverDetailsEntry{Version: ver(t, "1.0.0")}}

	err := CheckAppSolutionComplete(direct, nil, nil, nil, solved)
	eerr, ok := err.(*engine.Error)
	require.True(t, ok)
	assert.Equal(t, engine.KindHandEditedDependencies, eerr.Kind)
}

func TestCheckAppSolutionCompleteCrossCategoryDupHandEdited(t *testing.T) {
	core := pkg("core")
	direct := map[engine.PkgName]engine.Version{core: ver(t, "1.0.0")}
	indirect := map[engine.PkgName]engine.Version{core: ver(t, "1.0.0")}
	// The same package pinned (identically) in both direct and indirect
	// collapses to one solved entry; the declared-size sum must still
	// catch it even though every individual version agrees.
	solved := Solution{core: engine.SolverDetailsEntry{Version: ver(t, "1.0.0")}}

	err := CheckAppSolutionComplete(direct, indirect, nil, nil, solved)
	eerr, ok := err.(*engine.Error)
	require.True(t, ok, "expected a package hand-edited into both direct and indirect to be rejected")
	assert.Equal(t, engine.KindHandEditedDependencies, eerr.Kind)
}

func TestCheckAppSolutionCompleteIndirectVersionMismatch(t *testing.T) {
	core := pkg("core")
	indirect := map[engine.PkgName]engine.Version{core: ver(t, "1.0.0")}
	solved := Solution{core: engine.SolverDetailsEntry{Version: ver(t, "1.0.1")}}

	err := CheckAppSolutionComplete(nil, indirect, nil, nil, solved)
	eerr, ok := err.(*engine.Error)
	require.True(t, ok, "an indirect pin that disagrees with the solved version is hand-edited")
	assert.Equal(t, engine.KindHandEditedDependencies, eerr.Kind)
}

func TestCheckAppSolutionCompleteOk(t *testing.T) {
	core := pkg("core")
	direct := map[engine.PkgName]engine.Version{core: ver(t, "1.0.0")}
	solved := Solution{core: engine.SolverDetailsEntry{Version: ver(t, "1.0.0")}}

	require.NoError(t, CheckAppSolutionComplete(direct, nil, nil, nil, solved))
}

func TestMergePkgInputNoDups(t *testing.T) {
	core := pkg("core")
	deps := map[engine.PkgName]engine.Constraint{core: exact(t, "1.0.0")}
	testDeps := map[engine.PkgName]engine.Constraint{core: exact(t, "1.0.1")}

	_, err := MergePkgInput(deps, testDeps)
	eerr, ok := err.(*engine.Error)
	require.True(t, ok)
	assert.Equal(t, engine.KindHandEditedDependencies, eerr.Kind)
}
