// Package solve implements the constraint solver (spec §4.C): given a set
// of declared dependency constraints, it produces an exact version
// assignment (plus each assigned package's own direct dependencies) by
// depth-first backtracking search over descending candidate versions.
//
// Grounded on the teacher's gps solver (golang-dep's solver.go,
// version_queue.go, typed_radix.go): a queue of next-newest candidates per
// package, and a radix-tree memo of previously-failed (package,
// constraint) pairs so repeated backtracking doesn't re-explore dead
// subtrees.
package solve

import (
	"context"
	"sort"

	radix "github.com/armon/go-radix"
	"github.com/pkg/errors"

	"github.com/elm-tooling/elm-details/engine"
	"github.com/elm-tooling/elm-details/internal/elmlog"
)

// DepsSource supplies a candidate package version's own declared direct
// dependencies, so the solver can recurse. Backed in production by the
// registry's per-package manifest endpoint.
type DepsSource interface {
	DependenciesOf(ctx context.Context, pkg engine.PkgName, v engine.Version) (map[engine.PkgName]engine.Constraint, error)
}

// CandidateSource supplies the known versions of a package, already
// filtered to the registry's knowledge (unfiltered by constraint).
type CandidateSource interface {
	Versions(pkg engine.PkgName) []engine.Version
}

// CacheChecker reports whether a (pkg, version) pair is already unpacked
// locally. It stands for the spec's cached-variant tie-break; the search
// itself never calls it (see orderedCandidates).
type CacheChecker interface {
	IsCached(pkg engine.PkgName, v engine.Version) bool
}

// Solver runs the backtracking search described in spec §4.C.
type Solver struct {
	Registry CandidateSource
	Deps     DepsSource
	Cache    CacheChecker
	Log      *elmlog.Logger

	// AllowEqualDups is true for application outlines (duplicates allowed
	// only when they pin an identical exact version) and false for package
	// outlines (no duplicates). Solve does not read it: those duplicate
	// rules are applied by MergeAppInput/MergePkgInput before Solve runs.
	AllowEqualDups bool
}

// Solution is the solver's successful output: every resolved package's
// exact version plus the direct-dependency constraints it was solved
// against (spec §3's Solver.Details, one per package).
type Solution map[engine.PkgName]engine.SolverDetailsEntry

// Solve performs the search described in spec §4.C over direct, the
// combined (possibly duplicated) constraint set for one root project.
func (s *Solver) Solve(ctx context.Context, direct map[engine.PkgName]engine.Constraint) (Solution, error) {
	st := &search{
		s:        s,
		ctx:      ctx,
		assigned: make(map[engine.PkgName]engine.Version),
		declared: make(map[engine.PkgName]map[engine.PkgName]engine.Constraint),
		failMemo: radix.New(),
	}

	pending := make([]work, 0, len(direct))
	for p, c := range direct {
		pending = append(pending, work{pkg: p, constraint: c})
	}
	// Deterministic order so a given input always explores the same way
	// (spec §9 "Deterministic iteration").
	sort.Slice(pending, func(i, j int) bool { return pending[i].pkg.Compare(pending[j].pkg) < 0 })

	s.Log.Debugf("solving %d direct constraint(s)", len(pending))
	ok, err := st.resolve(pending)
	if err != nil {
		return nil, errors.Wrap(err, "solver")
	}
	if !ok {
		s.Log.Debugf("no solution satisfies every constraint")
		return nil, engine.NoSolution()
	}

	out := make(Solution, len(st.assigned))
	for p, v := range st.assigned {
		out[p] = engine.SolverDetailsEntry{Version: v, DirectDeps: st.declared[p]}
	}
	return out, nil
}

type work struct {
	pkg        engine.PkgName
	constraint engine.Constraint
}

type search struct {
	s        *Solver
	ctx      context.Context
	assigned map[engine.PkgName]engine.Version
	declared map[engine.PkgName]map[engine.PkgName]engine.Constraint
	failMemo *radix.Tree
}

// resolve tries to satisfy every entry in pending, recursively adding each
// candidate's own dependencies to the frontier. It returns false (not an
// error) for an ordinary backtrackable failure.
func (st *search) resolve(pending []work) (bool, error) {
	if len(pending) == 0 {
		return true, nil
	}
	cur := pending[0]
	rest := pending[1:]

	if v, ok := st.assigned[cur.pkg]; ok {
		if !cur.constraint.Admits(v) {
			return false, nil
		}
		return st.resolve(rest)
	}

	memoKey := memoKeyFor(cur.pkg, cur.constraint)
	if _, failed := st.failMemo.Get(memoKey); failed {
		return false, nil
	}

	candidates := st.orderedCandidates(cur.pkg, cur.constraint)
	for _, v := range candidates {
		deps, err := st.s.Deps.DependenciesOf(st.ctx, cur.pkg, v)
		if err != nil {
			return false, errors.Wrapf(err, "reading dependencies of %s %s", cur.pkg, v)
		}

		st.assigned[cur.pkg] = v
		st.declared[cur.pkg] = deps

		next := append(append([]work{}, rest...), expand(deps)...)
		ok, err := st.resolve(next)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}

		// Backtrack.
		delete(st.assigned, cur.pkg)
		delete(st.declared, cur.pkg)
	}

	st.s.Log.Debugf("no admitted version of %s works here, memoizing failure", cur.pkg)
	st.failMemo.Insert(memoKey, true)
	return false, nil
}

func expand(deps map[engine.PkgName]engine.Constraint) []work {
	out := make([]work, 0, len(deps))
	for p, c := range deps {
		out = append(out, work{pkg: p, constraint: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].pkg.Compare(out[j].pkg) < 0 })
	return out
}

// orderedCandidates returns every registry version of pkg admitted by
// constraint, newest first (spec §4.C requires descending order
// unconditionally). The cached-variant tie-break only matters when two
// candidates would otherwise rank equally, which cannot happen here since
// a registry never lists the same version twice; Solver.Cache is not
// consulted here or anywhere else in the search (see DESIGN.md).
func (st *search) orderedCandidates(pkg engine.PkgName, constraint engine.Constraint) []engine.Version {
	all := st.s.Registry.Versions(pkg)
	out := make([]engine.Version, 0, len(all))
	for _, v := range all {
		if constraint.Admits(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].LessThan(out[i]) })
	return out
}

func memoKeyFor(pkg engine.PkgName, c engine.Constraint) string {
	return pkg.String() + "@" + c.String()
}
