package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the closed sum of error cases the engine can surface (spec §7).
type Kind int

const (
	_ Kind = iota
	KindBadOutline
	KindBadElmInAppOutline
	KindBadElmInPkg
	KindCannotGetRegistry
	KindNoSolution
	KindNoOfflineSolution
	KindSolverProblem
	KindHandEditedDependencies
	KindBadDeps
)

func (k Kind) String() string {
	switch k {
	case KindBadOutline:
		return "BadOutline"
	case KindBadElmInAppOutline:
		return "BadElmInAppOutline"
	case KindBadElmInPkg:
		return "BadElmInPkg"
	case KindCannotGetRegistry:
		return "CannotGetRegistry"
	case KindNoSolution:
		return "NoSolution"
	case KindNoOfflineSolution:
		return "NoOfflineSolution"
	case KindSolverProblem:
		return "SolverProblem"
	case KindHandEditedDependencies:
		return "HandEditedDependencies"
	case KindBadDeps:
		return "BadDeps"
	default:
		return "UnknownError"
	}
}

// Error is the single tagged error type the engine ever returns to a
// caller. Internally every stage wraps its own failures with
// github.com/pkg/errors so the Cause chain survives; Error is the
// closed sum the driver (package details) surfaces at the top.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func newError(k Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: k, msg: fmt.Sprintf(format, args...), err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// BadOutline wraps a manifest parse/structural failure.
func BadOutline(err error) *Error {
	return newError(KindBadOutline, err, "problem with your manifest")
}

// BadElmInAppOutline reports a compiler-version mismatch in an app outline.
func BadElmInAppOutline(v string) *Error {
	return newError(KindBadElmInAppOutline, nil, "this project needs compiler version %s", v)
}

// BadElmInPkg reports a compiler-version constraint mismatch in a package outline.
func BadElmInPkg(c string) *Error {
	return newError(KindBadElmInPkg, nil, "this package needs compiler version %s", c)
}

// CannotGetRegistry reports the registry being unreachable both online and offline.
func CannotGetRegistry(err error) *Error {
	return newError(KindCannotGetRegistry, err, "cannot load the package registry")
}

// NoSolution reports an exhaustive search finding no assignment.
func NoSolution() *Error {
	return newError(KindNoSolution, nil, "could not find a set of package versions satisfying all constraints")
}

// NoOfflineSolution reports a solve that would need an uncached version while offline.
func NoOfflineSolution() *Error {
	return newError(KindNoOfflineSolution, nil, "could not find a solution using only packages already cached locally")
}

// SolverProblem wraps a registry or parse failure surfaced during solving.
func SolverProblem(err error) *Error {
	return newError(KindSolverProblem, err, "ran into a problem while solving dependencies")
}

// HandEditedDependencies reports a manifest whose dependency lists are mutually inconsistent.
func HandEditedDependencies() *Error {
	return newError(KindHandEditedDependencies, nil, "the dependencies in your manifest look hand-edited and are no longer consistent")
}

// BadDep is one element of a BadDeps aggregate (spec §7).
type BadDep struct {
	Pkg     PkgName
	Version Version
	// Exactly one of Download or Build is non-empty.
	Download error
	Build    error
}

// BadDeps aggregates every per-package failure from a single dependency build run.
func BadDeps(home string, errs []BadDep) *Error {
	e := newError(KindBadDeps, nil, "%d package(s) under %s failed to build", len(errs), home)
	e.err = &badDepsDetail{home: home, errs: errs}
	return e
}

// BadDepsDetails extracts the per-package failures from a BadDeps error, if it is one.
func BadDepsDetails(err error) ([]BadDep, bool) {
	var d *badDepsDetail
	if errors.As(err, &d) {
		return d.errs, true
	}
	return nil, false
}

type badDepsDetail struct {
	home string
	errs []BadDep
}

func (d *badDepsDetail) Error() string {
	return fmt.Sprintf("%d bad dependency build(s) under %s", len(d.errs), d.home)
}
