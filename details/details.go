// Package details implements the Details record and incremental driver
// (spec §4.H/I): load() decides whether a persisted Details can be reused
// or must be regenerated, and generate() orchestrates every other
// component (A manifest loader, B registry client, C solver, F dependency
// builder, G interface gatherer) into one persisted, in-memory result.
//
// Grounded on the teacher's Ctx/NewContext/LoadProject driver (golang-dep's
// context.go): read-manifest, solve, then hand the solution to the
// per-project build step, wrapping every stage's failure with
// github.com/pkg/errors.
package details

import (
	"bytes"
	"context"
	"encoding/gob"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/elm-tooling/elm-details/build"
	"github.com/elm-tooling/elm-details/engine"
	"github.com/elm-tooling/elm-details/fetch"
	"github.com/elm-tooling/elm-details/iface"
	"github.com/elm-tooling/elm-details/internal/elmlog"
	"github.com/elm-tooling/elm-details/outline"
	"github.com/elm-tooling/elm-details/registry"
	"github.com/elm-tooling/elm-details/solve"
	"github.com/elm-tooling/elm-details/writer"
)

const (
	// DetailsFile, InterfacesFile and GlobalGraphFile are the persisted
	// filenames under <root>/elm-stuff/<compiler-version>/ (spec §6).
	DetailsFile     = "d.dat"
	InterfacesFile  = "i.dat"
	GlobalGraphFile = "o.dat"
)

// Env is the incremental driver's collaborator bundle (spec §4.I): every
// external dependency load/generate needs to reach A-H.
type Env struct {
	FS              engine.FileSystem
	HTTP            engine.Fetcher
	Parser          engine.ModuleParser
	Compiler        engine.Compiler
	Home            string // <home>/packages, <home>/registry.dat
	Root            string // project root (holds elm.json, elm-stuff/)
	CompilerVersion engine.Version
	Offline         bool
	Log             *elmlog.Logger
}

func (e *Env) stuffDir() string {
	return path.Join(e.Root, "elm-stuff", e.CompilerVersion.String())
}

func (e *Env) manifestPath() string {
	return path.Join(e.Root, outline.ManifestName)
}

// Load implements spec §4.H's load(root): reuse a persisted Details
// whose oldTime still matches elm.json's current mtime; otherwise
// regenerate from scratch.
func (e *Env) Load(ctx context.Context) (*engine.Details, error) {
	newTime, err := e.FS.ModTime(e.manifestPath())
	if err != nil {
		return nil, engine.BadOutline(errors.Wrap(err, "reading elm.json"))
	}

	priorLocals := map[engine.ModuleNameRaw]engine.Local{}
	data, err := e.FS.ReadBinary(path.Join(e.stuffDir(), DetailsFile))
	if err == nil {
		var persisted engine.Details
		if decErr := gobDecode(data, &persisted); decErr == nil {
			if persisted.OldTime.Equal(newTime) {
				e.Log.Debugf("elm.json unchanged, reusing %s", DetailsFile)
				persisted.BuildID++
				persisted.Extras = engine.Extras{Kind: engine.Cached}
				return &persisted, nil
			}
			priorLocals = persisted.Locals
		}
	}

	e.Log.Logf("regenerating project details\n")
	return e.generate(ctx, newTime, priorLocals)
}

// VerifyInstall mirrors generate() but takes a candidate outline directly
// (rather than reading elm.json) and never persists anything; used by the
// out-of-scope install command to confirm a candidate manifest edit would
// still build (spec §4.H "verifyInstall").
func (e *Env) VerifyInstall(ctx context.Context, raw *engine.RawOutline) error {
	_, err := e.build(ctx, raw, false)
	return err
}

func (e *Env) generate(ctx context.Context, newTime engine.Time, priorLocals map[engine.ModuleNameRaw]engine.Local) (*engine.Details, error) {
	text, err := e.FS.ReadUTF8(e.manifestPath())
	if err != nil {
		return nil, engine.BadOutline(errors.Wrap(err, "reading elm.json"))
	}
	raw, err := outline.Load(strings.NewReader(text))
	if err != nil {
		return nil, err
	}

	d, err := e.build(ctx, raw, false)
	if err != nil {
		return nil, err
	}
	d.OldTime = newTime
	d.Locals = priorLocals
	if err := e.persist(d, d.Extras.Interfaces, d.Extras.Global); err != nil {
		return nil, err
	}
	return d, nil
}

// build runs generate's shared core (spec §4.H "generate" step 2): verify
// constraints, solve, build every dependency, gather interfaces, and
// (when persist is true) write d.dat/i.dat/o.dat through the background
// writer.
func (e *Env) build(ctx context.Context, raw *engine.RawOutline, persist bool) (*engine.Details, error) {
	valid, err := outline.Validate(raw, e.CompilerVersion)
	if err != nil {
		return nil, err
	}

	reg, err := registry.InitEnv(ctx, e.FS, e.Home, e.HTTP, e.Offline)
	if err != nil {
		return nil, engine.CannotGetRegistry(err)
	}

	fetcher := &fetch.Fetcher{FS: e.FS, HTTP: e.HTTP, Home: e.Home, Log: e.Log}
	ds := &depsSource{fs: e.FS, fetcher: fetcher}
	solver := &solve.Solver{
		Registry:       reg,
		Deps:           ds,
		Cache:          ds,
		Log:            e.Log,
		AllowEqualDups: raw.Kind == engine.OutlineApp,
	}

	var solverInput, directSetSrc map[engine.PkgName]engine.Constraint
	switch raw.Kind {
	case engine.OutlineApp:
		solverInput, err = solve.MergeAppInput(raw.App.Direct, raw.App.Indirect, raw.App.TestDirect, raw.App.TestIndirect)
		directSetSrc = exactConstraints(raw.App.Direct)
	case engine.OutlinePkg:
		solverInput, err = solve.MergePkgInput(raw.Pkg.Deps, raw.Pkg.TestDeps)
		directSetSrc = raw.Pkg.Deps
	}
	if err != nil {
		return nil, err
	}

	sol, err := solver.Solve(ctx, solverInput)
	if err != nil {
		eerr, isEngineErr := err.(*engine.Error)
		switch {
		case isEngineErr && e.Offline && eerr.Kind == engine.KindNoSolution:
			return nil, engine.NoOfflineSolution()
		case isEngineErr:
			return nil, eerr
		default:
			return nil, engine.SolverProblem(err)
		}
	}

	if raw.Kind == engine.OutlineApp {
		if err := solve.CheckAppSolutionComplete(raw.App.Direct, raw.App.Indirect, raw.App.TestDirect, raw.App.TestIndirect, sol); err != nil {
			return nil, err
		}
	}

	builder := &build.Builder{FS: e.FS, Fetch: fetcher, Parser: e.Parser, Compiler: e.Compiler, Log: e.Log}
	allArtifacts, badDeps := builder.BuildAll(ctx, sol)
	if len(badDeps) > 0 {
		return nil, engine.BadDeps(e.Home, badDeps)
	}

	directSet := iface.DirectSet(directSetSrc)
	interfaces := iface.Gather(allArtifacts, directSet)
	foreigns := iface.Foreigns(filterDirect(allArtifacts, directSet))

	global := e.Compiler.NewGraph()
	for _, p := range sortedPkgs(allArtifacts) {
		global.Merge(allArtifacts[p].Objs)
	}

	d := &engine.Details{
		Outline:  *valid,
		BuildID:  0,
		Locals:   map[engine.ModuleNameRaw]engine.Local{},
		Foreigns: foreigns,
		Extras:   engine.Extras{Kind: engine.Fresh, Interfaces: interfaces, Global: global},
	}

	if persist {
		if err := e.persist(d, interfaces, global); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (e *Env) persist(d *engine.Details, interfaces map[engine.ModuleNameCanonical]engine.DependencyInterface, global engine.GlobalGraph) error {
	dir := e.stuffDir()
	if err := e.FS.MkdirAll(dir); err != nil {
		return err
	}
	scope := writer.NewScope(e.FS, dir)
	// d.dat holds the Details without its in-memory Extras; i.dat and
	// o.dat carry the interfaces and object graph.
	stored := *d
	stored.Extras = engine.Extras{Kind: engine.Cached}
	scope.Enqueue(DetailsFile, gobEncode, stored)
	scope.Enqueue(InterfacesFile, gobEncode, interfaces)
	scope.Enqueue(GlobalGraphFile, gobEncode, global)
	return scope.Close()
}

func exactConstraints(m map[engine.PkgName]engine.Version) map[engine.PkgName]engine.Constraint {
	out := make(map[engine.PkgName]engine.Constraint, len(m))
	for p, v := range m {
		out[p] = engine.Exact(v)
	}
	return out
}

func filterDirect(all map[engine.PkgName]engine.Artifacts, direct map[engine.PkgName]bool) map[engine.PkgName]engine.Artifacts {
	out := make(map[engine.PkgName]engine.Artifacts, len(direct))
	for p := range direct {
		if a, ok := all[p]; ok {
			out[p] = a
		}
	}
	return out
}

func sortedPkgs(m map[engine.PkgName]engine.Artifacts) []engine.PkgName {
	out := make([]engine.PkgName, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

func gobEncode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, out interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(out)
}
