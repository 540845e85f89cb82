// Package build implements the dependency builder (spec §4.F), the core
// of the engine: given a solution (one exact version per package), it
// fetches, crawls, compiles and caches each package's Artifacts, with
// per-package builds launched concurrently and each awaiting only its own
// declared direct dependencies (spec §4.F "Parallelism discipline").
//
// Grounded on the teacher's per-project build orchestration in
// context.go/project.go (golang-dep), generalized from "resolve and
// vendor" to "resolve, fetch, crawl, compile, cache".
package build

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/elm-tooling/elm-details/engine"
	"github.com/elm-tooling/elm-details/internal/cell"
	"github.com/elm-tooling/elm-details/internal/elmlog"
	"github.com/elm-tooling/elm-details/outline"
	"github.com/elm-tooling/elm-details/solve"
	"github.com/elm-tooling/elm-details/writer"
)

// Fetcher is the subset of fetch.Fetcher the builder needs, kept narrow so
// tests can fake it without pulling in the real HTTP/archive machinery.
type Fetcher interface {
	PackageDir(pkg engine.PkgName, v engine.Version) string
	Ensure(ctx context.Context, pkg engine.PkgName, v engine.Version) error
}

// Builder drives step 1/2 of spec §4.F for every package in a solution.
type Builder struct {
	FS       engine.FileSystem
	Fetch    Fetcher
	Parser   engine.ModuleParser
	Compiler engine.Compiler
	Log      *elmlog.Logger
}

const artifactsFile = "artifacts.json"
const docsFile = "docs.json"

// jsonArtifactCache is artifacts.json's wire shape. GlobalGraph and
// Interface values are opaque beyond their exported fields; whatever
// concrete type the Compiler collaborator returns round-trips through
// encoding/json's normal struct handling as long as it marshals cleanly;
// on read, Objs is decoded into a fresh value from Compiler.NewGraph.
type jsonArtifactCache struct {
	Fingerprints []engine.Fingerprint
	Artifacts    engine.Artifacts
}

type pkgOutcome struct {
	artifacts engine.Artifacts
	err       error
}

// BuildAll builds every package in sol concurrently and returns the
// successful Artifacts plus the aggregated per-package failures (spec
// §4.F, "Failure semantics": siblings continue to completion).
func (b *Builder) BuildAll(ctx context.Context, sol solve.Solution) (map[engine.PkgName]engine.Artifacts, []engine.BadDep) {
	cells := make(map[engine.PkgName]*cell.Cell[pkgOutcome], len(sol))
	for pkg := range sol {
		cells[pkg] = cell.New[pkgOutcome]()
	}

	g := new(errgroup.Group)
	for pkg, entry := range sol {
		pkg, entry := pkg, entry
		g.Go(func() error {
			cells[pkg].Fill(b.buildOne(ctx, pkg, entry, sol, cells))
			return nil
		})
	}
	g.Wait()

	results := make(map[engine.PkgName]engine.Artifacts, len(sol))
	var failed []engine.BadDep
	pkgs := make([]engine.PkgName, 0, len(sol))
	for pkg := range sol {
		pkgs = append(pkgs, pkg)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Compare(pkgs[j]) < 0 })
	for _, pkg := range pkgs {
		out := cells[pkg].Wait()
		if out.err != nil {
			failed = append(failed, engine.BadDep{Pkg: pkg, Version: sol[pkg].Version, Build: out.err})
			continue
		}
		results[pkg] = out.artifacts
	}
	return results, failed
}

func (b *Builder) buildOne(
	ctx context.Context,
	pkg engine.PkgName,
	entry engine.SolverDetailsEntry,
	sol solve.Solution,
	cells map[engine.PkgName]*cell.Cell[pkgOutcome],
) pkgOutcome {
	v := entry.Version
	dir := b.Fetch.PackageDir(pkg, v)
	srcDir := path.Join(dir, "src")

	if err := b.Fetch.Ensure(ctx, pkg, v); err != nil {
		return pkgOutcome{err: err}
	}

	directArtifacts := make(map[engine.PkgName]engine.Artifacts, len(entry.DirectDeps))
	fp := make(engine.Fingerprint, len(entry.DirectDeps))
	depNames := make([]engine.PkgName, 0, len(entry.DirectDeps))
	for dep := range entry.DirectDeps {
		depNames = append(depNames, dep)
	}
	sort.Slice(depNames, func(i, j int) bool { return depNames[i].Compare(depNames[j]) < 0 })
	for _, dep := range depNames {
		depCell, ok := cells[dep]
		if !ok {
			return pkgOutcome{err: errBrokenPackage(dep)}
		}
		depOut := depCell.Wait()
		if depOut.err != nil {
			return pkgOutcome{err: depOut.err}
		}
		directArtifacts[dep] = depOut.artifacts
		fp[dep] = sol[dep].Version
	}

	// Step 1: cache probe.
	if cached, ok := b.tryReuse(dir, fp); ok {
		b.Log.Debugf("%s %s: reusing cached artifacts for this fingerprint", pkg, v)
		return pkgOutcome{artifacts: cached}
	}
	b.Log.Logf("building %s %s\n", pkg, v)

	raw, err := b.loadOutline(srcDir)
	if err != nil {
		return pkgOutcome{err: err}
	}

	wantDocs, err := b.needsDocs(dir)
	if err != nil {
		return pkgOutcome{err: err}
	}

	artifacts, err := b.build(pkg, srcDir, raw.Exposed, directArtifacts, wantDocs)
	if err != nil {
		return pkgOutcome{err: err}
	}

	if err := b.persist(dir, fp, artifacts, wantDocs); err != nil {
		return pkgOutcome{err: err}
	}
	return pkgOutcome{artifacts: artifacts}
}

func (b *Builder) loadOutline(srcDir string) (*engine.PkgOutline, error) {
	manifestPath := path.Join(path.Dir(srcDir), outline.ManifestName)
	text, err := b.FS.ReadUTF8(manifestPath)
	if err != nil {
		return nil, err
	}
	ro, err := outline.Load(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	return ro.Pkg, nil
}

func (b *Builder) needsDocs(dir string) (bool, error) {
	exists, err := b.FS.Exists(path.Join(dir, docsFile))
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (b *Builder) tryReuse(dir string, fp engine.Fingerprint) (engine.Artifacts, bool) {
	data, err := b.FS.ReadBinary(path.Join(dir, artifactsFile))
	if err != nil {
		return engine.Artifacts{}, false
	}
	cache := jsonArtifactCache{Artifacts: engine.Artifacts{Objs: b.Compiler.NewGraph()}}
	if err := json.Unmarshal(data, &cache); err != nil {
		return engine.Artifacts{}, false
	}
	ac := engine.ArtifactCache{Fingerprints: cache.Fingerprints, Artifacts: cache.Artifacts}
	if !ac.HasFingerprint(fp) {
		return engine.Artifacts{}, false
	}
	return ac.Artifacts, true
}

// build runs step 2.1-2.4 of spec §4.F for one package: resolve the
// foreign namespace, crawl every exposed module, compile the crawled
// graph, then gather the per-module results into one Artifacts.
func (b *Builder) build(
	pkg engine.PkgName,
	srcDir string,
	exposed []engine.ModuleNameRaw,
	directDeps map[engine.PkgName]engine.Artifacts,
	wantDocs bool,
) (engine.Artifacts, error) {
	foreign := resolveForeignNamespace(directDeps)
	reg := newRegistry()

	cr := &crawler{
		pkg:      pkg,
		srcDir:   srcDir,
		isKernel: pkg.Author == "elm",
		fs:       b.FS,
		parser:   b.Parser,
		foreign:  foreign,
		reg:      reg,
	}
	if err := cr.crawlExposed(exposed); err != nil {
		return engine.Artifacts{}, err
	}

	names := registeredNames(reg)
	cp := &compiler{pkg: pkg, external: b.Compiler, reg: reg, wantDocs: wantDocs}
	if err := cp.compileAll(names); err != nil {
		return engine.Artifacts{}, err
	}

	exposedSet := make(map[engine.ModuleNameRaw]bool, len(exposed))
	for _, m := range exposed {
		exposedSet[m] = true
	}

	graph := b.Compiler.NewGraph()
	ifaces := make(map[engine.ModuleNameRaw]engine.DependencyInterface)
	broken := false
	for _, name := range names {
		st, _ := reg.claim(name)
		res := st.compile.Wait()
		switch res.kind {
		case rBroken:
			broken = true
		case rLocal:
			graph.Merge(res.objs)
			ifaces[name] = dependencyInterface(exposedSet, name, res.iface)
		case rForeign:
			ifaces[name] = dependencyInterface(exposedSet, name, res.iface)
		case rKernelLocal:
			graph.Merge(res.objs)
		case rKernelForeign:
			// nothing to merge or record; purely a satisfied import.
		}
	}
	if broken {
		return engine.Artifacts{}, errBrokenPackage(pkg)
	}

	return engine.Artifacts{Ifaces: ifaces, Objs: graph}, nil
}

func dependencyInterface(exposed map[engine.ModuleNameRaw]bool, name engine.ModuleNameRaw, iface engine.Interface) engine.DependencyInterface {
	if exposed[name] {
		return engine.DependencyInterface{Kind: engine.Public, Iface: iface}
	}
	return engine.DependencyInterface{Kind: engine.Private, Iface: iface}
}

func registeredNames(reg *registry) []engine.ModuleNameRaw {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]engine.ModuleNameRaw, 0, len(reg.byName))
	for name := range reg.byName {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// persist writes artifacts.json (and docs.json, if docs were requested)
// through the crash-safe background writer (spec §4.F step 5, §4.E).
func (b *Builder) persist(dir string, fp engine.Fingerprint, artifacts engine.Artifacts, wroteDocs bool) error {
	if err := b.FS.MkdirAll(dir); err != nil {
		return err
	}
	scope := writer.NewScope(b.FS, dir)

	existing := jsonArtifactCache{}
	if data, err := b.FS.ReadBinary(path.Join(dir, artifactsFile)); err == nil {
		_ = json.Unmarshal(data, &existing)
	}
	ac := engine.ArtifactCache{Fingerprints: existing.Fingerprints, Artifacts: artifacts}
	ac.AddFingerprint(fp)

	scope.Enqueue(artifactsFile, jsonEncode, jsonArtifactCache{Fingerprints: ac.Fingerprints, Artifacts: ac.Artifacts})
	if wroteDocs {
		scope.Enqueue(docsFile, jsonEncode, artifacts)
	}
	return scope.Close()
}

func jsonEncode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
