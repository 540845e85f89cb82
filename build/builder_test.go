package build

import (
	"context"
	"path"
	"testing"

	"github.com/elm-tooling/elm-details/engine"
	"github.com/elm-tooling/elm-details/enginetest"
	"github.com/elm-tooling/elm-details/solve"
)

// noopFetcher assumes every package's source tree is already present
// under its PackageDir (the test seeds it directly), so Ensure never
// needs to touch the network.
type noopFetcher struct {
	home string
}

func (f *noopFetcher) PackageDir(pkg engine.PkgName, v engine.Version) string {
	return path.Join(f.home, "packages", pkg.Author, pkg.Project, v.String())
}

func (f *noopFetcher) Ensure(ctx context.Context, pkg engine.PkgName, v engine.Version) error {
	return nil
}

const corePkgManifest = `{
  "type": "package",
  "name": "elm/core",
  "summary": "core",
  "license": "BSD-3-Clause",
  "version": "1.0.0",
  "exposed-modules": ["Main"],
  "elm-version": "0.19.0 <= v < 0.20.0",
  "dependencies": {},
  "test-dependencies": {}
}`

func TestBuildAllSinglePackage(t *testing.T) {
	fs := enginetest.NewFS()
	fetch := &noopFetcher{home: "/home"}

	core := engine.PkgName{Author: "elm", Project: "core"}
	v, _ := engine.NewVersion("1.0.0")
	dir := fetch.PackageDir(core, v)

	if err := fs.WriteUTF8(path.Join(dir, "elm.json"), corePkgManifest); err != nil {
		t.Fatal(err)
	}
	if err := fs.WriteUTF8(path.Join(dir, "src", "Main.elm"), "module Main exposing (..)\n"); err != nil {
		t.Fatal(err)
	}

	b := &Builder{FS: fs, Fetch: fetch, Parser: enginetest.Parser{}, Compiler: enginetest.Compiler{}}
	sol := solve.Solution{core: engine.SolverDetailsEntry{Version: v}}

	artifacts, failed := b.BuildAll(context.Background(), sol)
	if len(failed) != 0 {
		t.Fatalf("unexpected build failures: %+v", failed)
	}
	art, ok := artifacts[core]
	if !ok {
		t.Fatal("expected core's artifacts in the result")
	}
	if _, ok := art.Ifaces["Main"]; !ok {
		t.Errorf("expected Main's interface to be recorded, got %+v", art.Ifaces)
	}

	data, err := fs.ReadBinary(path.Join(dir, "artifacts.json"))
	if err != nil {
		t.Fatalf("expected artifacts.json to be persisted: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty artifacts.json")
	}
}

func TestBuildAllReusesCachedFingerprint(t *testing.T) {
	fs := enginetest.NewFS()
	fetch := &noopFetcher{home: "/home"}

	core := engine.PkgName{Author: "elm", Project: "core"}
	v, _ := engine.NewVersion("1.0.0")
	dir := fetch.PackageDir(core, v)

	if err := fs.WriteUTF8(path.Join(dir, "elm.json"), corePkgManifest); err != nil {
		t.Fatal(err)
	}
	if err := fs.WriteUTF8(path.Join(dir, "src", "Main.elm"), "module Main exposing (..)\n"); err != nil {
		t.Fatal(err)
	}

	b := &Builder{FS: fs, Fetch: fetch, Parser: enginetest.Parser{}, Compiler: enginetest.Compiler{}}
	sol := solve.Solution{core: engine.SolverDetailsEntry{Version: v}}

	if _, failed := b.BuildAll(context.Background(), sol); len(failed) != 0 {
		t.Fatalf("first build failed: %+v", failed)
	}

	// Blank out Main.elm: the test parser rejects empty source, so only a
	// cache hit lets the second build succeed.
	if err := fs.WriteUTF8(path.Join(dir, "src", "Main.elm"), ""); err != nil {
		t.Fatal(err)
	}

	artifacts, failed := b.BuildAll(context.Background(), sol)
	if len(failed) != 0 {
		t.Fatalf("expected the second build to reuse the cached fingerprint, got failures: %+v", failed)
	}
	if _, ok := artifacts[core].Ifaces["Main"]; !ok {
		t.Error("expected the reused cache entry to still carry Main's interface")
	}
}

func TestBuildAllBrokenPackageReportedAsBadDep(t *testing.T) {
	fs := enginetest.NewFS()
	fetch := &noopFetcher{home: "/home"}

	core := engine.PkgName{Author: "elm", Project: "core"}
	v, _ := engine.NewVersion("1.0.0")
	dir := fetch.PackageDir(core, v)

	if err := fs.WriteUTF8(path.Join(dir, "elm.json"), corePkgManifest); err != nil {
		t.Fatal(err)
	}
	// Exposed module "Main" has no source and no foreign entry: broken.

	b := &Builder{FS: fs, Fetch: fetch, Parser: enginetest.Parser{}, Compiler: enginetest.Compiler{}}
	sol := solve.Solution{core: engine.SolverDetailsEntry{Version: v}}

	_, failed := b.BuildAll(context.Background(), sol)
	if len(failed) != 1 || failed[0].Pkg != core {
		t.Fatalf("expected one BadDep for %s, got %+v", core, failed)
	}
}
