package outline

import (
	"strings"
	"testing"

	"github.com/elm-tooling/elm-details/engine"
)

const appManifest = `{
  "type": "application",
  "source-directories": ["src"],
  "elm-version": "0.19.1",
  "dependencies": {
    "direct": { "elm/core": "1.0.5" },
    "indirect": {}
  },
  "test-dependencies": {
    "direct": {},
    "indirect": {}
  }
}`

const pkgManifest = `{
  "type": "package",
  "name": "elm/core",
  "summary": "Elm's standard libraries",
  "license": "BSD-3-Clause",
  "version": "1.0.5",
  "exposed-modules": ["Basics", "List"],
  "elm-version": "0.19.0 <= v < 0.20.0",
  "dependencies": {},
  "test-dependencies": {}
}`

func TestLoadApp(t *testing.T) {
	ro, err := Load(strings.NewReader(appManifest))
	if err != nil {
		t.Fatal(err)
	}
	if ro.Kind != engine.OutlineApp {
		t.Fatalf("Kind = %v, want OutlineApp", ro.Kind)
	}
	if len(ro.App.SourceDirs) != 1 || ro.App.SourceDirs[0] != "src" {
		t.Errorf("SourceDirs = %v", ro.App.SourceDirs)
	}
	core := engine.PkgName{Author: "elm", Project: "core"}
	if _, ok := ro.App.Direct[core]; !ok {
		t.Errorf("expected elm/core in direct deps, got %v", ro.App.Direct)
	}
}

func TestLoadAppMissingSourceDirs(t *testing.T) {
	bad := `{"type":"application","elm-version":"0.19.1","dependencies":{"direct":{},"indirect":{}},"test-dependencies":{"direct":{},"indirect":{}}}`
	if _, err := Load(strings.NewReader(bad)); err == nil {
		t.Fatal("expected an error for an empty source-directories list")
	}
}

func TestLoadPkg(t *testing.T) {
	ro, err := Load(strings.NewReader(pkgManifest))
	if err != nil {
		t.Fatal(err)
	}
	if ro.Kind != engine.OutlinePkg {
		t.Fatalf("Kind = %v, want OutlinePkg", ro.Kind)
	}
	if ro.Pkg.Name != (engine.PkgName{Author: "elm", Project: "core"}) {
		t.Errorf("Name = %v", ro.Pkg.Name)
	}
	if len(ro.Pkg.Exposed) != 2 {
		t.Errorf("Exposed = %v", ro.Pkg.Exposed)
	}
	v, err := engine.NewVersion("0.19.5")
	if err != nil {
		t.Fatal(err)
	}
	if !ro.Pkg.ElmConstraint.Admits(v) {
		t.Errorf("expected elm-version constraint to admit 0.19.5")
	}
}

func TestLoadUnknownType(t *testing.T) {
	bad := `{"type":"mystery"}`
	if _, err := Load(strings.NewReader(bad)); err == nil {
		t.Fatal("expected an error for an unknown manifest type")
	}
}

func TestParseExposedGrouped(t *testing.T) {
	grouped := `{
  "type": "package",
  "name": "elm/core",
  "summary": "x",
  "license": "BSD-3-Clause",
  "version": "1.0.0",
  "exposed-modules": { "Group A": ["Basics"], "Group B": ["List", "Dict"] },
  "elm-version": "0.19.0 <= v < 0.20.0",
  "dependencies": {},
  "test-dependencies": {}
}`
	ro, err := Load(strings.NewReader(grouped))
	if err != nil {
		t.Fatal(err)
	}
	if len(ro.Pkg.Exposed) != 3 {
		t.Errorf("Exposed = %v, want 3 modules", ro.Pkg.Exposed)
	}
}
