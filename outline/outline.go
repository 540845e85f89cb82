// Package outline implements the manifest loader (spec §4.A): it parses
// and validates elm.json into engine.RawOutline / engine.ValidOutline,
// grounded on the teacher's rawManifest/possibleProps decode-then-convert
// pattern (golang-dep's manifest.go).
package outline

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/elm-tooling/elm-details/engine"
)

// ManifestName is the well-known manifest filename under the project root.
const ManifestName = "elm.json"

type rawDeps map[string]string

type rawManifest struct {
	Type          string            `json:"type"`
	ElmVersion    string            `json:"elm-version"`
	SourceDirs    []string          `json:"source-directories,omitempty"`
	Dependencies  json.RawMessage   `json:"dependencies"`
	TestDeps      json.RawMessage   `json:"test-dependencies"`
	Name          string            `json:"name,omitempty"`
	Summary       string            `json:"summary,omitempty"`
	License       string            `json:"license,omitempty"`
	Version       string            `json:"version,omitempty"`
	ExposedRaw    json.RawMessage   `json:"exposed-modules,omitempty"`
}

// appDeps is the app-manifest shape of "dependencies": { "direct": {...}, "indirect": {...} }.
type appDeps struct {
	Direct   rawDeps `json:"direct"`
	Indirect rawDeps `json:"indirect"`
}

// Load reads and validates a manifest from r (spec §4.A). It never touches
// the filesystem directly; callers read the bytes via engine.FileSystem.
func Load(r io.Reader) (*engine.RawOutline, error) {
	var rm rawManifest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rm); err != nil {
		return nil, engine.BadOutline(errors.Wrap(err, "malformed JSON"))
	}

	switch rm.Type {
	case "application":
		return loadApp(rm)
	case "package":
		return loadPkg(rm)
	default:
		return nil, engine.BadOutline(fmt.Errorf(`"type" must be "application" or "package", got %q`, rm.Type))
	}
}

func loadApp(rm rawManifest) (*engine.RawOutline, error) {
	if len(rm.SourceDirs) == 0 {
		return nil, engine.BadOutline(fmt.Errorf("application manifests need a non-empty source-directories list"))
	}
	ev, err := engine.NewVersion(rm.ElmVersion)
	if err != nil {
		return nil, engine.BadOutline(errors.Wrap(err, "bad elm-version"))
	}

	var deps, testDeps appDeps
	if len(rm.Dependencies) > 0 {
		if err := json.Unmarshal(rm.Dependencies, &deps); err != nil {
			return nil, engine.BadOutline(errors.Wrap(err, "bad dependencies"))
		}
	}
	if len(rm.TestDeps) > 0 {
		if err := json.Unmarshal(rm.TestDeps, &testDeps); err != nil {
			return nil, engine.BadOutline(errors.Wrap(err, "bad test-dependencies"))
		}
	}

	direct, err := toVersions(deps.Direct)
	if err != nil {
		return nil, engine.BadOutline(err)
	}
	indirect, err := toVersions(deps.Indirect)
	if err != nil {
		return nil, engine.BadOutline(err)
	}
	testDirect, err := toVersions(testDeps.Direct)
	if err != nil {
		return nil, engine.BadOutline(err)
	}
	testIndirect, err := toVersions(testDeps.Indirect)
	if err != nil {
		return nil, engine.BadOutline(err)
	}

	return &engine.RawOutline{
		Kind: engine.OutlineApp,
		App: &engine.AppOutline{
			ElmVersion:   ev,
			SourceDirs:   rm.SourceDirs,
			Direct:       direct,
			Indirect:     indirect,
			TestDirect:   testDirect,
			TestIndirect: testIndirect,
		},
	}, nil
}

func loadPkg(rm rawManifest) (*engine.RawOutline, error) {
	name, err := parsePkgName(rm.Name)
	if err != nil {
		return nil, engine.BadOutline(err)
	}
	ver, err := engine.NewVersion(rm.Version)
	if err != nil {
		return nil, engine.BadOutline(errors.Wrap(err, "bad version"))
	}
	constraint, err := parseConstraint(rm.ElmVersion)
	if err != nil {
		return nil, engine.BadOutline(errors.Wrap(err, "bad elm-version constraint"))
	}

	var rawDepsMap, rawTestDepsMap map[string]string
	if len(rm.Dependencies) > 0 {
		if err := json.Unmarshal(rm.Dependencies, &rawDepsMap); err != nil {
			return nil, engine.BadOutline(errors.Wrap(err, "bad dependencies"))
		}
	}
	if len(rm.TestDeps) > 0 {
		if err := json.Unmarshal(rm.TestDeps, &rawTestDepsMap); err != nil {
			return nil, engine.BadOutline(errors.Wrap(err, "bad test-dependencies"))
		}
	}

	deps, err := toConstraints(rawDepsMap)
	if err != nil {
		return nil, engine.BadOutline(err)
	}
	testDeps, err := toConstraints(rawTestDepsMap)
	if err != nil {
		return nil, engine.BadOutline(err)
	}

	exposed, err := parseExposed(rm.ExposedRaw)
	if err != nil {
		return nil, engine.BadOutline(err)
	}

	return &engine.RawOutline{
		Kind: engine.OutlinePkg,
		Pkg: &engine.PkgOutline{
			Name:          name,
			Summary:       rm.Summary,
			License:       rm.License,
			Version:       ver,
			Exposed:       exposed,
			Deps:          deps,
			TestDeps:      testDeps,
			ElmConstraint: constraint,
		},
	}, nil
}

// parseExposed accepts either a flat list of module names, or a map of
// category -> list of module names (both are real shapes package
// manifests use).
func parseExposed(raw json.RawMessage) ([]engine.ModuleNameRaw, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var flat []string
	if err := json.Unmarshal(raw, &flat); err == nil {
		out := make([]engine.ModuleNameRaw, len(flat))
		for i, m := range flat {
			out[i] = engine.ModuleNameRaw(m)
		}
		return out, nil
	}
	var grouped map[string][]string
	if err := json.Unmarshal(raw, &grouped); err != nil {
		return nil, fmt.Errorf("exposed-modules must be a list or a map of lists: %w", err)
	}
	var out []engine.ModuleNameRaw
	for _, group := range grouped {
		for _, m := range group {
			out = append(out, engine.ModuleNameRaw(m))
		}
	}
	return out, nil
}

func toVersions(m rawDeps) (map[engine.PkgName]engine.Version, error) {
	out := make(map[engine.PkgName]engine.Version, len(m))
	for n, v := range m {
		pn, err := parsePkgName(n)
		if err != nil {
			return nil, err
		}
		ver, err := engine.NewVersion(v)
		if err != nil {
			return nil, fmt.Errorf("bad version for %s: %w", n, err)
		}
		out[pn] = ver
	}
	return out, nil
}

func toConstraints(m map[string]string) (map[engine.PkgName]engine.Constraint, error) {
	out := make(map[engine.PkgName]engine.Constraint, len(m))
	for n, c := range m {
		pn, err := parsePkgName(n)
		if err != nil {
			return nil, err
		}
		constraint, err := parseConstraint(c)
		if err != nil {
			return nil, fmt.Errorf("bad constraint for %s: %w", n, err)
		}
		out[pn] = constraint
	}
	return out, nil
}
