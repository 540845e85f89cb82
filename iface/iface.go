// Package iface implements the top-level interface gatherer (spec §4.G):
// once every dependency package's Artifacts are available, it builds the
// project-wide Interfaces and Foreigns maps the details driver persists.
//
// Grounded on the teacher's namespace-merge step in context.go (golang-dep
// merges multiple GOPATH source roots into one lookup namespace); here the
// merge is over dependency packages' public interfaces instead.
package iface

import (
	"sort"

	"github.com/elm-tooling/elm-details/engine"
)

// Gather builds the project-level Interfaces map (spec §4.G): every
// direct dependency's interfaces are included under their canonical name
// as-is; every indirect dependency's interfaces are included but
// privatized, so the project's own modules cannot import from them
// directly even though they're needed to compile the direct deps that do.
func Gather(all map[engine.PkgName]engine.Artifacts, direct map[engine.PkgName]bool) map[engine.ModuleNameCanonical]engine.DependencyInterface {
	out := make(map[engine.ModuleNameCanonical]engine.DependencyInterface)

	pkgs := sortedPkgs(all)
	for _, p := range pkgs {
		arts := all[p]
		isDirect := direct[p]
		for name, di := range arts.Ifaces {
			canon := engine.ModuleNameCanonical{Pkg: p, Raw: name}
			if isDirect {
				out[canon] = di
				continue
			}
			out[canon] = engine.DependencyInterface{Kind: engine.Private, Iface: di.Iface}
		}
	}
	return out
}

// Foreigns builds the project-level Foreigns map (spec §4.G): for every
// module name publicly exported by any direct dependency, record which
// dependencies export it. Ambiguities are preserved in the map and only
// become errors if a local module actually imports that name (spec §4.F.2
// "exposed-but-ambiguous is itself a build error" mirrors this one level
// up, at the project's own import crawl).
func Foreigns(directArtifacts map[engine.PkgName]engine.Artifacts) map[engine.ModuleNameRaw]engine.Foreign {
	exporters := make(map[engine.ModuleNameRaw][]engine.PkgName)

	for _, p := range sortedPkgs(directArtifacts) {
		arts := directArtifacts[p]
		for name, di := range arts.Ifaces {
			if di.Kind != engine.Public {
				continue
			}
			exporters[name] = append(exporters[name], p)
		}
	}

	out := make(map[engine.ModuleNameRaw]engine.Foreign, len(exporters))
	for name, ps := range exporters {
		f := engine.Foreign{Primary: ps[0]}
		if len(ps) > 1 {
			f.Rest = ps[1:]
		}
		out[name] = f
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

// DirectSet converts a solution's declared direct-dependency set (as seen
// from the project root) into the membership map Gather needs.
func DirectSet(directDeps map[engine.PkgName]engine.Constraint) map[engine.PkgName]bool {
	out := make(map[engine.PkgName]bool, len(directDeps))
	for p := range directDeps {
		out[p] = true
	}
	return out
}
