package build

import (
	"sort"

	"github.com/elm-tooling/elm-details/engine"
)

// foreignEntry is what the foreign-namespace resolution step (spec
// §4.F.1) records for one module name reachable from a direct dependency.
type foreignEntry struct {
	specific bool // true: exactly one dep exports it; false: more than one (Ambiguous)
	pkg      engine.PkgName // valid only when specific
	iface    engine.Interface
}

// resolveForeignNamespace builds Raw -> foreignEntry from the direct
// dependencies' public interfaces (spec §4.F.1). A name exported by
// exactly one dep is Specific; by more than one is Ambiguous; by none is
// simply absent from the map (and therefore local, if source exists).
func resolveForeignNamespace(directDeps map[engine.PkgName]engine.Artifacts) map[engine.ModuleNameRaw]*foreignEntry {
	out := make(map[engine.ModuleNameRaw]*foreignEntry)

	// Deterministic iteration over deps, so the recorded entries do not
	// depend on map order (spec §9).
	pkgs := make([]engine.PkgName, 0, len(directDeps))
	for p := range directDeps {
		pkgs = append(pkgs, p)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Compare(pkgs[j]) < 0 })

	for _, p := range pkgs {
		arts := directDeps[p]
		for name, di := range arts.Ifaces {
			if di.Kind != engine.Public {
				continue
			}
			existing, ok := out[name]
			if !ok {
				out[name] = &foreignEntry{specific: true, pkg: p, iface: di.Iface}
				continue
			}
			existing.specific = false
		}
	}
	return out
}
