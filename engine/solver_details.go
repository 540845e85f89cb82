package engine

// SolverDetailsEntry is one package's solver output (spec §3:
// "Solver.Details(V, directDeps: P→C)"): the exact version chosen plus
// the direct-dependency constraints declared by that version.
type SolverDetailsEntry struct {
	Version    Version
	DirectDeps map[PkgName]Constraint
}
