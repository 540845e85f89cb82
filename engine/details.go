package engine

// ExtrasKind tags whether a Details' build products are in memory or must
// be re-read from disk on demand (spec §3).
type ExtrasKind int

const (
	Cached ExtrasKind = iota
	Fresh
)

// Extras is the tagged union Cached | Fresh(interfaces, globalGraph).
type Extras struct {
	Kind       ExtrasKind
	Interfaces map[ModuleNameCanonical]DependencyInterface // Fresh only
	Global     GlobalGraph                                 // Fresh only
}

// Details is the top-level persisted project record (spec §3, §4.H): it
// ties the manifest's mtime, the validated outline, a monotonic build
// counter, per-module Local/Foreign bookkeeping, and (when freshly built)
// the in-memory interfaces and object graph.
type Details struct {
	OldTime  Time
	Outline  ValidOutline
	BuildID  BuildID
	Locals   map[ModuleNameRaw]Local
	Foreigns map[ModuleNameRaw]Foreign
	Extras   Extras
}
