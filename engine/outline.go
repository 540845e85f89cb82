package engine

// AppOutline is the raw, unvalidated application manifest shape (spec §3).
type AppOutline struct {
	ElmVersion    Version
	SourceDirs    []string // non-empty
	Direct        map[PkgName]Version
	Indirect      map[PkgName]Version
	TestDirect    map[PkgName]Version
	TestIndirect  map[PkgName]Version
}

// PkgOutline is the raw, unvalidated package manifest shape (spec §3).
type PkgOutline struct {
	Name           PkgName
	Summary        string
	License        string
	Version        Version
	Exposed        []ModuleNameRaw
	Deps           map[PkgName]Constraint
	TestDeps       map[PkgName]Constraint
	ElmConstraint  Constraint
}

// OutlineKind tags the RawOutline union.
type OutlineKind int

const (
	OutlineApp OutlineKind = iota
	OutlinePkg
)

// RawOutline is the tagged union App(appOutline) | Pkg(pkgOutline) (spec §3).
type RawOutline struct {
	Kind OutlineKind
	App  *AppOutline
	Pkg  *PkgOutline
}

// ValidOutlineKind tags the ValidOutline union.
type ValidOutlineKind int

const (
	ValidOutlineApp ValidOutlineKind = iota
	ValidOutlinePkg
)

// ValidOutline is the typed, validated result of the manifest loader
// (spec §3, §4.A). ExactDeps is retained only for documentation tooling.
type ValidOutline struct {
	Kind       ValidOutlineKind
	SrcDirs    []string
	Pkg        *PkgOutline
	Exposed    []ModuleNameRaw
	ExactDeps  map[PkgName]Version
}
