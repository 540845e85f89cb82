package engine

// Local is the persisted metadata for one in-project module (spec §3).
//
// Invariant: a module must be recompiled when either Time differs from
// the current file time, or any transitive import's LastChange exceeds
// this module's LastCompile.
type Local struct {
	Path        string
	Time        Time
	Deps        []ModuleNameRaw
	HasMain     bool
	LastChange  BuildID
	LastCompile BuildID
}

// NeedsRecompile reports whether this Local module must be rebuilt, given
// its current on-disk mtime and the LastChange of every import it declared
// last time it was crawled.
func (l Local) NeedsRecompile(currentTime Time, importLastChange map[ModuleNameRaw]BuildID) bool {
	if !l.Time.Equal(currentTime) {
		return true
	}
	for _, dep := range l.Deps {
		if lc, ok := importLastChange[dep]; ok && lc > l.LastCompile {
			return true
		}
	}
	return false
}

// Foreign records, for one imported module name, which dependency
// packages export it (spec §3). If Rest is non-empty the module is
// ambiguous: importing it is a compile-time error.
type Foreign struct {
	Primary PkgName
	Rest    []PkgName
}

// Ambiguous reports whether more than one dependency exports this name.
func (f Foreign) Ambiguous() bool {
	return len(f.Rest) > 0
}
