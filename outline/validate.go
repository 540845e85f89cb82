package outline

import (
	"errors"

	"github.com/elm-tooling/elm-details/engine"
)

// Validate checks a RawOutline against the running compiler's own version
// and produces a ValidOutline, per spec §4.A. It rejects any compiler
// version other than compilerVersion.
func Validate(raw *engine.RawOutline, compilerVersion engine.Version) (*engine.ValidOutline, error) {
	switch raw.Kind {
	case engine.OutlineApp:
		return validateApp(raw.App, compilerVersion)
	case engine.OutlinePkg:
		return validatePkg(raw.Pkg, compilerVersion)
	default:
		return nil, engine.BadOutline(nil)
	}
}

func validateApp(app *engine.AppOutline, compilerVersion engine.Version) (*engine.ValidOutline, error) {
	if app.ElmVersion != compilerVersion {
		return nil, engine.BadElmInAppOutline(app.ElmVersion.String())
	}
	if len(app.SourceDirs) == 0 {
		return nil, engine.BadOutline(errors.New("source-directories must list at least one directory"))
	}
	return &engine.ValidOutline{
		Kind:    engine.ValidOutlineApp,
		SrcDirs: app.SourceDirs,
	}, nil
}

func validatePkg(pkg *engine.PkgOutline, compilerVersion engine.Version) (*engine.ValidOutline, error) {
	if !pkg.ElmConstraint.Admits(compilerVersion) {
		return nil, engine.BadElmInPkg(pkg.ElmConstraint.String())
	}
	exact := make(map[engine.PkgName]engine.Version, len(pkg.Deps))
	for p, c := range pkg.Deps {
		if c.IsExact() {
			exact[p] = c.Lower
		}
	}
	return &engine.ValidOutline{
		Kind:      engine.ValidOutlinePkg,
		Pkg:       pkg,
		Exposed:   pkg.Exposed,
		ExactDeps: exact,
	}, nil
}
