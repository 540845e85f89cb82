package details

import (
	"context"
	"path"
	"strings"

	"github.com/elm-tooling/elm-details/engine"
	"github.com/elm-tooling/elm-details/outline"
)

// depsSource adapts the package fetcher and manifest loader into the
// solver's DepsSource/CacheChecker collaborators (spec §4.C): resolving a
// candidate version's own declared dependencies means fetching it (if
// needed) and reading its elm.json, exactly as a real build would.
type depsSource struct {
	fs      engine.FileSystem
	fetcher fetcher
}

type fetcher interface {
	PackageDir(pkg engine.PkgName, v engine.Version) string
	Ensure(ctx context.Context, pkg engine.PkgName, v engine.Version) error
}

func (d *depsSource) DependenciesOf(ctx context.Context, pkg engine.PkgName, v engine.Version) (map[engine.PkgName]engine.Constraint, error) {
	if err := d.fetcher.Ensure(ctx, pkg, v); err != nil {
		return nil, err
	}
	dir := d.fetcher.PackageDir(pkg, v)
	text, err := d.fs.ReadUTF8(path.Join(dir, outline.ManifestName))
	if err != nil {
		return nil, err
	}
	ro, err := outline.Load(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	if ro.Kind != engine.OutlinePkg {
		return nil, engine.BadOutline(errNotAPackage(pkg))
	}
	return ro.Pkg.Deps, nil
}

// IsCached reports whether pkg/v's source tree is already present locally.
func (d *depsSource) IsCached(pkg engine.PkgName, v engine.Version) bool {
	exists, err := d.fs.DirExists(path.Join(d.fetcher.PackageDir(pkg, v), "src"))
	return err == nil && exists
}

type notAPackageError struct {
	pkg engine.PkgName
}

func (e *notAPackageError) Error() string {
	return e.pkg.String() + "'s elm.json is an application manifest, not a package"
}

func errNotAPackage(pkg engine.PkgName) error {
	return &notAPackageError{pkg: pkg}
}
