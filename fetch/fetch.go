// Package fetch implements the package fetcher (spec §4.D): it downloads
// and unpacks a missing package into the content-addressed package cache
// under <home>/packages/<author>/<project>/<version>/.
//
// Grounded on the teacher's vcs_source.go/source_cache.go cache-probe
// pattern (golang-dep), adapted from a VCS checkout to a single
// content-addressed archive download, with the archive hash checked while
// streaming (closing the Open Question in spec §9).
package fetch

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"path"

	"github.com/pkg/errors"

	"github.com/elm-tooling/elm-details/engine"
	"github.com/elm-tooling/elm-details/internal/elmlog"
)

// Kind tags which stage of the download failed, matching spec §4.D's
// PP_* failure modes.
type Kind int

const (
	BadEndpointRequest Kind = iota
	BadEndpointContent
	BadArchiveRequest
	BadArchiveContent
	BadArchiveHash
)

// Error wraps a fetch failure with the PP_* kind spec §4.D names.
type Error struct {
	Kind Kind
	Pkg  engine.PkgName
	Ver  engine.Version
	err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetching %s %s: %s", e.Pkg, e.Ver, e.err)
}

func (e *Error) Unwrap() error { return e.err }

func fail(kind Kind, pkg engine.PkgName, v engine.Version, err error) *Error {
	return &Error{Kind: kind, Pkg: pkg, Ver: v, err: err}
}

// RegistryBase is the endpoint root used to build per-package download URLs.
const RegistryBase = "https://package.elm-lang.org"

// Fetcher downloads and unpacks packages into the package cache.
type Fetcher struct {
	FS   engine.FileSystem
	HTTP engine.Fetcher
	Home string // <home>/packages is the cache root
	Log  *elmlog.Logger
}

// PackageDir is <home>/packages/<author>/<project>/<version>.
func (f *Fetcher) PackageDir(pkg engine.PkgName, v engine.Version) string {
	return path.Join(f.Home, "packages", pkg.Author, pkg.Project, v.String())
}

// endpointInfo mirrors the JSON response of <registryBase>/packages/<pkg>/<v>/endpoint.json.
type endpointInfo struct {
	URL  string `json:"url"`
	Hash string `json:"hash"`
}

// Ensure makes sure (pkg, v)'s source tree exists under the package cache,
// fetching and unpacking it if necessary (spec §4.D). It is a no-op if
// <dir>/src already exists.
func (f *Fetcher) Ensure(ctx context.Context, pkg engine.PkgName, v engine.Version) error {
	dir := f.PackageDir(pkg, v)
	srcDir := path.Join(dir, "src")

	exists, err := f.FS.DirExists(srcDir)
	if err != nil {
		return errors.Wrap(err, "checking package cache")
	}
	if exists {
		f.Log.Debugf("%s %s already unpacked, skipping download", pkg, v)
		return nil
	}

	f.Log.Logf("downloading %s %s\n", pkg, v)
	endpointURL := fmt.Sprintf("%s/packages/%s/%s/%s/endpoint.json", RegistryBase, pkg.Author, pkg.Project, v)
	var ep endpointInfo
	if err := f.HTTP.GetJSON(ctx, endpointURL, &ep); err != nil {
		return fail(BadEndpointRequest, pkg, v, err)
	}
	if ep.URL == "" || ep.Hash == "" {
		return fail(BadEndpointContent, pkg, v, fmt.Errorf("endpoint.json missing url or hash"))
	}

	pr, pw := io.Pipe()
	var shaHex string
	var getErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer pw.Close()
		shaHex, getErr = f.HTTP.GetArchive(ctx, ep.URL, pw)
	}()

	unpackErr := unpackTarGz(f.FS, dir, pr)
	<-done

	if getErr != nil {
		return fail(BadArchiveRequest, pkg, v, getErr)
	}
	if unpackErr != nil {
		return fail(BadArchiveContent, pkg, v, unpackErr)
	}
	if !hashesEqual(shaHex, ep.Hash) {
		return fail(BadArchiveHash, pkg, v, fmt.Errorf("expected sha256 %s, got %s", ep.Hash, shaHex))
	}
	return nil
}

func hashesEqual(a, b string) bool {
	da, err1 := hex.DecodeString(a)
	db, err2 := hex.DecodeString(b)
	if err1 != nil || err2 != nil {
		return a == b
	}
	if len(da) != len(db) {
		return false
	}
	for i := range da {
		if da[i] != db[i] {
			return false
		}
	}
	return true
}

// unpackTarGz streams r (a gzip'd tarball) into dir, one entry at a time.
func unpackTarGz(fs engine.FileSystem, dir string, r io.Reader) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return errors.Wrap(err, "opening gzip stream")
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading tar entry")
		}

		dest := path.Join(dir, hdr.Name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := fs.MkdirAll(dest); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := fs.MkdirAll(path.Dir(dest)); err != nil {
				return err
			}
			data, err := io.ReadAll(tr)
			if err != nil {
				return errors.Wrapf(err, "reading %s", hdr.Name)
			}
			if err := fs.WriteBinary(dest, data); err != nil {
				return err
			}
		}
	}
}
