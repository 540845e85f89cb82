// Package enginetest provides fakes for the engine's external
// collaborators (spec §6), so every other package's tests exercise real
// orchestration logic without touching a real disk, registry or network.
//
// Grounded on jbw976-up's use of afero.NewMemMapFs() in its command tests
// (cmd/up/dependency/add_test.go) for an in-memory engine.FileSystem, and
// on the teacher's fakeProjectAnalyzer-style struct fakes for the parser
// and compiler collaborators.
package enginetest

import (
	"os"
	"path"
	"time"

	"github.com/spf13/afero"

	"github.com/elm-tooling/elm-details/engine"
)

// FS is an in-memory engine.FileSystem backed by afero.
type FS struct {
	fs afero.Fs
}

// NewFS returns an empty in-memory filesystem.
func NewFS() *FS {
	return &FS{fs: afero.NewMemMapFs()}
}

// WriteUTF8 seeds path with text, for test setup.
func (f *FS) WriteUTF8(p, text string) error {
	return afero.WriteFile(f.fs, p, []byte(text), 0o644)
}

// Touch leaves path's content unchanged and sets its mtime to at, for tests
// that need to exercise the Details "source touched" scenarios.
func (f *FS) Touch(p string, at time.Time) error {
	return f.fs.Chtimes(p, at, at)
}

func (f *FS) ReadUTF8(p string) (string, error) {
	b, err := afero.ReadFile(f.fs, p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (f *FS) ReadBinary(p string) ([]byte, error) {
	return afero.ReadFile(f.fs, p)
}

func (f *FS) WriteBinary(p string, data []byte) error {
	if err := f.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return err
	}
	return afero.WriteFile(f.fs, p, data, 0o644)
}

func (f *FS) Exists(p string) (bool, error) {
	return afero.Exists(f.fs, p)
}

func (f *FS) ModTime(p string) (engine.Time, error) {
	info, err := f.fs.Stat(p)
	if err != nil {
		return engine.Time{}, err
	}
	return engine.NewTime(info.ModTime()), nil
}

func (f *FS) Remove(p string) error {
	err := f.fs.Remove(p)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *FS) MkdirAll(p string) error {
	return f.fs.MkdirAll(p, 0o755)
}

func (f *FS) List(p string) ([]string, error) {
	entries, err := afero.ReadDir(f.fs, p)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name()
	}
	return out, nil
}

func (f *FS) DirExists(p string) (bool, error) {
	return afero.DirExists(f.fs, p)
}
