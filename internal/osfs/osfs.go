// Package osfs implements engine.FileSystem over the real operating
// system, the production collaborator enginetest.FS fakes for tests.
//
// Grounded on the teacher's internal/fs.RenameWithFallback (golang-dep):
// a plain os.Rename first, falling back to copy-then-remove whenever that
// rename fails, so moving a temp file into place inside the package cache
// still works when <home> spans filesystems.
package osfs

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/elm-tooling/elm-details/engine"
)

// OS is the real-disk engine.FileSystem.
type OS struct{}

func (OS) ReadUTF8(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (OS) ReadBinary(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OS) WriteBinary(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (OS) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (OS) ModTime(path string) (engine.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return engine.Time{}, err
	}
	return engine.NewTime(info.ModTime()), nil
}

func (OS) Remove(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (OS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (OS) List(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name()
	}
	return out, nil
}

func (OS) DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// Rename satisfies the writer package's optional Renamer interface,
// letting Scope.Enqueue move a temp file into place directly instead of
// reading and rewriting its bytes.
func (OS) Rename(oldPath, newPath string) error {
	if _, err := os.Stat(oldPath); err != nil {
		return errors.Wrapf(err, "cannot stat %s", oldPath)
	}
	if err := os.Rename(oldPath, newPath); err == nil {
		return nil
	}
	return renameByCopy(oldPath, newPath)
}

// renameByCopy emulates rename after os.Rename has failed (for example on a
// cross-device link error): copy then remove the source.
func renameByCopy(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "cannot stat %s", src)
	}
	if info.IsDir() {
		return errors.Wrapf(errCannotCopyDir, "renaming directory %s", src)
	}
	if err := copyFile(src, dst); err != nil {
		return errors.Wrapf(err, "rename fallback: copying %s to %s", src, dst)
	}
	return errors.Wrapf(os.Remove(src), "cannot remove %s after copy", src)
}

var errCannotCopyDir = errors.New("osfs: cross-device directory rename is not supported")

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
