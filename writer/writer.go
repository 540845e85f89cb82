// Package writer implements the background writer (spec §4.E): a
// scope-bound worker that accepts enqueued binary writes and guarantees
// they have all succeeded (or the scope reports an error) by the time the
// scope closes.
//
// Grounded on the teacher's SafeWriter (golang-dep's txn_writer.go):
// writes land in a temp location first and are only renamed into place
// once they've succeeded, so a crash mid-build can never leave a
// half-written artifact where a reader expects a complete one.
package writer

import (
	"path"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/elm-tooling/elm-details/engine"
)

// Encoder turns a value into bytes for persistence; callers supply one per
// enqueued write (e.g. gob.Encode wrapped to a []byte).
type Encoder func(v interface{}) ([]byte, error)

// Scope is one background-writer session: every Enqueue call is launched
// concurrently, and Close blocks until all of them have completed,
// returning the first error encountered (spec §4.E: "not required to
// complete in submission order, but ... all pending writes must have
// succeeded or the scope exits with error").
type Scope struct {
	fs   engine.FileSystem
	dir  string
	g    *errgroup.Group
	mu   sync.Mutex
	done []string
}

// NewScope opens a background-writer scope rooted at dir.
func NewScope(fs engine.FileSystem, dir string) *Scope {
	return &Scope{fs: fs, dir: dir, g: &errgroup.Group{}}
}

// Enqueue schedules name (relative to the scope's dir) to be written with
// enc(value), via a temp-file-then-rename just like the teacher's
// SafeWriter.Write.
func (s *Scope) Enqueue(name string, enc Encoder, value interface{}) {
	s.g.Go(func() error {
		data, err := enc(value)
		if err != nil {
			return err
		}
		final := path.Join(s.dir, name)
		tmp := final + ".tmp"
		if err := s.fs.WriteBinary(tmp, data); err != nil {
			return err
		}
		if err := s.fs.Remove(final); err != nil {
			if exists, existsErr := s.fs.Exists(final); existsErr == nil && exists {
				return err
			}
		}
		if err := rename(s.fs, tmp, final); err != nil {
			return err
		}
		s.mu.Lock()
		s.done = append(s.done, name)
		s.mu.Unlock()
		return nil
	})
}

// Close waits for every enqueued write to finish, returning the first
// error (if any). All writes are attempted regardless of earlier
// failures; errgroup's first-error-wins behavior only governs what Close
// returns, not whether a given write was attempted.
func (s *Scope) Close() error {
	return s.g.Wait()
}

// Done returns the names that have successfully landed so far. Safe to
// call concurrently with in-flight Enqueue calls, but only meaningful
// after Close returns nil.
func (s *Scope) Done() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.done))
	copy(out, s.done)
	return out
}

// Renamer is an optional capability a FileSystem may implement for a
// native, single-syscall rename (spec's abstract FileSystem collaborator
// has no Rename method, since most of its callers never need one). When
// fs doesn't implement it, rename falls back to read-write-remove.
type Renamer interface {
	Rename(oldPath, newPath string) error
}

// rename moves oldPath to newPath, preferring fs's native Rename (as the
// teacher's RenameWithFallback does, falling back only when necessary) and
// otherwise emulating it by copying the bytes across.
func rename(fs engine.FileSystem, oldPath, newPath string) error {
	if r, ok := fs.(Renamer); ok {
		return r.Rename(oldPath, newPath)
	}

	data, err := fs.ReadBinary(oldPath)
	if err != nil {
		return err
	}
	if err := fs.WriteBinary(newPath, data); err != nil {
		return err
	}
	return fs.Remove(oldPath)
}
