package engine

import "time"

// Time is a filesystem modification timestamp. Per spec §3 it is only
// ever compared for equality, never ordered, because mtimes are not a
// reliable clock across filesystems.
type Time struct {
	t time.Time
}

// NewTime wraps a time.Time as an engine Time.
func NewTime(t time.Time) Time { return Time{t: t} }

// Equal reports whether two Times denote the same instant.
func (a Time) Equal(b Time) bool { return a.t.Equal(b.t) }

func (a Time) String() string { return a.t.String() }

// GobEncode and GobDecode let Time round-trip through encoding/gob as part
// of a persisted Details record.
func (a Time) GobEncode() ([]byte, error) { return a.t.GobEncode() }

func (a *Time) GobDecode(b []byte) error { return a.t.GobDecode(b) }

// BuildID is a monotonically increasing counter persisted in the
// details file, bumped on every load that reuses a prior Details (spec §3).
type BuildID uint64
