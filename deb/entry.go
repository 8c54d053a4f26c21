package deb

import "io"

// Entry describes a directory or a file to be placed in the data archive.
type Entry struct {
	// Name is the path on the target system, e.g. "/usr/bin/app".
	Name string
	// LinkName is the optional link target. It is carried for sources that
	// know about links, but entries are always written as directories or
	// regular files.
	LinkName string
	User     string
	UID      int
	Group    string
	GID      int
	// Mode holds the permission bits (e.g. 0o644).
	Mode int64
	// Size is the declared size of a file in bytes. It is ignored for directories.
	Size int64
}

// Sink receives the entries emitted by a [Source].
type Sink interface {
	// Directory adds a directory, creating its parents first.
	Directory(e Entry) error
	// File adds a file whose content is read from r. Exactly e.Size bytes
	// must be available.
	File(e Entry, r io.Reader) error
}

// Source emits entries into a Sink.
type Source interface {
	Produce(s Sink) error
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(s Sink) error

// Produce calls f(s).
func (f SourceFunc) Produce(s Sink) error { return f(s) }
