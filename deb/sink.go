package deb

import (
	"archive/tar"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"path"
	"strings"
	"time"
)

// Checksum is the MD5 of one file of the data archive.
type Checksum struct {
	MD5  string
	Path string
}

// Checksums is the md5sums ledger, in archive order.
type Checksums []Checksum

// String renders the ledger as the content of the md5sums control file.
func (c Checksums) String() string {
	var b strings.Builder
	for _, sum := range c {
		fmt.Fprintf(&b, "%s  %s\n", sum.MD5, sum.Path)
	}
	return b.String()
}

// tarSink is the Sink writing the data archive. One is created per build.
type tarSink struct {
	tw       *tar.Writer
	modTime  time.Time
	listener Listener

	dirs      []string
	seen      map[string]bool
	checksums Checksums
	size      uint64
	digest    hash.Hash
}

func newTarSink(tw *tar.Writer, modTime time.Time, l Listener) *tarSink {
	return &tarSink{
		tw:       tw,
		modTime:  modTime,
		listener: l,
		seen:     make(map[string]bool),
		digest:   md5.New(),
	}
}

// normalizePath turns any path into the "./foo/bar" form used in the archive.
// A trailing slash is kept. Names resolving outside of the archive root are
// rejected with ErrPathOutsideRoot.
func normalizePath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	clean := path.Clean(strings.TrimLeft(p, "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideRoot, p)
	}
	if clean == "." {
		return "./", nil
	}
	clean = "./" + clean
	if strings.HasSuffix(p, "/") {
		clean += "/"
	}
	return clean, nil
}

// parentOf returns the parent of a normalized path, without trailing slash,
// or "" for the archive root.
func parentOf(p string) string {
	p = strings.TrimRight(p, "/")
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ""
	}
	return p[:i]
}

// Directory implements Sink.
func (s *tarSink) Directory(e Entry) error {
	name, err := normalizePath(e.Name)
	if err != nil {
		return err
	}
	if err := s.createParents(parentOf(name), e); err != nil {
		return err
	}
	return s.createDirectory(name, e, e.Mode)
}

// File implements Sink.
func (s *tarSink) File(e Entry, r io.Reader) error {
	name, err := normalizePath(e.Name)
	if err != nil {
		return err
	}
	if err := s.createParents(parentOf(name), e); err != nil {
		return err
	}

	header := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Size:     e.Size,
		Mode:     e.Mode,
		Uname:    e.User,
		Uid:      e.UID,
		Gname:    e.Group,
		Gid:      e.GID,
		ModTime:  s.modTime,
	}
	if err := s.tw.WriteHeader(header); err != nil {
		return fmt.Errorf("writing header of %s: %w", name, err)
	}

	s.digest.Reset()
	n, err := io.Copy(io.MultiWriter(s.tw, s.digest), r)
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if n != e.Size {
		return fmt.Errorf("writing %s: declared size %d, got %d bytes", name, e.Size, n)
	}
	sum := hex.EncodeToString(s.digest.Sum(nil))

	s.checksums = append(s.checksums, Checksum{MD5: sum, Path: name})
	s.size += uint64(e.Size)

	s.listener.Emit(EventFile{
		Path:  name,
		Size:  e.Size,
		Mode:  e.Mode,
		User:  e.User,
		UID:   e.UID,
		Group: e.Group,
		GID:   e.GID,
		MD5:   sum,
	})
	return nil
}

// createDirectory writes dir unless it is already in the ledger.
func (s *tarSink) createDirectory(dir string, owner Entry, mode int64) error {
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	if s.seen[dir] {
		return nil
	}

	header := &tar.Header{
		Typeflag: tar.TypeDir,
		Name:     dir,
		Mode:     mode,
		Uname:    owner.User,
		Uid:      owner.UID,
		Gname:    owner.Group,
		Gid:      owner.GID,
		ModTime:  s.modTime,
	}
	if err := s.tw.WriteHeader(header); err != nil {
		return fmt.Errorf("writing directory %s: %w", dir, err)
	}
	s.seen[dir] = true
	s.dirs = append(s.dirs, dir)

	s.listener.Emit(EventDirectory{Path: dir, Mode: mode})
	return nil
}

// rootEntry owns the archive root.
var rootEntry = Entry{User: rootUser, Group: rootUser}

// createParents writes "./", then every ancestor down to parent, in order.
// Debian packages must list a directory before anything it contains.
func (s *tarSink) createParents(parent string, owner Entry) error {
	if parent == "" {
		return nil
	}
	dir := "./"
	if err := s.createDirectory(dir, rootEntry, synthesizedDirMode); err != nil {
		return err
	}
	for _, part := range strings.Split(parent, "/")[1:] {
		if part == "" || part == "." {
			continue
		}
		dir += part + "/"
		if err := s.createDirectory(dir, owner, synthesizedDirMode); err != nil {
			return err
		}
	}
	return nil
}
