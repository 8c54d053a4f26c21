package source

import (
	"archive/tar"
	"fmt"
	"io"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/etnz/deb-builder/deb"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
)

// Archive is a source emitting the content of a tar archive, optionally
// compressed with gzip, bzip2 or xz. Ownership and modes are taken from the
// archive. Anything but directories and regular files is skipped.
type Archive struct {
	Fs     afero.Fs
	Path   string
	Filter Filter
	Mapper *PermMapper
}

// Produce implements deb.Source.
func (a *Archive) Produce(s deb.Sink) error {
	f, err := a.Fs.Open(a.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := decompress(a.Path, f)
	if err != nil {
		return err
	}
	defer r.Close()

	e := emitter{sink: s, filter: a.Filter, mapper: a.Mapper}
	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", a.Path, err)
		}

		entry := deb.Entry{
			Name:     strings.TrimPrefix(h.Name, "./"),
			LinkName: h.Linkname,
			User:     h.Uname,
			UID:      h.Uid,
			Group:    h.Gname,
			GID:      h.Gid,
			Mode:     h.Mode & 0o7777,
		}
		if entry.Name == "" || entry.Name == "/" {
			continue
		}
		switch h.Typeflag {
		case tar.TypeDir:
			err = e.directory(entry)
		case tar.TypeReg:
			entry.Size = h.Size
			err = e.file(entry, tr)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", h.Name, err)
		}
	}
}

// decompress picks the decompressor from the archive extension.
func decompress(name string, r io.Reader) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return gzip.NewReader(r)
	case strings.HasSuffix(name, ".tar.bz2"), strings.HasSuffix(name, ".tbz2"):
		return bzip2.NewReader(r, nil)
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case strings.HasSuffix(name, ".tar"):
		return io.NopCloser(r), nil
	}
	return nil, fmt.Errorf("%s: unsupported archive format", name)
}
