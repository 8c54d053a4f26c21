package deb

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/blakesmith/ar"
	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// Package is a .deb read back from its bytes.
type Package struct {
	// Members lists the ar members in archive order.
	Members []string
	// Control is the parsed control file.
	Control *Descriptor
	// ControlFiles holds the other members of the control archive, such as
	// md5sums or maintainer scripts, by name.
	ControlFiles map[string]string
	// Entries lists the directories and files of the data archive, in
	// archive order, with their archive path as Name.
	Entries []Entry
}

// StandardFilename returns the canonical filename for the package.
// Format: {Package}_{Version}_{Architecture}.deb
//
// Reference: https://www.debian.org/doc/manuals/debian-faq/ch-pkg_basics.en.html#s-pkgname
func StandardFilename(d *Descriptor) string {
	return fmt.Sprintf("%s_%s_%s.deb", d.Value(FieldPackage), d.Value(FieldVersion), d.Value(FieldArchitecture))
}

// ReadPackage reads a .deb file. The data archive may be uncompressed or
// compressed with gzip, bzip2 or xz.
func ReadPackage(r io.Reader) (*Package, error) {
	pkg := &Package{ControlFiles: make(map[string]string)}

	arR := ar.NewReader(r)
	for {
		header, err := arR.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading ar header: %w", err)
		}
		pkg.Members = append(pkg.Members, header.Name)

		switch {
		case strings.HasPrefix(header.Name, "control.tar"):
			if err := pkg.readControl(header.Name, arR); err != nil {
				return nil, err
			}
		case strings.HasPrefix(header.Name, "data.tar"):
			if err := pkg.readData(header.Name, arR); err != nil {
				return nil, err
			}
		}
	}

	if pkg.Control == nil {
		return nil, ErrMissingControl
	}
	return pkg, nil
}

func (pkg *Package) readControl(member string, r io.Reader) error {
	tr, closer, err := openTar(member, r)
	if err != nil {
		return err
	}
	defer closer.Close()

	for {
		th, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading control tar header: %w", err)
		}
		if th.Typeflag != tar.TypeReg {
			continue
		}

		name := filepath.Base(th.Name)
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, tr); err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}

		if ControlFile(name) == FileControl {
			if pkg.Control, err = ParseDescriptor(buf.String()); err != nil {
				return fmt.Errorf("parsing control file: %w", err)
			}
			continue
		}
		pkg.ControlFiles[name] = buf.String()
	}
}

func (pkg *Package) readData(member string, r io.Reader) error {
	tr, closer, err := openTar(member, r)
	if err != nil {
		return err
	}
	defer closer.Close()

	for {
		th, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading data tar header: %w", err)
		}
		pkg.Entries = append(pkg.Entries, Entry{
			Name:     th.Name,
			LinkName: th.Linkname,
			User:     th.Uname,
			UID:      th.Uid,
			Group:    th.Gname,
			GID:      th.Gid,
			Mode:     th.Mode,
			Size:     th.Size,
		})
	}
}

// openTar opens a tar member, choosing the decompressor from its extension.
func openTar(member string, r io.Reader) (*tar.Reader, io.Closer, error) {
	switch filepath.Ext(member) {
	case ".gz":
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", member, err)
		}
		return tar.NewReader(gzr), gzr, nil
	case ".bz2":
		bzr, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", member, err)
		}
		return tar.NewReader(bzr), bzr, nil
	case ".xz":
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", member, err)
		}
		return tar.NewReader(xzr), io.NopCloser(r), nil
	case ".tar":
		return tar.NewReader(r), io.NopCloser(r), nil
	default:
		return nil, nil, fmt.Errorf("unsupported archive member %s", member)
	}
}
